// Package session negotiates the anti-forgery session StreamingCommunity
// requires before it answers Inertia JSON requests.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"unity/internal/extract"
	"unity/internal/httputil"
)

// XSRFCookie is the cookie carrying the anti-forgery token.
const XSRFCookie = "XSRF-TOKEN"

var (
	ErrAntiForgeryTokenMissing = errors.New("anti-forgery token cookie missing")
	ErrSessionCookieMissing    = errors.New("session cookie missing")
	ErrProtocolVersionMissing  = errors.New("protocol version missing")
)

// Error reports a priming response that lacked one of the session artifacts.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("negotiating session with %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Context holds the artifacts of one negotiation. It belongs to a single
// resolution call and is never shared.
type Context struct {
	AntiForgeryToken string
	SessionCookie    string
	ProtocolVersion  string

	cookieName string
}

// Apply adds the session cookies and Inertia headers to req.
func (c Context) Apply(req *http.Request) {
	req.Header.Set("Cookie", fmt.Sprintf("%s=%s; %s=%s;", XSRFCookie, c.AntiForgeryToken, c.cookieName, c.SessionCookie))
	req.Header.Set("X-XSRF-TOKEN", c.AntiForgeryToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Inertia", "true")
	req.Header.Set("X-Inertia-Version", c.ProtocolVersion)
	req.Header.Set("Accept", "application/json")
}

// Negotiator performs the priming request against a site root.
type Negotiator struct {
	client     *http.Client
	baseURL    string
	cookieName string
}

// NewNegotiator returns a Negotiator for baseURL whose session cookie is
// called cookieName, e.g. "streamingcommunity_session".
func NewNegotiator(client *http.Client, baseURL, cookieName string) *Negotiator {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Negotiator{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: cookieName,
	}
}

// Negotiate fetches the site root and reads the anti-forgery token, the
// session cookie and the Inertia protocol version from it.
func (n *Negotiator) Negotiate(ctx context.Context) (Context, error) {
	rootURL := n.baseURL + "/"

	req, err := httputil.NewRequest(ctx, http.MethodGet, rootURL, nil)
	if err != nil {
		return Context{}, err
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return Context{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Context{}, &httputil.StatusError{URL: rootURL, StatusCode: resp.StatusCode}
	}

	sc := Context{cookieName: n.cookieName}

	sc.AntiForgeryToken = cookieValue(resp.Cookies(), XSRFCookie)
	if sc.AntiForgeryToken == "" {
		return Context{}, &Error{URL: rootURL, Err: ErrAntiForgeryTokenMissing}
	}

	sc.SessionCookie = cookieValue(resp.Cookies(), n.cookieName)
	if sc.SessionCookie == "" {
		return Context{}, &Error{URL: rootURL, Err: ErrSessionCookieMissing}
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return Context{}, err
	}

	page, err := extract.ParsePageData(bytes.NewReader(body))
	if err != nil || page.Version == "" {
		return Context{}, &Error{URL: rootURL, Err: ErrProtocolVersionMissing}
	}
	sc.ProtocolVersion = page.Version

	return sc, nil
}

// cookieValue returns the URL-decoded value of the named cookie.
func cookieValue(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name != name {
			continue
		}
		if v, err := url.PathUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}
	return ""
}

// Package proxy relays stream requests to an allow-listed set of media hosts.
package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Route is the path prefix the proxy is mounted on.
const Route = "/_internal/stream-proxy/"

// DefaultAllowedHosts are the AnimeUnity media hosts.
var DefaultAllowedHosts = []string{
	"au-d1-01.scws-content.net",
	"au-d1-02.scws-content.net",
	"au-d1-03.scws-content.net",
	"au-d1-04.scws-content.net",
	"au-d1-05.scws-content.net",
}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy forwards GET and HEAD requests to allow-listed hosts and streams the answer
// back unchanged.
type Proxy struct {
	client  *http.Client
	allowed map[string]struct{}
	log     logrus.FieldLogger
}

// New creates a Proxy. client should have no overall timeout since responses
// are long-lived media bodies.
func New(client *http.Client, allowedHosts []string, log logrus.FieldLogger) *Proxy {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	allowed := lo.SliceToMap(allowedHosts, func(h string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(h)), struct{}{}
	})
	return &Proxy{client: client, allowed: allowed, log: log.WithField("component", "proxy")}
}

// Allows reports whether rawURL is an http(s) URL on an allow-listed host.
func (p *Proxy) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	_, ok := p.allowed[strings.ToLower(u.Hostname())]
	return ok
}

// Wrap rewrites rawURL to go through the proxy mounted under publicBase.
// URLs the proxy would refuse are returned unchanged.
func (p *Proxy) Wrap(publicBase, rawURL string) string {
	if !p.Allows(rawURL) {
		return rawURL
	}
	return strings.TrimRight(publicBase, "/") + Route + url.PathEscape(rawURL)
}

// ServeHTTP handles Route + "<escaped target URL>".
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	target, err := targetURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := p.log.WithField("target", target)
	if !p.Allows(target) {
		log.Warn("refusing proxy request to host outside allow-list")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, nil)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	copyHeaders(out.Header, r.Header)
	out.Header.Del("Host")

	resp, err := p.client.Do(out)
	if err != nil {
		log.WithError(err).Error("proxy request failed")
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.WithError(err).Debug("client went away during proxy copy")
	}
}

// targetURL recovers the upstream URL from the request path. Both an
// escaped single segment and a raw URL with slashes are accepted.
func targetURL(r *http.Request) (string, error) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), strings.TrimSuffix(Route, "/"))
	raw = strings.TrimPrefix(raw, "/")
	if raw == "" {
		return "", fmt.Errorf("missing target URL")
	}

	target, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("bad target URL: %w", err)
	}
	if r.URL.RawQuery != "" && !strings.Contains(target, "?") {
		target += "?" + r.URL.RawQuery
	}
	return target, nil
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if isHopHeader(k) {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func isHopHeader(name string) bool {
	return lo.ContainsBy(hopHeaders, func(h string) bool {
		return strings.EqualFold(h, name)
	})
}

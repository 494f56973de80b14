package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// masterPlaylistRe matches the player's inline assignment:
//
//	window.masterPlaylist = { params: { 'token': '..', 'expires': '..', 'asn': '..', }, url: '..', }
//
// Trailing commas are optional.
var masterPlaylistRe = regexp.MustCompile(
	`window\.masterPlaylist\s*=\s*\{\s*params:\s*\{\s*` +
		`'token':\s*'([^']*)',\s*` +
		`'expires':\s*'([^']*)',\s*` +
		`'asn':\s*'([^']*)',?\s*\},\s*` +
		`url:\s*'([^']*)',?\s*\}`)

// MasterPlaylist is the signed playlist location embedded in a player page.
type MasterPlaylist struct {
	URL     string
	Token   string
	Expires string
	ASN     string
}

// MasterPlaylistConfig pulls the masterPlaylist assignment out of a player page.
func MasterPlaylistConfig(page string) (MasterPlaylist, error) {
	m := masterPlaylistRe.FindStringSubmatch(page)
	if m == nil {
		return MasterPlaylist{}, ErrMasterPlaylistNotFound
	}
	if strings.TrimSpace(m[4]) == "" {
		return MasterPlaylist{}, fmt.Errorf("%w: empty playlist url", ErrMasterPlaylistNotFound)
	}

	return MasterPlaylist{
		Token:   m[1],
		Expires: m[2],
		ASN:     m[3],
		URL:     m[4],
	}, nil
}

// ManifestURL signs the playlist URL. Existing query parameters are kept and
// the signing parameters follow them in a fixed order.
func (p MasterPlaylist) ManifestURL(lang string) (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return "", fmt.Errorf("parsing playlist url: %w", err)
	}

	params := []string{
		"token=" + url.QueryEscape(p.Token),
		"expires=" + url.QueryEscape(p.Expires),
		"asn=" + url.QueryEscape(p.ASN),
		"h=1",
		"scz=1",
		"lang=" + url.QueryEscape(lang),
	}

	query := strings.Join(params, "&")
	if u.RawQuery != "" {
		query = u.RawQuery + "&" + query
	}
	u.RawQuery = query
	u.Fragment = ""

	return u.String(), nil
}

package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

// manifestMarker tells players that a URL is an HLS manifest.
const manifestMarker = ".m3u8"

// FirstVariant parses an HLS master playlist and returns the URI of its first
// variant, resolved against manifestURL when relative.
func FirstVariant(manifest, manifestURL string) (string, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(manifest), false)
	if err != nil {
		return "", fmt.Errorf("%w: parsing manifest: %v", ErrPlaylistEntryNotFound, err)
	}
	if listType != m3u8.MASTER {
		return "", fmt.Errorf("%w: manifest is not a master playlist", ErrPlaylistEntryNotFound)
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return "", fmt.Errorf("%w: unexpected playlist type %T", ErrPlaylistEntryNotFound, playlist)
	}

	for _, v := range master.Variants {
		if v == nil || strings.TrimSpace(v.URI) == "" {
			continue
		}
		return resolveReference(manifestURL, strings.TrimSpace(v.URI))
	}

	return "", ErrPlaylistEntryNotFound
}

// MarkManifest appends the manifest marker as a fragment unless the URL path
// already ends with it. An existing fragment is replaced.
func MarkManifest(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "#")
	if strings.HasSuffix(base, manifestMarker) {
		return base
	}
	return base + "#" + manifestMarker
}

func resolveReference(baseURL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing variant URI %q: %w", ref, err)
	}
	if r.IsAbs() || baseURL == "" {
		return r.String(), nil
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing manifest URL: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

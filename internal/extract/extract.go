// Package extract holds every brittle piece of page scraping: embed URL
// discovery, inline player configuration, Inertia page data and HLS manifest
// parsing. Each extractor is a named function with fixture tests, so a site
// layout change touches one function.
package extract

import (
	"context"
	"errors"

	"unity/internal/media"
)

var (
	// ErrEmbedURLNotFound means the wrapper page links no known player.
	ErrEmbedURLNotFound = errors.New("embed URL not found")

	// ErrMasterPlaylistNotFound means the player page has no masterPlaylist assignment.
	ErrMasterPlaylistNotFound = errors.New("master playlist not found")

	// ErrPlaylistEntryNotFound means the manifest lists no variant.
	ErrPlaylistEntryNotFound = errors.New("playlist entry not found")

	// ErrPageDataNotFound means the page has no Inertia root element.
	ErrPageDataNotFound = errors.New("page data not found")
)

// Extractor resolves an embed player URL into a playable stream.
type Extractor interface {
	Extract(ctx context.Context, embedURL string) (media.StreamDescriptor, error)
}

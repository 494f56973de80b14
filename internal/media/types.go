// Package media defines the catalog, meta and stream records shared by
// providers, the addon surface and the CLI.
package media

import "time"

// ContentType is the addon-level kind of a title.
type ContentType string

const (
	Movie  ContentType = "movie"
	Series ContentType = "series"
)

func (c ContentType) String() string {
	return string(c)
}

// CatalogRecord is a single search hit.
type CatalogRecord struct {
	Title    string      `json:"title"`
	ID       string      `json:"id"`                 // Prefixed content ID, e.g. "sc8451-poirot"
	ImageURL string      `json:"imageUrl,omitempty"` // Poster URL, empty when the site has none
	Type     ContentType `json:"type"`
}

// MetaRecord is the full detail of a title.
type MetaRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        ContentType     `json:"type"`
	Poster      string          `json:"poster,omitempty"`
	Background  string          `json:"background,omitempty"`
	Description string          `json:"description,omitempty"`
	Videos      []EpisodeRecord `json:"videos,omitempty"` // Only set for series
}

// EpisodeRecord is one playable episode of a series.
type EpisodeRecord struct {
	ID       string    `json:"id"` // Content ID with the --season-episode suffix
	Title    string    `json:"title"`
	Released time.Time `json:"released"`
	Season   int       `json:"season"`
	Episode  int       `json:"episode"`
}

// StreamDescriptor is a resolved, playable location.
type StreamDescriptor struct {
	Name  string `json:"name,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url"`

	// NotWebReady marks adaptive manifests that need a native player.
	NotWebReady bool `json:"notWebReady,omitempty"`
}

// CatalogDef describes the catalog a provider publishes.
type CatalogDef struct {
	ID   string
	Name string
	Type ContentType
}

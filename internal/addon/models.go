package addon

import (
	"unity/internal/media"
)

// CatalogResponse is the body of a catalog request.
type CatalogResponse struct {
	Metas []MetaPreview `json:"metas"`
}

// MetaPreview is one catalog entry.
type MetaPreview struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Poster string `json:"poster,omitempty"`
}

// MetaResponse is the body of a meta request. Meta is null on failure.
type MetaResponse struct {
	Meta *media.MetaRecord `json:"meta"`
}

// StreamResponse represents the response to a stream request
type StreamResponse struct {
	Streams []Stream `json:"streams"`
}

// Stream represents a single stream option
type Stream struct {
	URL           string         `json:"url"`
	Name          string         `json:"name,omitempty"`
	Title         string         `json:"title,omitempty"`
	BehaviorHints *BehaviorHints `json:"behaviorHints,omitempty"`
}

// BehaviorHints provides hints to Stremio about stream behavior
type BehaviorHints struct {
	NotWebReady bool   `json:"notWebReady,omitempty"`
	BingeGroup  string `json:"bingeGroup,omitempty"`
}

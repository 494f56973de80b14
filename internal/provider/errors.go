package provider

import (
	"errors"
	"fmt"
)

// Stage names the pipeline stage a resolution failure happened in.
type Stage string

const (
	StageSearch  Stage = "search"
	StageMeta    Stage = "meta"
	StageStreams Stage = "streams"
)

var (
	// ErrEpisodeNotFound means the site has no episode with the requested number.
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrStreamLinkNotFound means the episode exists but carries no video link.
	ErrStreamLinkNotFound = errors.New("stream link not found")

	// ErrUnknownPrefix means no registered provider owns the ID.
	ErrUnknownPrefix = errors.New("no provider for ID")
)

// ResolutionError wraps any failure of a meta or stream resolution with the
// provider and stage it came from.
type ResolutionError struct {
	Provider string
	Stage    Stage
	ID       string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Provider, e.Stage, e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func resolutionError(provider string, stage Stage, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResolutionError{Provider: provider, Stage: stage, ID: id, Err: err}
}

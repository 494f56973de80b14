// Package contentid encodes and decodes the opaque content identifiers handed
// out to the addon client.
//
// An identifier looks like "<prefix><numericId>-<slug>", optionally followed by
// "--<season>-<episode>" for a single episode. The provider prefix is stripped
// by the router before decoding, so the Decode functions expect a bare
// identifier such as "8451-poirot--1-2".
package contentid

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	slugSeparator    = "-"
	episodeSeparator = "--"
)

// InvalidIdentifierError reports an identifier that cannot be decoded.
type InvalidIdentifierError struct {
	ID     string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid content ID %q: %s", e.ID, e.Reason)
}

// Parts is a fully decoded identifier.
type Parts struct {
	NumericID string
	Slug      string

	// HasEpisode is false when the identifier carries no --season-episode suffix.
	HasEpisode bool
	Season     int
	Episode    int
}

// Encode builds the identifier of a whole title.
func Encode(prefix, numericID, slug string) string {
	if slug == "" {
		return prefix + numericID
	}
	return prefix + numericID + slugSeparator + slug
}

// EncodeEpisode builds the identifier of a single episode.
func EncodeEpisode(prefix, numericID, slug string, season, episode int) string {
	return fmt.Sprintf("%s%s%d%s%d", Encode(prefix, numericID, slug), episodeSeparator, season, slugSeparator, episode)
}

// Parse splits an identifier into its parts. The slug is optional here; use
// DecodeNumericAndSlug when it is required.
func Parse(id string) (Parts, error) {
	base, suffix, hasSuffix := strings.Cut(id, episodeSeparator)

	numeric, slug, _ := strings.Cut(base, slugSeparator)
	if numeric == "" {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: "missing numeric ID"}
	}
	if !isDigits(numeric) {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: fmt.Sprintf("numeric ID %q is not a number", numeric)}
	}

	p := Parts{NumericID: numeric, Slug: slug}
	if !hasSuffix {
		return p, nil
	}

	seasonStr, episodeStr, ok := strings.Cut(suffix, slugSeparator)
	if !ok {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: "episode suffix must be <season>-<episode>"}
	}
	season, err := strconv.Atoi(seasonStr)
	if err != nil || season < 0 {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: fmt.Sprintf("bad season %q", seasonStr)}
	}
	episode, err := strconv.Atoi(episodeStr)
	if err != nil || episode < 0 {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: fmt.Sprintf("bad episode %q", episodeStr)}
	}

	p.HasEpisode = true
	p.Season = season
	p.Episode = episode
	return p, nil
}

// DecodeNumeric returns the numeric ID of an identifier.
func DecodeNumeric(id string) (string, error) {
	p, err := Parse(id)
	if err != nil {
		return "", err
	}
	return p.NumericID, nil
}

// DecodeNumericAndSlug returns the numeric ID and slug, failing when either is missing.
func DecodeNumericAndSlug(id string) (Parts, error) {
	p, err := Parse(id)
	if err != nil {
		return Parts{}, err
	}
	if p.Slug == "" {
		return Parts{}, &InvalidIdentifierError{ID: id, Reason: "missing slug"}
	}
	return p, nil
}

// DecodeEpisode returns the season and episode of an identifier. ok is false
// when the identifier has no episode suffix.
func DecodeEpisode(id string) (season, episode int, ok bool, err error) {
	p, err := Parse(id)
	if err != nil {
		return 0, 0, false, err
	}
	return p.Season, p.Episode, p.HasEpisode, nil
}

// StripPrefix removes a provider prefix. ok is false when id does not carry it.
func StripPrefix(id, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(id, prefix) {
		return id, false
	}
	return id[len(prefix):], true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

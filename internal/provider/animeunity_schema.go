package provider

import (
	"strconv"
	"strings"

	"unity/internal/schema"
)

type auAnime struct {
	ID            int    `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	TitleEng      string `json:"title_eng"`
	Plot          string `json:"plot"`
	Type          string `json:"type"`
	Date          string `json:"date"`
	ImageURL      string `json:"imageurl"`
	Cover         string `json:"cover"`
	EpisodesCount int    `json:"episodes_count"`
}

// displayTitle prefers the original title; some records only have the English one.
func (a auAnime) displayTitle() string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return strings.TrimSpace(a.TitleEng)
}

func (a auAnime) validate(v *schema.Violations, path string) {
	v.Require(a.ID > 0, path+"id", "missing")
	v.Require(a.Slug != "", path+"slug", "missing")
	v.Require(a.displayTitle() != "", path+"title", "missing")
}

type auEpisode struct {
	ID        int    `json:"id"`
	Number    string `json:"number"`
	CreatedAt string `json:"created_at"`
	Link      string `json:"link"`
}

func (e auEpisode) number() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(e.Number))
	return n, err == nil && n >= 0
}

// auSearchResponse is the body of POST /livesearch.
type auSearchResponse struct {
	Records []auAnime `json:"records"`
}

func (r auSearchResponse) Validate() error {
	var v schema.Violations
	v.Require(r.Records != nil, "records", "missing")
	for i, rec := range r.Records {
		rec.validate(&v, schema.Index("records", i)+".")
	}
	return v.Err()
}

// auAnimeResponse is the body of /info_api/<id>/0.
type auAnimeResponse struct {
	auAnime
}

func (r auAnimeResponse) Validate() error {
	var v schema.Violations
	r.validate(&v, "")
	v.Require(r.EpisodesCount >= 0, "episodes_count", "negative")
	return v.Err()
}

// auEpisodesResponse is the body of /info_api/<id>/1.
type auEpisodesResponse struct {
	Episodes []auEpisode `json:"episodes"`
}

func (r auEpisodesResponse) Validate() error {
	var v schema.Violations
	v.Require(r.Episodes != nil, "episodes", "missing")
	for i, e := range r.Episodes {
		v.Require(e.ID > 0, schema.Index("episodes", i)+".id", "missing")
		v.Require(strings.TrimSpace(e.Number) != "", schema.Index("episodes", i)+".number", "missing")
	}
	return v.Err()
}

package provider

import (
	"unity/internal/schema"
)

type scImage struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

type scTitle struct {
	ID     int       `json:"id"`
	Slug   string    `json:"slug"`
	Name   string    `json:"name"`
	Type   string    `json:"type"`
	Images []scImage `json:"images"`
}

type scEpisode struct {
	ID          int    `json:"id"`
	Number      int    `json:"number"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type scSeason struct {
	Number        int         `json:"number"`
	ReleaseDate   string      `json:"release_date"`
	EpisodesCount int         `json:"episodes_count"`
	Episodes      []scEpisode `json:"episodes"`
}

type scTitleDetail struct {
	ID          int        `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Plot        string     `json:"plot"`
	Type        string     `json:"type"`
	ReleaseDate string     `json:"release_date"`
	Images      []scImage  `json:"images"`
	Seasons     []scSeason `json:"seasons"`
}

// scSearchResponse is the Inertia payload of /<locale>/search.
type scSearchResponse struct {
	Props struct {
		Titles []scTitle `json:"titles"`
	} `json:"props"`
}

func (r scSearchResponse) Validate() error {
	var v schema.Violations
	v.Require(r.Props.Titles != nil, "props.titles", "missing")
	for i, t := range r.Props.Titles {
		path := schema.Index("props.titles", i)
		v.Require(t.ID > 0, path+".id", "missing")
		v.Require(t.Slug != "", path+".slug", "missing")
		v.Require(t.Name != "", path+".name", "missing")
		v.Require(t.Type != "", path+".type", "missing")
	}
	return v.Err()
}

// scTitleResponse is the Inertia payload of /<locale>/titles/<id>-<slug>.
type scTitleResponse struct {
	Props struct {
		Title        scTitleDetail `json:"title"`
		LoadedSeason *scSeason     `json:"loadedSeason"`
	} `json:"props"`
}

func (r scTitleResponse) Validate() error {
	var v schema.Violations
	t := r.Props.Title
	v.Require(t.ID > 0, "props.title.id", "missing")
	v.Require(t.Name != "", "props.title.name", "missing")
	v.Require(t.Type == "movie" || t.Type == "tv", "props.title.type", "must be movie or tv")
	for i, s := range t.Seasons {
		path := schema.Index("props.title.seasons", i)
		v.Require(s.Number >= 0, path+".number", "negative")
		v.Require(s.EpisodesCount >= 0, path+".episodes_count", "negative")
		for j, e := range s.Episodes {
			v.Require(e.Number >= 0, schema.Index(path+".episodes", j)+".number", "negative")
		}
	}
	return v.Err()
}

// scSeasonResponse is the Inertia payload of a season page.
type scSeasonResponse struct {
	Props struct {
		LoadedSeason struct {
			Number   int         `json:"number"`
			Episodes []scEpisode `json:"episodes"`
		} `json:"loadedSeason"`
	} `json:"props"`
}

func (r scSeasonResponse) Validate() error {
	var v schema.Violations
	v.Require(r.Props.LoadedSeason.Episodes != nil, "props.loadedSeason.episodes", "missing")
	for i, e := range r.Props.LoadedSeason.Episodes {
		v.Require(e.ID > 0, schema.Index("props.loadedSeason.episodes", i)+".id", "missing")
	}
	return v.Err()
}

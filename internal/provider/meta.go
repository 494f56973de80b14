package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"unity/internal/contentid"
	"unity/internal/media"
)

// dateLayouts are the release date formats the sites emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// seasonSource is a season as a site describes it, before expansion.
type seasonSource struct {
	Number   int
	Released mo.Option[time.Time]
	Count    int
	Episodes []episodeSource
}

type episodeSource struct {
	Number   int
	Title    string
	Released mo.Option[time.Time]
}

// expandEpisodes turns site seasons into episode records. A season without
// an episode list gets Count synthesized episodes. Release dates fall back
// from episode to season to title, and finally to now().
func expandEpisodes(prefix, numericID, slug string, titleReleased mo.Option[time.Time], seasons []seasonSource, now func() time.Time) []media.EpisodeRecord {
	var videos []media.EpisodeRecord

	for _, season := range seasons {
		episodes := season.Episodes
		if len(episodes) == 0 {
			episodes = lo.Times(max(season.Count, 0), func(i int) episodeSource {
				return episodeSource{Number: i + 1}
			})
		}

		for _, ep := range episodes {
			title := strings.TrimSpace(ep.Title)
			if title == "" {
				title = fmt.Sprintf("Episode %d", ep.Number)
			}

			released := firstPresent(ep.Released, season.Released, titleReleased).
				OrElse(now())

			videos = append(videos, media.EpisodeRecord{
				ID:       contentid.EncodeEpisode(prefix, numericID, slug, season.Number, ep.Number),
				Title:    title,
				Released: released,
				Season:   season.Number,
				Episode:  ep.Number,
			})
		}
	}

	return videos
}

func firstPresent(opts ...mo.Option[time.Time]) mo.Option[time.Time] {
	found, ok := lo.Find(opts, func(o mo.Option[time.Time]) bool { return o.IsPresent() })
	if !ok {
		return mo.None[time.Time]()
	}
	return found
}

// parseDate accepts any of dateLayouts. Empty or unparseable input is absent.
func parseDate(s string) mo.Option[time.Time] {
	s = strings.TrimSpace(s)
	if s == "" {
		return mo.None[time.Time]()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return mo.Some(t.UTC())
		}
	}
	return mo.None[time.Time]()
}

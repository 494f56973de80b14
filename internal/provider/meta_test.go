package provider

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestExpandEpisodesSynthesizesCount(t *testing.T) {
	seasons := []seasonSource{{Number: 1, Count: 3}}

	videos := expandEpisodes("sc", "8451", "poirot", mo.None[time.Time](), seasons, clock)
	require.Len(t, videos, 3)

	for i, v := range videos {
		assert.Equal(t, 1, v.Season)
		assert.Equal(t, i+1, v.Episode)
	}
	assert.Equal(t, "Episode 2", videos[1].Title)
	assert.Equal(t, "sc8451-poirot--1-2", videos[1].ID)
}

func TestExpandEpisodesListedEpisodesWin(t *testing.T) {
	seasons := []seasonSource{{
		Number: 2,
		Count:  10,
		Episodes: []episodeSource{
			{Number: 1, Title: "The Adventure of the Clapham Cook"},
			{Number: 2},
		},
	}}

	videos := expandEpisodes("sc", "8451", "poirot", mo.None[time.Time](), seasons, clock)
	require.Len(t, videos, 2)
	assert.Equal(t, "The Adventure of the Clapham Cook", videos[0].Title)
	assert.Equal(t, "Episode 2", videos[1].Title)
	assert.Equal(t, "sc8451-poirot--2-1", videos[0].ID)
}

func TestExpandEpisodesReleaseDateFallback(t *testing.T) {
	title := mo.Some(day("1989-01-08"))

	tests := []struct {
		name    string
		season  mo.Option[time.Time]
		episode mo.Option[time.Time]
		title   mo.Option[time.Time]
		want    time.Time
	}{
		{"episode date", mo.Some(day("1990-01-07")), mo.Some(day("1990-01-14")), title, day("1990-01-14")},
		{"season date", mo.Some(day("1990-01-07")), mo.None[time.Time](), title, day("1990-01-07")},
		{"title date", mo.None[time.Time](), mo.None[time.Time](), title, day("1989-01-08")},
		{"now", mo.None[time.Time](), mo.None[time.Time](), mo.None[time.Time](), fixedNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seasons := []seasonSource{{
				Number:   1,
				Released: tt.season,
				Episodes: []episodeSource{{Number: 1, Released: tt.episode}},
			}}

			videos := expandEpisodes("sc", "1", "x", tt.title, seasons, clock)
			require.Len(t, videos, 1)
			assert.True(t, tt.want.Equal(videos[0].Released), "got %v", videos[0].Released)
		})
	}
}

func TestExpandEpisodesSeasonDateForSynthesized(t *testing.T) {
	seasons := []seasonSource{{Number: 1, Count: 2, Released: mo.Some(day("2013-06-09"))}}

	videos := expandEpisodes("sc", "8451", "poirot", mo.Some(day("1989-01-08")), seasons, clock)
	require.Len(t, videos, 2)
	for _, v := range videos {
		assert.True(t, day("2013-06-09").Equal(v.Released))
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want mo.Option[time.Time]
	}{
		{"2013-06-09", mo.Some(day("2013-06-09"))},
		{"2020-04-04 10:30:00", mo.Some(time.Date(2020, 4, 4, 10, 30, 0, 0, time.UTC))},
		{"2020-04-04T10:30:00Z", mo.Some(time.Date(2020, 4, 4, 10, 30, 0, 0, time.UTC))},
		{"", mo.None[time.Time]()},
		{"Primavera 2020", mo.None[time.Time]()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseDate(tt.in)
			require.Equal(t, tt.want.IsPresent(), got.IsPresent())
			if tt.want.IsPresent() {
				assert.True(t, tt.want.MustGet().Equal(got.MustGet()))
			}
		})
	}
}

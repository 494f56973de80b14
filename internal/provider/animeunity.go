package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"unity/internal/contentid"
	"unity/internal/httputil"
	"unity/internal/media"
	"unity/internal/schema"
)

const (
	DefaultAnimeUnityBase = "https://www.animeunity.so"

	animeUnityPrefix = "au"

	// episodeWindow is the largest range the episode endpoint serves at once.
	episodeWindow = 120
)

// AnimeUnity implements the Provider interface for AnimeUnity. Episode
// records carry direct video links, so no session or embed unwrapping is
// needed.
type AnimeUnity struct {
	base   string
	client *http.Client
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewAnimeUnity creates a new AnimeUnity provider.
func NewAnimeUnity(opts Options) *AnimeUnity {
	o := opts.withDefaults()
	return &AnimeUnity{
		base:   strings.TrimRight(lo.Ternary(o.BaseURL != "", o.BaseURL, DefaultAnimeUnityBase), "/"),
		client: o.Client,
		log:    o.Log.WithField("provider", animeUnityPrefix),
		now:    o.Now,
	}
}

func (a *AnimeUnity) Name() string   { return "AnimeUnity" }
func (a *AnimeUnity) Prefix() string { return animeUnityPrefix }

func (a *AnimeUnity) Catalog() media.CatalogDef {
	return media.CatalogDef{ID: "unity", Name: "AnimeUnity", Type: media.Series}
}

// Search posts the title to the live search endpoint. Upstream status, JSON
// and shape problems are logged and yield no results.
func (a *AnimeUnity) Search(ctx context.Context, title string) ([]media.CatalogRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []media.CatalogRecord{}, nil
	}
	log := a.log.WithFields(logrus.Fields{"op": "search", "query": title})

	form := url.Values{"title": {title}}
	req, err := httputil.NewRequest(ctx, http.MethodPost, a.base+"/livesearch", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", title, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", a.base+"/")

	body, err := httputil.Fetch(a.client, req)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			log.WithError(err).Warn("search failed upstream")
			return []media.CatalogRecord{}, nil
		}
		return nil, fmt.Errorf("searching for %q: %w", title, err)
	}

	resp, err := schema.Decode[auSearchResponse]("animeunity search", body).Get()
	if err != nil {
		log.WithError(err).Warn("discarding malformed search response")
		return []media.CatalogRecord{}, nil
	}

	records := lo.Map(resp.Records, func(r auAnime, _ int) media.CatalogRecord {
		return media.CatalogRecord{
			Title:    r.displayTitle(),
			ID:       contentid.Encode(animeUnityPrefix, strconv.Itoa(r.ID), r.Slug),
			ImageURL: r.ImageURL,
			Type:     auContentType(r.Type),
		}
	})
	log.WithField("results", len(records)).Debug("search complete")

	return records, nil
}

// GetMeta resolves an anime and its episodes, mapped to a single season.
func (a *AnimeUnity) GetMeta(ctx context.Context, id string) (media.MetaRecord, error) {
	meta, err := a.resolveMeta(ctx, id)
	if err != nil {
		return media.MetaRecord{}, resolutionError(a.Name(), StageMeta, id, err)
	}
	return meta, nil
}

func (a *AnimeUnity) resolveMeta(ctx context.Context, id string) (media.MetaRecord, error) {
	p, err := contentid.DecodeNumericAndSlug(id)
	if err != nil {
		return media.MetaRecord{}, err
	}

	body, err := httputil.GetJSON(ctx, a.client, httputil.BuildURL(a.base, "info_api", p.NumericID, "0"))
	if err != nil {
		return media.MetaRecord{}, fmt.Errorf("fetching anime: %w", err)
	}

	anime, err := schema.Decode[auAnimeResponse]("animeunity anime", body).Get()
	if err != nil {
		return media.MetaRecord{}, err
	}

	meta := media.MetaRecord{
		ID:          contentid.Encode(animeUnityPrefix, p.NumericID, p.Slug),
		Name:        anime.displayTitle(),
		Type:        auContentType(anime.Type),
		Poster:      anime.ImageURL,
		Background:  anime.Cover,
		Description: strings.TrimSpace(anime.Plot),
	}
	if meta.Type != media.Series {
		return meta, nil
	}

	episodes, err := a.fetchEpisodes(ctx, p.NumericID, 1, anime.EpisodesCount)
	if err != nil {
		return media.MetaRecord{}, err
	}

	season := seasonSource{
		Number: 1,
		Count:  anime.EpisodesCount,
		Episodes: lo.FilterMap(episodes, func(e auEpisode, _ int) (episodeSource, bool) {
			n, ok := e.number()
			if !ok {
				a.log.WithFields(logrus.Fields{"id": id, "number": e.Number}).Debug("skipping episode with non-integer number")
			}
			return episodeSource{Number: n, Released: parseDate(e.CreatedAt)}, ok
		}),
	}
	meta.Videos = expandEpisodes(animeUnityPrefix, p.NumericID, p.Slug, parseDate(anime.Date), []seasonSource{season}, a.now)

	return meta, nil
}

// GetStreams returns the direct video link of one episode. IDs without an
// episode suffix resolve to episode 1.
func (a *AnimeUnity) GetStreams(ctx context.Context, id string) ([]media.StreamDescriptor, error) {
	stream, err := a.resolveStream(ctx, id)
	if err != nil {
		return nil, resolutionError(a.Name(), StageStreams, id, err)
	}
	return []media.StreamDescriptor{stream}, nil
}

func (a *AnimeUnity) resolveStream(ctx context.Context, id string) (media.StreamDescriptor, error) {
	p, err := contentid.Parse(id)
	if err != nil {
		return media.StreamDescriptor{}, err
	}

	number := 1
	if p.HasEpisode {
		number = p.Episode
	}

	episodes, err := a.fetchEpisodes(ctx, p.NumericID, number, number)
	if err != nil {
		return media.StreamDescriptor{}, err
	}

	ep, ok := lo.Find(episodes, func(e auEpisode) bool {
		n, ok := e.number()
		return ok && n == number
	})
	if !ok {
		return media.StreamDescriptor{}, fmt.Errorf("%w: episode %d", ErrEpisodeNotFound, number)
	}
	if strings.TrimSpace(ep.Link) == "" {
		return media.StreamDescriptor{}, fmt.Errorf("%w: episode %d", ErrStreamLinkNotFound, number)
	}

	a.log.WithFields(logrus.Fields{"op": "streams", "id": id}).Debug("resolved direct link")

	return media.StreamDescriptor{
		Name:  a.Name(),
		Title: fmt.Sprintf("Episode %d", number),
		URL:   strings.TrimSpace(ep.Link),
	}, nil
}

// fetchEpisodes reads episodes first..last in windows the endpoint accepts.
func (a *AnimeUnity) fetchEpisodes(ctx context.Context, numericID string, first, last int) ([]auEpisode, error) {
	var all []auEpisode

	for start := first; start <= last; start += episodeWindow {
		end := min(start+episodeWindow-1, last)
		q := url.Values{
			"start_range": {strconv.Itoa(start)},
			"end_range":   {strconv.Itoa(end)},
		}
		rawURL := httputil.BuildURL(a.base, "info_api", numericID, "1") + "?" + q.Encode()

		body, err := httputil.GetJSON(ctx, a.client, rawURL)
		if err != nil {
			return nil, fmt.Errorf("fetching episodes %d-%d: %w", start, end, err)
		}

		resp, err := schema.Decode[auEpisodesResponse]("animeunity episodes", body).Get()
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Episodes...)
	}

	return all, nil
}

func auContentType(t string) media.ContentType {
	if strings.EqualFold(t, "movie") {
		return media.Movie
	}
	return media.Series
}

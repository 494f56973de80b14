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
	"unity/internal/extract"
	"unity/internal/httputil"
	"unity/internal/media"
	"unity/internal/schema"
	"unity/internal/session"
)

const (
	DefaultStreamingCommunityBase = "https://streamingcommunityz.ch"
	DefaultStreamingCommunityCDN  = "https://cdn.streamingcommunityz.ch"
	DefaultEmbedBase              = "https://vixcloud.co"
	DefaultLocale                 = "it"

	streamingCommunityPrefix = "sc"
	streamingCommunityCookie = "streamingcommunity_session"
)

// StreamingCommunityOptions configures the StreamingCommunity provider.
type StreamingCommunityOptions struct {
	Options

	CDN       string // image host, e.g. "https://cdn.streamingcommunityz.ch"
	EmbedBase string // player host linked from iframe pages
	Locale    string // path prefix and playlist language, e.g. "it"
}

// StreamingCommunity implements the Provider interface for StreamingCommunity.
// Every call negotiates its own session.
type StreamingCommunity struct {
	base       string
	cdn        string
	embedBase  string
	locale     string
	client     *http.Client
	log        logrus.FieldLogger
	now        func() time.Time
	negotiator *session.Negotiator
	extractor  extract.Extractor
}

// NewStreamingCommunity creates a new StreamingCommunity provider.
func NewStreamingCommunity(opts StreamingCommunityOptions) *StreamingCommunity {
	o := opts.Options.withDefaults()
	base := strings.TrimRight(lo.Ternary(o.BaseURL != "", o.BaseURL, DefaultStreamingCommunityBase), "/")
	locale := lo.Ternary(opts.Locale != "", opts.Locale, DefaultLocale)
	log := o.Log.WithField("provider", streamingCommunityPrefix)

	return &StreamingCommunity{
		base:       base,
		cdn:        strings.TrimRight(lo.Ternary(opts.CDN != "", opts.CDN, DefaultStreamingCommunityCDN), "/"),
		embedBase:  lo.Ternary(opts.EmbedBase != "", opts.EmbedBase, DefaultEmbedBase),
		locale:     locale,
		client:     o.Client,
		log:        log,
		now:        o.Now,
		negotiator: session.NewNegotiator(o.Client, base, streamingCommunityCookie),
		extractor:  extract.NewVixCloud(o.Client, locale, log),
	}
}

func (s *StreamingCommunity) Name() string   { return "StreamingCommunity" }
func (s *StreamingCommunity) Prefix() string { return streamingCommunityPrefix }

func (s *StreamingCommunity) Catalog() media.CatalogDef {
	return media.CatalogDef{ID: "streamingcommunity", Name: "StreamingCommunity", Type: media.Series}
}

// Search queries the site's Inertia search endpoint. Upstream status, JSON
// and shape problems are logged and yield no results.
func (s *StreamingCommunity) Search(ctx context.Context, title string) ([]media.CatalogRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []media.CatalogRecord{}, nil
	}
	log := s.log.WithFields(logrus.Fields{"op": "search", "query": title})

	sess, err := s.negotiator.Negotiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", title, err)
	}

	searchURL := httputil.BuildURL(s.base, s.locale, "search") + "?" + url.Values{"q": {title}}.Encode()
	body, err := s.fetchInertia(ctx, sess, searchURL)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			log.WithError(err).Warn("search failed upstream")
			return []media.CatalogRecord{}, nil
		}
		return nil, fmt.Errorf("searching for %q: %w", title, err)
	}

	resp, err := schema.Decode[scSearchResponse]("streamingcommunity search", body).Get()
	if err != nil {
		log.WithError(err).Warn("discarding malformed search response")
		return []media.CatalogRecord{}, nil
	}

	records := lo.Map(resp.Props.Titles, func(t scTitle, _ int) media.CatalogRecord {
		return media.CatalogRecord{
			Title:    t.Name,
			ID:       contentid.Encode(streamingCommunityPrefix, strconv.Itoa(t.ID), t.Slug),
			ImageURL: s.imageURL(t.Images, "poster"),
			Type:     scContentType(t.Type),
		}
	})
	log.WithField("results", len(records)).Debug("search complete")

	return records, nil
}

// GetMeta resolves a title and, for series, its episode list.
func (s *StreamingCommunity) GetMeta(ctx context.Context, id string) (media.MetaRecord, error) {
	meta, err := s.resolveMeta(ctx, id)
	if err != nil {
		return media.MetaRecord{}, resolutionError(s.Name(), StageMeta, id, err)
	}
	return meta, nil
}

func (s *StreamingCommunity) resolveMeta(ctx context.Context, id string) (media.MetaRecord, error) {
	p, err := contentid.DecodeNumericAndSlug(id)
	if err != nil {
		return media.MetaRecord{}, err
	}

	sess, err := s.negotiator.Negotiate(ctx)
	if err != nil {
		return media.MetaRecord{}, err
	}

	body, err := s.fetchInertia(ctx, sess, s.titleURL(p))
	if err != nil {
		return media.MetaRecord{}, fmt.Errorf("fetching title: %w", err)
	}

	resp, err := schema.Decode[scTitleResponse]("streamingcommunity title", body).Get()
	if err != nil {
		return media.MetaRecord{}, err
	}
	t := resp.Props.Title

	meta := media.MetaRecord{
		ID:          contentid.Encode(streamingCommunityPrefix, p.NumericID, p.Slug),
		Name:        t.Name,
		Type:        scContentType(t.Type),
		Poster:      s.imageURL(t.Images, "poster"),
		Background:  s.imageURL(t.Images, "background", "cover"),
		Description: strings.TrimSpace(t.Plot),
	}
	if meta.Type != media.Series {
		return meta, nil
	}

	seasons := lo.Map(t.Seasons, func(season scSeason, _ int) seasonSource {
		src := seasonSource{
			Number:   season.Number,
			Released: parseDate(season.ReleaseDate),
			Count:    season.EpisodesCount,
			Episodes: scEpisodeSources(season.Episodes),
		}
		if len(src.Episodes) == 0 && resp.Props.LoadedSeason != nil && resp.Props.LoadedSeason.Number == season.Number {
			src.Episodes = scEpisodeSources(resp.Props.LoadedSeason.Episodes)
		}
		return src
	})
	meta.Videos = expandEpisodes(streamingCommunityPrefix, p.NumericID, p.Slug, parseDate(t.ReleaseDate), seasons, s.now)

	return meta, nil
}

// GetStreams unwraps the iframe page, the embed player and the master
// playlist into a single adaptive stream.
func (s *StreamingCommunity) GetStreams(ctx context.Context, id string) ([]media.StreamDescriptor, error) {
	stream, err := s.resolveStream(ctx, id)
	if err != nil {
		return nil, resolutionError(s.Name(), StageStreams, id, err)
	}
	return []media.StreamDescriptor{stream}, nil
}

func (s *StreamingCommunity) resolveStream(ctx context.Context, id string) (media.StreamDescriptor, error) {
	p, err := contentid.Parse(id)
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	log := s.log.WithFields(logrus.Fields{"op": "streams", "id": id})

	iframeURL := httputil.BuildURL(s.base, s.locale, "iframe", p.NumericID)
	if p.HasEpisode {
		episodeID, err := s.episodeID(ctx, id, p)
		if err != nil {
			return media.StreamDescriptor{}, err
		}
		iframeURL += "?" + url.Values{"episode_id": {episodeID}, "next_episode": {"1"}}.Encode()
	}

	page, err := httputil.GetText(ctx, s.client, iframeURL)
	if err != nil {
		return media.StreamDescriptor{}, fmt.Errorf("fetching iframe page: %w", err)
	}

	embedURL, err := extract.EmbedURL(page, s.embedBase)
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	log.WithField("embed", embedURL).Debug("found embed player")

	stream, err := s.extractor.Extract(ctx, embedURL)
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	stream.Name = s.Name()
	stream.Title = strings.ToUpper(s.locale) + " · HLS"

	return stream, nil
}

// episodeID looks up the site's episode ID for a season/episode pair.
func (s *StreamingCommunity) episodeID(ctx context.Context, id string, p contentid.Parts) (string, error) {
	if p.Slug == "" {
		return "", &contentid.InvalidIdentifierError{ID: id, Reason: "missing slug"}
	}

	sess, err := s.negotiator.Negotiate(ctx)
	if err != nil {
		return "", err
	}

	seasonURL := s.titleURL(p) + "/season-" + strconv.Itoa(p.Season)
	body, err := s.fetchInertia(ctx, sess, seasonURL)
	if err != nil {
		return "", fmt.Errorf("fetching season %d: %w", p.Season, err)
	}

	resp, err := schema.Decode[scSeasonResponse]("streamingcommunity season", body).Get()
	if err != nil {
		return "", err
	}

	ep, ok := lo.Find(resp.Props.LoadedSeason.Episodes, func(e scEpisode) bool {
		return e.Number == p.Episode
	})
	if !ok {
		return "", fmt.Errorf("%w: season %d episode %d", ErrEpisodeNotFound, p.Season, p.Episode)
	}
	return strconv.Itoa(ep.ID), nil
}

func (s *StreamingCommunity) titleURL(p contentid.Parts) string {
	return httputil.BuildURL(s.base, s.locale, "titles", p.NumericID+"-"+p.Slug)
}

// fetchInertia performs a session-bearing Inertia request.
func (s *StreamingCommunity) fetchInertia(ctx context.Context, sess session.Context, rawURL string) ([]byte, error) {
	req, err := httputil.NewRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	sess.Apply(req)
	req.Header.Set("Referer", s.base+"/")

	return httputil.Fetch(s.client, req)
}

// imageURL returns the CDN URL of the first image whose type is one of kinds.
func (s *StreamingCommunity) imageURL(images []scImage, kinds ...string) string {
	for _, kind := range kinds {
		img, ok := lo.Find(images, func(i scImage) bool {
			return i.Type == kind && i.Filename != ""
		})
		if ok {
			return s.cdn + "/images/" + img.Filename
		}
	}
	return ""
}

func scContentType(t string) media.ContentType {
	if t == "tv" {
		return media.Series
	}
	return media.Movie
}

func scEpisodeSources(episodes []scEpisode) []episodeSource {
	return lo.Map(episodes, func(e scEpisode, _ int) episodeSource {
		return episodeSource{
			Number:   e.Number,
			Title:    e.Name,
			Released: parseDate(e.ReleaseDate),
		}
	})
}

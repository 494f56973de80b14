package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"unity/internal/contentid"
	"unity/internal/media"
	"unity/internal/provider"
	"unity/internal/ui"
)

// providerResults groups one provider's search results.
type providerResults struct {
	Provider provider.Provider
	Records  []media.CatalogRecord
}

// searchAll queries every provider concurrently. A failing provider is
// logged and contributes no results.
func searchAll(ctx context.Context, reg *provider.Registry, query string) []providerResults {
	providers := reg.Providers()
	results := make([]providerResults, len(providers))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			records, err := p.Search(ctx, query)
			if err != nil {
				log.WithError(err).WithField("provider", p.Prefix()).Warn("search failed")
			}
			results[i] = providerResults{Provider: p, Records: records}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// lookupID resolves arg as a content identifier. ok is false when arg is not
// one, which lets "scrubs" be searched rather than routed to the "sc" provider.
func lookupID(reg *provider.Registry, arg string) (p provider.Provider, bare string, ok bool) {
	p, bare, err := reg.Lookup(arg)
	if err != nil {
		return nil, "", false
	}
	if _, err := contentid.Parse(bare); err != nil {
		return nil, "", false
	}
	return p, bare, true
}

// selection is the outcome of the interactive pick: a provider, the bare ID
// to resolve streams for, and a display title.
type selection struct {
	Provider provider.Provider
	ID       string
	Title    string
}

// choose resolves arg to a single playable item. arg is either a content ID
// or a search query; queries and series prompt the user through fzf.
func choose(ctx context.Context, reg *provider.Registry, arg string) (selection, error) {
	if p, bare, ok := lookupID(reg, arg); ok {
		parts, _ := contentid.Parse(bare)
		if parts.HasEpisode {
			return selection{Provider: p, ID: bare, Title: arg}, nil
		}
		return chooseEpisode(ctx, p, bare)
	}

	var (
		records []media.CatalogRecord
		owners  []provider.Provider
	)
	for _, res := range searchAll(ctx, reg, arg) {
		for _, rec := range res.Records {
			records = append(records, rec)
			owners = append(owners, res.Provider)
		}
	}
	if len(records) == 0 {
		return selection{}, fmt.Errorf("no results for %q", arg)
	}

	idx, err := ui.Select(ctx, "Select", lo.Map(records, func(rec media.CatalogRecord, _ int) string {
		return ui.CatalogLabel(rec)
	}))
	if err != nil {
		return selection{}, err
	}

	p := owners[idx]
	bare, _ := contentid.StripPrefix(records[idx].ID, p.Prefix())
	debugf("selected: %s (ID: %s)", records[idx].Title, records[idx].ID)

	return chooseEpisode(ctx, p, bare)
}

// chooseEpisode resolves a title ID. Movies resolve to themselves; series
// prompt for an episode.
func chooseEpisode(ctx context.Context, p provider.Provider, bare string) (selection, error) {
	meta, err := p.GetMeta(ctx, bare)
	if err != nil {
		return selection{}, fmt.Errorf("getting meta: %w", err)
	}
	if meta.Type != media.Series || len(meta.Videos) == 0 {
		return selection{Provider: p, ID: bare, Title: meta.Name}, nil
	}

	idx, err := ui.Select(ctx, "Episode", lo.Map(meta.Videos, func(ep media.EpisodeRecord, _ int) string {
		return ui.EpisodeLabel(ep)
	}))
	if err != nil {
		return selection{}, err
	}

	ep := meta.Videos[idx]
	epID, _ := contentid.StripPrefix(ep.ID, p.Prefix())
	return selection{
		Provider: p,
		ID:       epID,
		Title:    fmt.Sprintf("%s S%02dE%02d", meta.Name, ep.Season, ep.Episode),
	}, nil
}

// firstStream resolves the streams of sel and returns the first one.
func firstStream(ctx context.Context, sel selection) (media.StreamDescriptor, error) {
	streams, err := sel.Provider.GetStreams(ctx, sel.ID)
	if err != nil {
		return media.StreamDescriptor{}, fmt.Errorf("resolving streams: %w", err)
	}
	if len(streams) == 0 {
		return media.StreamDescriptor{}, errors.New("no streams found")
	}
	debugf("stream URL: %s", streams[0].URL)
	return streams[0], nil
}

// refererFor is the Referer the CDN of p expects from players.
func refererFor(p provider.Provider) string {
	switch p.Prefix() {
	case "sc":
		return strings.TrimRight(cfg.StreamingCommunity.EmbedBase, "/") + "/"
	case "au":
		return strings.TrimRight(cfg.AnimeUnity.Base, "/") + "/"
	}
	return ""
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

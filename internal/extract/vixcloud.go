package extract

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"unity/internal/httputil"
	"unity/internal/media"
)

// VixCloudExtractor resolves VixCloud player pages into the first HLS variant
// of their signed master playlist.
type VixCloudExtractor struct {
	client *http.Client
	lang   string
	log    logrus.FieldLogger
}

// NewVixCloud creates a VixCloudExtractor. lang is sent as the playlist's
// audio language hint.
func NewVixCloud(client *http.Client, lang string, log logrus.FieldLogger) *VixCloudExtractor {
	if client == nil {
		client = httputil.NewClient()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &VixCloudExtractor{client: client, lang: lang, log: log}
}

// Extract fetches the player page, signs its master playlist, fetches the
// manifest and returns the first variant marked as HLS.
func (v *VixCloudExtractor) Extract(ctx context.Context, embedURL string) (media.StreamDescriptor, error) {
	page, err := httputil.GetText(ctx, v.client, embedURL)
	if err != nil {
		return media.StreamDescriptor{}, fmt.Errorf("fetching player page: %w", err)
	}

	playlist, err := MasterPlaylistConfig(page)
	if err != nil {
		return media.StreamDescriptor{}, err
	}

	manifestURL, err := playlist.ManifestURL(v.lang)
	if err != nil {
		return media.StreamDescriptor{}, err
	}
	v.log.WithField("manifest", manifestURL).Debug("fetching master playlist")

	manifest, err := httputil.GetText(ctx, v.client, manifestURL)
	if err != nil {
		return media.StreamDescriptor{}, fmt.Errorf("fetching master playlist: %w", err)
	}

	variant, err := FirstVariant(manifest, manifestURL)
	if err != nil {
		return media.StreamDescriptor{}, err
	}

	return media.StreamDescriptor{
		URL:         MarkManifest(variant),
		NotWebReady: true,
	}, nil
}

package addon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unity/internal/media"
	"unity/internal/provider"
	"unity/internal/proxy"
)

// stubProvider answers from canned data and records what it was asked.
type stubProvider struct {
	prefix  string
	catalog string

	searched string
	metaID   string
	streamID string

	streams []media.StreamDescriptor
	err     error
}

func (s *stubProvider) Name() string   { return "Stub " + s.prefix }
func (s *stubProvider) Prefix() string { return s.prefix }

func (s *stubProvider) Catalog() media.CatalogDef {
	return media.CatalogDef{ID: s.catalog, Name: "Stub", Type: media.Series}
}

func (s *stubProvider) Search(_ context.Context, title string) ([]media.CatalogRecord, error) {
	s.searched = title
	if s.err != nil {
		return nil, s.err
	}
	return []media.CatalogRecord{{Title: "Poirot", ID: s.prefix + "8451-poirot", ImageURL: "https://cdn/p.jpg", Type: media.Series}}, nil
}

func (s *stubProvider) GetMeta(_ context.Context, id string) (media.MetaRecord, error) {
	s.metaID = id
	if s.err != nil {
		return media.MetaRecord{}, s.err
	}
	return media.MetaRecord{
		ID:   s.prefix + id,
		Name: "Poirot",
		Type: media.Series,
		Videos: []media.EpisodeRecord{
			{ID: s.prefix + id + "--1-1", Title: "Episode 1", Released: time.Date(1989, 1, 8, 0, 0, 0, 0, time.UTC), Season: 1, Episode: 1},
		},
	}, nil
}

func (s *stubProvider) GetStreams(_ context.Context, id string) ([]media.StreamDescriptor, error) {
	s.streamID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.streams, nil
}

func newTestServer(t *testing.T, providers ...provider.Provider) *httptest.Server {
	t.Helper()
	reg, err := provider.NewRegistry(providers...)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := NewServer(reg, Options{
		Version:   "0.0.3",
		PublicURL: "https://addon.example/",
		Proxy:     proxy.New(nil, proxy.DefaultAllowedHosts, log),
		Log:       log,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, rawURL string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp
}

func TestManifest(t *testing.T) {
	ts := newTestServer(t,
		&stubProvider{prefix: "au", catalog: "unity"},
		&stubProvider{prefix: "sc", catalog: "streamingcommunity"},
	)

	var m Manifest
	resp := getJSON(t, ts.URL+"/manifest.json", &m)

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "org.stremio.unity", m.ID)
	assert.Equal(t, "0.0.3", m.Version)
	assert.Equal(t, []string{"stream", "catalog", "meta"}, m.Resources)
	assert.Equal(t, []string{"au", "sc"}, m.IDPrefixes)
	require.Len(t, m.Catalogs, 2)
	assert.Equal(t, "unity", m.Catalogs[0].ID)
	assert.Equal(t, []Extra{{Name: "search", IsRequired: true}}, m.Catalogs[1].Extra)
}

func TestCatalogSearch(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity"}
	ts := newTestServer(t, sc)

	var body CatalogResponse
	getJSON(t, ts.URL+"/catalog/series/streamingcommunity/search="+url.PathEscape("Il Commissario")+".json", &body)

	assert.Equal(t, "Il Commissario", sc.searched)
	require.Len(t, body.Metas, 1)
	assert.Equal(t, MetaPreview{ID: "sc8451-poirot", Type: "series", Name: "Poirot", Poster: "https://cdn/p.jpg"}, body.Metas[0])
}

func TestCatalogWithoutSearchIsEmpty(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity"}
	ts := newTestServer(t, sc)

	var body CatalogResponse
	getJSON(t, ts.URL+"/catalog/series/streamingcommunity.json", &body)
	assert.NotNil(t, body.Metas)
	assert.Empty(t, body.Metas)
	assert.Empty(t, sc.searched)

	getJSON(t, ts.URL+"/catalog/series/missing/search=x.json", &body)
	assert.Empty(t, body.Metas)
}

func TestMeta(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity"}
	ts := newTestServer(t, sc)

	var body struct {
		Meta map[string]any `json:"meta"`
	}
	resp := getJSON(t, ts.URL+"/meta/series/sc8451-poirot.json", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "8451-poirot", sc.metaID)
	assert.Equal(t, "sc8451-poirot", body.Meta["id"])

	videos, ok := body.Meta["videos"].([]any)
	require.True(t, ok)
	first := videos[0].(map[string]any)
	assert.Equal(t, "1989-01-08T00:00:00Z", first["released"])
}

func TestMetaFailureIsNotFound(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity", err: errors.New("boom")}
	ts := newTestServer(t, sc)

	for _, id := range []string{"sc8451-poirot", "zz1-x"} {
		resp, err := http.Get(ts.URL + "/meta/series/" + id + ".json")
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"meta":null}`, string(raw))
	}
}

func TestStreamsProxyAllowListedHosts(t *testing.T) {
	au := &stubProvider{prefix: "au", catalog: "unity", streams: []media.StreamDescriptor{
		{Name: "AnimeUnity", Title: "Episode 2", URL: "https://au-d1-03.scws-content.net/one-piece/ep2.mp4?token=a"},
		{Name: "AnimeUnity", Title: "Mirror", URL: "https://mirror.example/ep2.mp4"},
	}}
	ts := newTestServer(t, au)

	var body StreamResponse
	getJSON(t, ts.URL+"/stream/series/au42-one-piece--1-2.json", &body)

	assert.Equal(t, "42-one-piece--1-2", au.streamID)
	require.Len(t, body.Streams, 2)
	assert.Equal(t,
		"https://addon.example/_internal/stream-proxy/"+url.PathEscape("https://au-d1-03.scws-content.net/one-piece/ep2.mp4?token=a"),
		body.Streams[0].URL)
	assert.Equal(t, "https://mirror.example/ep2.mp4", body.Streams[1].URL)
}

func TestStreamsNotWebReadyHint(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity", streams: []media.StreamDescriptor{
		{Name: "StreamingCommunity", Title: "IT · HLS", URL: "https://vixcloud.co/playlist/1?type=video#.m3u8", NotWebReady: true},
	}}
	ts := newTestServer(t, sc)

	var body StreamResponse
	getJSON(t, ts.URL+"/stream/movie/sc8451.json", &body)

	require.Len(t, body.Streams, 1)
	assert.Equal(t, "https://vixcloud.co/playlist/1?type=video#.m3u8", body.Streams[0].URL)
	require.NotNil(t, body.Streams[0].BehaviorHints)
	assert.True(t, body.Streams[0].BehaviorHints.NotWebReady)
}

func TestStreamsFailureIsEmptyList(t *testing.T) {
	sc := &stubProvider{prefix: "sc", catalog: "streamingcommunity", err: errors.New("embed URL not found")}
	ts := newTestServer(t, sc)

	resp, err := http.Get(ts.URL + "/stream/series/sc8451-poirot--1-2.json")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"streams":[]}`, string(raw))
}

func TestProxyRouteMounted(t *testing.T) {
	ts := newTestServer(t, &stubProvider{prefix: "sc", catalog: "streamingcommunity"})

	resp, err := http.Get(ts.URL + proxy.Route + url.PathEscape("https://example.com/video.mp4"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	ts := newTestServer(t, &stubProvider{prefix: "sc", catalog: "streamingcommunity"})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/manifest.json", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCatalogSearchKeepsReservedCharacters(t *testing.T) {
	tests := []struct {
		segment string
		want    string
	}{
		{"search=Tom%20%26%20Jerry.json", "Tom & Jerry"},
		{"search=C%2B%2B.json", "C++"},
		{"search=Fate%2Fzero.json", "Fate/zero"},
		{"search=100%25.json", "100%"},
		{"skip=0&search=Naruto.json", "Naruto"},
		{"search=Il%20Commissario%20Montalbano.json", "Il Commissario Montalbano"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			au := &stubProvider{prefix: "au", catalog: "unity"}
			ts := newTestServer(t, au)

			var body CatalogResponse
			resp := getJSON(t, ts.URL+"/catalog/series/unity/"+tt.segment, &body)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, au.searched)
			assert.Len(t, body.Metas, 1)
		})
	}
}

func TestSearchExtra(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"search=Poirot.json", "Poirot"},
		{"search=Tom%20%26%20Jerry.json", "Tom & Jerry"},
		{"search=C%2B%2B.json", "C++"},
		{"skip=0&search=Naruto.json", "Naruto"},
		{"search=100%.json", "100%"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, searchExtra(tt.in))
		})
	}
}

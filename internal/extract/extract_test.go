package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		base    string
		want    string
		wantErr error
	}{
		{
			name: "iframe with entities",
			page: readFixture(t, "iframe.html"),
			base: "https://vixcloud.co",
			want: "https://vixcloud.co/embed/224151?token=c3f7a1&title=Poirot&referer=1&expires=1760000000",
		},
		{
			name: "trailing slash on base",
			page: `<iframe src='https://vixcloud.co/embed/1?a=1'></iframe>`,
			base: "https://vixcloud.co/",
			want: "https://vixcloud.co/embed/1?a=1",
		},
		{
			name:    "other host only",
			page:    `<iframe src="https://example.com/embed/1"></iframe>`,
			base:    "https://vixcloud.co",
			wantErr: ErrEmbedURLNotFound,
		},
		{
			name:    "empty page",
			page:    "",
			base:    "https://vixcloud.co",
			wantErr: ErrEmbedURLNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EmbedURL(tt.page, tt.base)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMasterPlaylistConfig(t *testing.T) {
	p, err := MasterPlaylistConfig(readFixture(t, "player.html"))
	require.NoError(t, err)
	assert.Equal(t, MasterPlaylist{
		URL:     "https://vixcloud.co/playlist/224151?b=1",
		Token:   "a1b2c3d4",
		Expires: "1760000000",
		ASN:     "",
	}, p)

	compact := `window.masterPlaylist={params:{'token':'t','expires':'e','asn':'a'},url:'https://h/p'}`
	p, err = MasterPlaylistConfig(compact)
	require.NoError(t, err)
	assert.Equal(t, "https://h/p", p.URL)
	assert.Equal(t, "a", p.ASN)

	_, err = MasterPlaylistConfig(`<script>window.video = {}</script>`)
	assert.ErrorIs(t, err, ErrMasterPlaylistNotFound)
}

func TestManifestURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "existing query kept",
			url:  "https://vixcloud.co/playlist/224151?b=1",
			want: "https://vixcloud.co/playlist/224151?b=1&token=tok&expires=123&asn=&h=1&scz=1&lang=it",
		},
		{
			name: "no query",
			url:  "https://vixcloud.co/playlist/224151",
			want: "https://vixcloud.co/playlist/224151?token=tok&expires=123&asn=&h=1&scz=1&lang=it",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MasterPlaylist{URL: tt.url, Token: "tok", Expires: "123"}
			got, err := p.ManifestURL("it")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstVariant(t *testing.T) {
	got, err := FirstVariant(readFixture(t, "master.m3u8"), "https://vixcloud.co/playlist/224151?b=1")
	require.NoError(t, err)
	assert.Equal(t, "https://vixcloud.co/playlist/224151?type=video&rendition=720p&token=x", got)

	relative := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\nlow/index.m3u8\n"
	got, err = FirstVariant(relative, "https://cdn.example.com/hls/master.m3u8?t=1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hls/low/index.m3u8", got)

	media := "#EXTM3U\n#EXT-X-TARGETDURATION:10\n#EXTINF:10,\nseg0.ts\n#EXT-X-ENDLIST\n"
	_, err = FirstVariant(media, "https://cdn.example.com/hls/master.m3u8")
	assert.ErrorIs(t, err, ErrPlaylistEntryNotFound)

	_, err = FirstVariant("<html>blocked</html>", "https://cdn.example.com/hls/master.m3u8")
	assert.ErrorIs(t, err, ErrPlaylistEntryNotFound)
}

func TestMarkManifest(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://h/playlist/1?type=video", "https://h/playlist/1?type=video#.m3u8"},
		{"https://h/hls/index.m3u8", "https://h/hls/index.m3u8"},
		{"https://h/playlist/1#old", "https://h/playlist/1#.m3u8"},
		{"https://h/playlist/1#.m3u8", "https://h/playlist/1#.m3u8"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MarkManifest(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasSuffix(got, ".m3u8"))
		})
	}
}

func TestParsePageData(t *testing.T) {
	data, err := ParsePageData(strings.NewReader(readFixture(t, "title.html")))
	require.NoError(t, err)
	assert.Equal(t, "8a1f3d3ec5d9c29bb3f4c5a1a2e1e2c0", data.Version)
	assert.Equal(t, "Titles/Title", data.Component)
	assert.Equal(t, "/it/titles/8451-poirot", data.URL)
	assert.JSONEq(t, `{"title":{"id":8451,"name":"Poirot"}}`, string(data.Props))

	_, err = ParsePageData(strings.NewReader(`<html><body><div id="root"></div></body></html>`))
	assert.ErrorIs(t, err, ErrPageDataNotFound)

	_, err = ParsePageData(strings.NewReader(`<div id="app" data-page="{broken"></div>`))
	assert.ErrorIs(t, err, ErrPageDataNotFound)
}

func TestVixCloudExtract(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/224151", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<script>window.masterPlaylist = { params: { 'token': 'tok', 'expires': '99', 'asn': '', }, url: '%s/playlist/224151?b=1', }</script>`, srv.URL)
	})
	mux.HandleFunc("/playlist/224151", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("token") != "tok" || q.Get("lang") != "it" || q.Get("h") != "1" {
			http.Error(w, "unsigned", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1200000\n/playlist/224151?type=video&rendition=720p\n")
	})
	srv = httptest.NewTLSServer(mux)
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	ext := NewVixCloud(srv.Client(), "it", log)

	stream, err := ext.Extract(context.Background(), srv.URL+"/embed/224151?token=x")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/playlist/224151?type=video&rendition=720p#.m3u8", stream.URL)
	assert.True(t, stream.NotWebReady)
}

func TestVixCloudExtractMissingPlaylist(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>player moved</html>")
	}))
	defer srv.Close()

	ext := NewVixCloud(srv.Client(), "it", nil)
	_, err := ext.Extract(context.Background(), srv.URL+"/embed/1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMasterPlaylistNotFound))
}

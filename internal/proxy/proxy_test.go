package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAllows(t *testing.T) {
	p := New(nil, DefaultAllowedHosts, quietLogger())

	tests := []struct {
		url  string
		want bool
	}{
		{"https://au-d1-01.scws-content.net/vid/1.mp4", true},
		{"https://AU-D1-05.scws-content.net:443/vid/1.mp4", true},
		{"http://au-d1-03.scws-content.net/vid", true},
		{"https://au-d1-06.scws-content.net/vid", false},
		{"https://evil.example/au-d1-01.scws-content.net", false},
		{"ftp://au-d1-01.scws-content.net/vid", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allows(tt.url))
		})
	}
}

func TestWrap(t *testing.T) {
	p := New(nil, DefaultAllowedHosts, quietLogger())

	target := "https://au-d1-02.scws-content.net/vid/ep 1.mp4?token=a&b=c"
	got := p.Wrap("https://addon.example/", target)
	assert.Equal(t, "https://addon.example/_internal/stream-proxy/"+url.PathEscape(target), got)

	other := "https://vixcloud.co/playlist/1#.m3u8"
	assert.Equal(t, other, p.Wrap("https://addon.example", other))
}

func TestServeHTTPForbidden(t *testing.T) {
	var hits int
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer upstream.Close()

	p := New(upstream.Client(), DefaultAllowedHosts, quietLogger())

	req := httptest.NewRequest(http.MethodGet, Route+url.PathEscape(upstream.URL+"/video.mp4"), nil)
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, hits)
}

func TestServeHTTPPassthrough(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=0-99", r.Header.Get("Range"))
		assert.Equal(t, "https://www.animeunity.so/", r.Header.Get("Referer"))
		assert.Empty(t, r.Header.Get("Proxy-Authorization"))
		assert.Equal(t, "/video.mp4", r.URL.Path)
		assert.Equal(t, "token=abc", r.URL.RawQuery)

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Range", "bytes 0-99/1000")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusPartialContent)
		fmt.Fprint(w, "partial-body")
	}))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	p := New(upstream.Client(), []string{u.Hostname()}, quietLogger())

	req := httptest.NewRequest(http.MethodGet, Route+url.PathEscape(upstream.URL+"/video.mp4?token=abc"), nil)
	req.Header.Set("Range", "bytes=0-99")
	req.Header.Set("Referer", "https://www.animeunity.so/")
	req.Header.Set("Proxy-Authorization", "secret")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "partial-body", rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes 0-99/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "yes", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeHTTPUpstreamStatusPassesThrough(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	p := New(upstream.Client(), []string{u.Hostname()}, quietLogger())

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Route+url.PathEscape(upstream.URL+"/x"), nil))
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestServeHTTPMissingTarget(t *testing.T) {
	p := New(nil, DefaultAllowedHosts, quietLogger())

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Route, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHTTPRejectsWriteMethods(t *testing.T) {
	var hits int
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	p := New(upstream.Client(), []string{u.Hostname()}, quietLogger())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, httptest.NewRequest(method, Route+url.PathEscape(upstream.URL+"/video.mp4"), nil))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
		})
	}
	assert.Zero(t, hits)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, Route+url.PathEscape(upstream.URL+"/video.mp4"), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)
}

// Package addon serves the Stremio addon protocol on top of the provider
// registry: manifest, catalog search, meta and streams.
package addon

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"unity/internal/media"
	"unity/internal/provider"
	"unity/internal/proxy"
)

// Options configures a Server.
type Options struct {
	Version string

	// PublicURL is the externally reachable base of this server, used to
	// build proxied stream URLs.
	PublicURL string

	// Proxy, when set, is mounted on proxy.Route and wraps allow-listed
	// stream URLs.
	Proxy *proxy.Proxy

	Log logrus.FieldLogger
}

// Server represents the Stremio addon HTTP server
type Server struct {
	registry  *provider.Registry
	manifest  Manifest
	publicURL string
	proxy     *proxy.Proxy
	log       logrus.FieldLogger
}

// NewServer creates a new Stremio addon server
func NewServer(reg *provider.Registry, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		registry:  reg,
		manifest:  NewManifest(reg, opts.Version),
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		proxy:     opts.Proxy,
		log:       log.WithField("component", "addon"),
	}
}

// Manifest returns the manifest served on /manifest.json.
func (s *Server) Manifest() Manifest {
	return s.manifest
}

// Handler returns the addon's routes wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /manifest.json", s.handleManifest)
	mux.HandleFunc("GET /catalog/{type}/{id}", s.handleCatalog)
	mux.HandleFunc("GET /catalog/{type}/{id}/{extra}", s.handleCatalog)
	mux.HandleFunc("GET /meta/{type}/{id}", s.handleMeta)
	mux.HandleFunc("GET /stream/{type}/{id}", s.handleStream)
	mux.HandleFunc("GET /health", s.handleHealth)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Proxied URLs contain "//" once unescaped, which the mux would
		// clean and redirect.
		if s.proxy != nil && strings.HasPrefix(r.URL.Path, proxy.Route) {
			s.proxy.ServeHTTP(w, r)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	s.log.WithField("remote", r.RemoteAddr).Debug("manifest request")
	writeJSON(w, http.StatusOK, s.manifest)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"addon":  s.manifest.ID,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalogID := trimJSON(r.PathValue("id"))
	search := searchExtra(rawExtra(r))
	log := s.log.WithFields(logrus.Fields{"op": "catalog", "catalog": catalogID, "query": search})

	empty := CatalogResponse{Metas: []MetaPreview{}}

	p, ok := s.registry.ByCatalog(catalogID)
	if !ok {
		log.Debug("unknown catalog")
		writeJSON(w, http.StatusOK, empty)
		return
	}
	if search == "" {
		writeJSON(w, http.StatusOK, empty)
		return
	}

	records, err := p.Search(r.Context(), search)
	if err != nil {
		log.WithError(err).Error("catalog search failed")
		writeJSON(w, http.StatusOK, empty)
		return
	}

	writeJSON(w, http.StatusOK, CatalogResponse{
		Metas: lo.Map(records, func(rec media.CatalogRecord, _ int) MetaPreview {
			return MetaPreview{
				ID:     rec.ID,
				Type:   rec.Type.String(),
				Name:   rec.Title,
				Poster: rec.ImageURL,
			}
		}),
	})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	id := trimJSON(r.PathValue("id"))
	log := s.log.WithFields(logrus.Fields{"op": "meta", "id": id})

	p, bare, err := s.registry.Lookup(id)
	if err != nil {
		log.WithError(err).Debug("meta request for unknown prefix")
		writeJSON(w, http.StatusNotFound, MetaResponse{})
		return
	}

	meta, err := p.GetMeta(r.Context(), bare)
	if err != nil {
		log.WithError(err).Error("meta resolution failed")
		writeJSON(w, http.StatusNotFound, MetaResponse{})
		return
	}

	writeJSON(w, http.StatusOK, MetaResponse{Meta: &meta})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := trimJSON(r.PathValue("id"))
	log := s.log.WithFields(logrus.Fields{"op": "streams", "id": id})

	empty := StreamResponse{Streams: []Stream{}}

	p, bare, err := s.registry.Lookup(id)
	if err != nil {
		log.WithError(err).Debug("stream request for unknown prefix")
		writeJSON(w, http.StatusOK, empty)
		return
	}

	streams, err := p.GetStreams(r.Context(), bare)
	if err != nil {
		log.WithError(err).Error("stream resolution failed")
		writeJSON(w, http.StatusOK, empty)
		return
	}

	writeJSON(w, http.StatusOK, StreamResponse{
		Streams: lo.Map(streams, func(sd media.StreamDescriptor, _ int) Stream {
			return s.toStream(p, sd)
		}),
	})
}

func (s *Server) toStream(p provider.Provider, sd media.StreamDescriptor) Stream {
	streamURL := sd.URL
	if s.proxy != nil && s.publicURL != "" {
		streamURL = s.proxy.Wrap(s.publicURL, streamURL)
	}

	st := Stream{URL: streamURL, Name: sd.Name, Title: sd.Title}
	hints := BehaviorHints{NotWebReady: sd.NotWebReady, BingeGroup: "unity-" + p.Prefix()}
	st.BehaviorHints = &hints
	return st
}

// rawExtra returns the extra segment as sent, still escaped. PathValue is
// already unescaped, so "%26" inside a title would read as a separator.
func rawExtra(r *http.Request) string {
	if r.PathValue("extra") == "" {
		return ""
	}
	escaped := r.URL.EscapedPath()
	return escaped[strings.LastIndex(escaped, "/")+1:]
}

// searchExtra reads the search value out of an escaped extra segment such as
// "search=Tom%20%26%20Jerry.json".
func searchExtra(extra string) string {
	extra = trimJSON(extra)
	if extra == "" {
		return ""
	}
	values, err := url.ParseQuery(extra)
	if err != nil {
		_, v, _ := strings.Cut(extra, "search=")
		if unescaped, err := url.PathUnescape(v); err == nil {
			v = unescaped
		}
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(values.Get("search"))
}

func trimJSON(s string) string {
	return strings.TrimSuffix(s, ".json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

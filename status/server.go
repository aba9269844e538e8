// Package status exposes a read-only JSON diagnostics API over the running
// endpoint layer: per-endpoint counter/liveness snapshots and the set of
// discovered external devices. It deliberately has no control surface.
package status

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/peregrinehq/airlink/discovery"
	"github.com/peregrinehq/airlink/mavlink"
)

// EndpointSource provides snapshots of the live endpoints.
type EndpointSource interface {
	Endpoints() []mavlink.Info
}

// Server serves the diagnostics API.
type Server struct {
	source   EndpointSource
	registry *discovery.Registry
	router   chi.Router
}

// NewServer builds the router. registry may be nil when discovery is not in
// use.
func NewServer(source EndpointSource, registry *discovery.Registry) *Server {
	s := &Server{
		source:   source,
		registry: registry,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/endpoints", s.handleEndpoints)
		r.Get("/devices", s.handleDevices)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves the API on addr. It blocks like http.ListenAndServe.
func (s *Server) ListenAndServe(addr string) error {
	logrus.WithFields(logrus.Fields{
		"component": "StatusServer",
		"listen":    addr,
	}).Info("Serving diagnostics API")
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	infos := s.source.Endpoints()
	if infos == nil {
		infos = []mavlink.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

type deviceEntry struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	out := []deviceEntry{}
	if s.registry != nil {
		for _, d := range s.registry.Devices() {
			out = append(out, deviceEntry{
				Kind:    string(d.Kind),
				Name:    d.Name,
				Address: d.Address,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "StatusServer",
			"error":     err.Error(),
		}).Debug("Failed to encode response")
	}
}

// Package httpapi exposes the harness state over HTTP: available
// platforms, adapter status, suites and execution profiles. Read-only by
// design; test execution stays in the CLI.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/hal"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/platform"
	"github.com/dhavalhparikh/vortex-automotive-framework/pkg/testreg"
)

// Server bundles the components the API reads from.
type Server struct {
	loader   *platform.Loader
	registry *hal.Registry
	resolver *testreg.Resolver
}

// NewServer builds the API server over the given components.
func NewServer(loader *platform.Loader, registry *hal.Registry, resolver *testreg.Resolver) *Server {
	return &Server{loader: loader, registry: registry, resolver: resolver}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/platforms", s.listPlatforms)
		r.Get("/platforms/current", s.currentPlatform)
		r.Get("/adapters", s.listAdapters)
		r.Get("/adapters/{name}", s.describeAdapter)
		r.Get("/suites", s.listSuites)
		r.Get("/profiles", s.listProfiles)
		r.Get("/profiles/{name}/tests", s.profileTests)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listPlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"platforms": s.loader.ListAvailablePlatforms(),
	})
}

func (s *Server) currentPlatform(w http.ResponseWriter, _ *http.Request) {
	cfg, err := s.loader.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	interfaces := make([]string, 0, len(cfg.Interfaces))
	for name := range cfg.Interfaces {
		interfaces = append(interfaces, name)
	}
	sort.Strings(interfaces)
	writeJSON(w, http.StatusOK, map[string]any{
		"platform":        cfg.Platform,
		"interfaces":      interfaces,
		"mock":            s.loader.IsMockPlatform(),
		"test_parameters": cfg.TestParameters,
	})
}

func (s *Server) listAdapters(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.ListAvailable()
	descriptions := make([]hal.Description, 0, len(names))
	for _, name := range names {
		descriptions = append(descriptions, s.registry.Describe(name))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.registry.SessionID(),
		"adapters":   descriptions,
	})
}

func (s *Server) describeAdapter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	desc := s.registry.Describe(name)
	if !desc.Configured && !desc.Available {
		writeError(w, http.StatusNotFound, "unknown adapter: "+name)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) listSuites(w http.ResponseWriter, _ *http.Request) {
	suites, err := s.resolver.Suites()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suites": suites})
}

func (s *Server) listProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles, err := s.resolver.Profiles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// testView is the JSON shape of one resolved test.
type testView struct {
	Name             string   `json:"name"`
	Suite            string   `json:"suite"`
	Category         string   `json:"category"`
	Priority         string   `json:"priority"`
	Description      string   `json:"description,omitempty"`
	Platforms        []string `json:"platforms"`
	RequiresHardware bool     `json:"requires_hardware"`
	MaxDuration      string   `json:"max_duration,omitempty"`
	Tags             []string `json:"tags"`
}

func (s *Server) profileTests(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	registry, err := s.resolver.ResolveProfile(name)
	if err != nil {
		if errors.Is(err, testreg.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tests := make([]testView, 0, len(registry))
	for _, md := range testreg.All(registry) {
		tests = append(tests, toView(md))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": name,
		"tests":   tests,
	})
}

func toView(md testreg.TestMetadata) testView {
	platforms := md.Platforms.ToSlice()
	sort.Strings(platforms)
	tags := testreg.Tags(md).ToSlice()
	sort.Strings(tags)
	return testView{
		Name:             md.Name,
		Suite:            md.Suite,
		Category:         md.Category,
		Priority:         md.Priority,
		Description:      md.Description,
		Platforms:        platforms,
		RequiresHardware: md.RequiresHardware,
		MaxDuration:      md.MaxDuration,
		Tags:             tags,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package server provides the HTTP server for MuggleWand: the spell book
// API, live state, the event stream and sample ingest.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/app"
	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/pipeline"
	"github.com/ayusman/mugglewand/internal/server/api"
	"github.com/ayusman/mugglewand/internal/store"
)

// Config holds the server configuration. Every collaborator is optional;
// routes for missing ones are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Hub       *Hub
	Ingest    *capture.ChanSource
	Logger    logrus.FieldLogger
}

// Server represents the HTTP server for the MuggleWand application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    *logrus.Entry
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    logger.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		var reloader api.Reloader
		length := gesture.DefaultCapacity
		if s.config.App != nil {
			reloader = s.config.App
			length = len(s.config.App.State().Queue)
		}

		spells := api.NewSpellHandler(s.config.Store, length, reloader)
		s.mux.Handle("/api/spells", spells)
		s.mux.Handle("/api/spells/", spells)

		actions := api.NewActionHandler(s.config.Store)
		s.mux.Handle("/api/actions", actions)
		s.mux.Handle("/api/actions/", actions)

		casts := api.NewCastHandler(s.config.Store)
		s.mux.Handle("/api/casts", casts)
		s.mux.Handle("/api/casts/", casts)
	}

	if s.config.App != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.HandleFunc("/api/reset", s.handleReset)
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.App.PluginManager()))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Ingest != nil {
		s.mux.Handle("/api/ingest", NewIngestHandler(s.config.Ingest, s.log))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

type stateResponse struct {
	Enabled   bool   `json:"enabled"`
	Running   bool   `json:"running"`
	LastSpell string `json:"last_spell,omitempty"`
	pipeline.State
	Spells []gesture.Spell `json:"spells"`
}

func (s *Server) currentState() stateResponse {
	a := s.config.App
	return stateResponse{
		Enabled:   a.IsEnabled(),
		Running:   a.Running(),
		LastSpell: a.LastSpell(),
		State:     a.State(),
		Spells:    a.Spells(),
	}
}

// handleState handles GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled handles GET and PUT /api/enabled.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		s.config.App.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.App.IsEnabled()})
}

// handleReset handles POST /api/reset, clearing the move history.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.App.Reset()
	s.log.Info("gesture state reset")
	writeJSON(w, http.StatusOK, s.currentState())
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// HTTPServer returns an http.Server for addr so callers can shut it down.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

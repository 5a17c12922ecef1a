package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/store"
)

// DefaultCastLimit bounds GET /api/casts when no limit is given.
const DefaultCastLimit = 50

// CastHandler serves the cast log.
type CastHandler struct {
	store *store.Store
}

// NewCastHandler creates a new CastHandler with the given store.
func NewCastHandler(s *store.Store) *CastHandler {
	return &CastHandler{store: s}
}

// ServeHTTP handles GET /api/casts and GET /api/casts/stats.
func (h *CastHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/casts")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type castResponse struct {
	ID        string         `json:"id"`
	SpellID   string         `json:"spell_id,omitempty"`
	SpellName string         `json:"spell_name"`
	Sequence  []gesture.Move `json:"sequence"`
	Tick      uint64         `json:"tick"`
	CastAt    string         `json:"cast_at"`
}

type listCastsResponse struct {
	Casts []castResponse `json:"casts"`
}

type castStatsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func toCastResponse(c *store.Cast) castResponse {
	seq := c.Sequence
	if seq == nil {
		seq = []gesture.Move{}
	}
	return castResponse{
		ID:        c.ID,
		SpellID:   c.SpellID,
		SpellName: c.SpellName,
		Sequence:  seq,
		Tick:      c.Tick,
		CastAt:    c.CastAt.Format(timeFormat),
	}
}

// list returns the most recent casts, newest first.
func (h *CastHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultCastLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	casts, err := h.store.Casts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list casts")
		return
	}

	response := listCastsResponse{Casts: make([]castResponse, 0, len(casts))}
	for _, c := range casts {
		response.Casts = append(response.Casts, toCastResponse(c))
	}
	writeJSON(w, http.StatusOK, response)
}

// stats returns how often each spell has been cast.
func (h *CastHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Casts().CountBySpell()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count casts")
		return
	}

	response := castStatsResponse{Counts: counts}
	if response.Counts == nil {
		response.Counts = map[string]int{}
	}
	for _, n := range counts {
		response.Total += n
	}
	writeJSON(w, http.StatusOK, response)
}

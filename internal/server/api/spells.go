package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/store"
)

// Reloader rebuilds the live spell matcher after the spell book changes.
type Reloader interface {
	ReloadSpells() error
}

// SpellHandler handles HTTP requests for spell resources.
type SpellHandler struct {
	store    *store.Store
	length   int
	reloader Reloader
}

// NewSpellHandler creates a SpellHandler. length is the move history
// capacity every sequence must match; reloader may be nil.
func NewSpellHandler(s *store.Store, length int, reloader Reloader) *SpellHandler {
	if length < 1 {
		length = gesture.DefaultCapacity
	}
	return &SpellHandler{store: s, length: length, reloader: reloader}
}

// ServeHTTP routes /api/spells and /api/spells/{id}.
func (h *SpellHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveResource(h, "/api/spells", w, r)
}

type spellRequest struct {
	Name     string         `json:"name"`
	Sequence []gesture.Move `json:"sequence"`
	Priority *int           `json:"priority"`
}

type spellResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Sequence  []gesture.Move `json:"sequence"`
	Priority  int            `json:"priority"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type listSpellsResponse struct {
	Spells []spellResponse `json:"spells"`
}

func toSpellResponse(sp *store.Spell) spellResponse {
	seq := sp.Sequence
	if seq == nil {
		seq = []gesture.Move{}
	}
	return spellResponse{
		ID:        sp.ID,
		Name:      sp.Name,
		Sequence:  seq,
		Priority:  sp.Priority,
		CreatedAt: sp.CreatedAt.Format(timeFormat),
		UpdatedAt: sp.UpdatedAt.Format(timeFormat),
	}
}

// validateBook checks that the spell book with candidate applied still
// builds a matcher. candidate replaces the entry with the same ID.
func (h *SpellHandler) validateBook(candidate *store.Spell) error {
	spells, err := h.store.Spells().List()
	if err != nil {
		return err
	}

	table := make([]gesture.Spell, 0, len(spells)+1)
	replaced := false
	for _, sp := range spells {
		if sp.ID == candidate.ID {
			table = append(table, candidate.Gesture())
			replaced = true
			continue
		}
		table = append(table, sp.Gesture())
	}
	if !replaced {
		table = append(table, candidate.Gesture())
	}

	_, err = gesture.NewSpellMatcher(h.length, table)
	return err
}

// nameFree answers 409 when another spell already uses name.
func (h *SpellHandler) nameFree(w http.ResponseWriter, name string) bool {
	existing, err := findSpell(h.store, "", name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing spell")
		return false
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Spell already exists")
		return false
	}
	return true
}

func (h *SpellHandler) reload() {
	if h.reloader == nil {
		return
	}
	if err := h.reloader.ReloadSpells(); err != nil {
		logrus.WithError(err).Warn("failed to reload spell book")
	}
}

// list handles GET /api/spells and returns the spell book in match order.
func (h *SpellHandler) list(w http.ResponseWriter, r *http.Request) {
	spells, err := h.store.Spells().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list spells")
		return
	}

	response := listSpellsResponse{
		Spells: make([]spellResponse, 0, len(spells)),
	}
	for _, sp := range spells {
		response.Spells = append(response.Spells, toSpellResponse(sp))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/spells/{id}.
func (h *SpellHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sp, err := h.store.Spells().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "spell", "get")
		return
	}

	writeJSON(w, http.StatusOK, toSpellResponse(sp))
}

// create handles POST /api/spells.
func (h *SpellHandler) create(w http.ResponseWriter, r *http.Request) {
	var req spellRequest
	if !readJSON(w, r, &req) {
		return
	}

	name := normalizeName(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if !h.nameFree(w, name) {
		return
	}

	sp := &store.Spell{Name: name, Sequence: req.Sequence}
	if req.Priority != nil {
		sp.Priority = *req.Priority
	} else {
		count, err := h.store.Spells().Count()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to count spells")
			return
		}
		sp.Priority = count
	}

	if err := h.validateBook(sp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Spells().Create(sp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create spell")
		return
	}
	h.reload()

	writeJSON(w, http.StatusCreated, toSpellResponse(sp))
}

// update handles PUT /api/spells/{id}. Omitted fields keep their value.
func (h *SpellHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	sp, err := h.store.Spells().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "spell", "get")
		return
	}

	var req spellRequest
	if !readJSON(w, r, &req) {
		return
	}

	if name := normalizeName(req.Name); name != "" && name != sp.Name {
		if !h.nameFree(w, name) {
			return
		}
		sp.Name = name
	}
	if req.Sequence != nil {
		sp.Sequence = req.Sequence
	}
	if req.Priority != nil {
		sp.Priority = *req.Priority
	}

	if err := h.validateBook(sp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Spells().Update(sp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update spell")
		return
	}
	h.reload()

	writeJSON(w, http.StatusOK, toSpellResponse(sp))
}

// delete handles DELETE /api/spells/{id}. Bound actions go with it.
func (h *SpellHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Spells().Delete(id); err != nil {
		writeStoreError(w, err, "spell", "delete")
		return
	}
	h.reload()

	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mugglewand/internal/store"
)

// ActionHandler binds plugin actions to spells. Each spell carries at
// most one action.
type ActionHandler struct {
	store *store.Store
}

// NewActionHandler creates a new ActionHandler with the given store.
func NewActionHandler(s *store.Store) *ActionHandler {
	return &ActionHandler{store: s}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveResource(h, "/api/actions", w, r)
}

// actionRequest is the body of POST and PUT. The target spell is given
// by spell_id or, failing that, by spell name. On PUT every omitted
// field keeps its value.
type actionRequest struct {
	SpellID    string          `json:"spell_id"`
	SpellName  string          `json:"spell"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	SpellID    string          `json:"spell_id"`
	SpellName  string          `json:"spell,omitempty"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func (h *ActionHandler) respond(a *store.Action) actionResponse {
	config := a.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	resp := actionResponse{
		ID:         a.ID,
		SpellID:    a.SpellID,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(timeFormat),
	}
	if sp, err := h.store.Spells().GetByID(a.SpellID); err == nil {
		resp.SpellName = sp.Name
	}
	return resp
}

func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Actions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{Actions: make([]actionResponse, 0, len(actions))}
	for _, a := range actions {
		response.Actions = append(response.Actions, h.respond(a))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "action", "get")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(action))
}

// bindTarget resolves the spell a request points at and checks that no
// other action already claims it. self is the action being updated, or
// empty on create. It writes the error response and returns "" when the
// target is unusable.
func (h *ActionHandler) bindTarget(w http.ResponseWriter, req actionRequest, self string) string {
	sp, err := findSpell(h.store, req.SpellID, req.SpellName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify spell")
		return ""
	}
	if sp == nil {
		writeError(w, http.StatusBadRequest, "Spell not found")
		return ""
	}

	bound, err := h.store.Actions().GetBySpellID(sp.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing action")
		return ""
	}
	if bound != nil && bound.ID != self {
		writeError(w, http.StatusConflict, sp.Name+" already has an action")
		return ""
	}
	return sp.ID
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !readJSON(w, r, &req) {
		return
	}

	switch {
	case req.SpellID == "" && req.SpellName == "":
		writeError(w, http.StatusBadRequest, "spell_id or spell is required")
		return
	case req.PluginName == "":
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	case req.ActionName == "":
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}

	spellID := h.bindTarget(w, req, "")
	if spellID == "" {
		return
	}

	action := &store.Action{
		SpellID:    spellID,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if len(action.Config) == 0 {
		action.Config = json.RawMessage("{}")
	}
	if err := h.store.Actions().Create(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	writeJSON(w, http.StatusCreated, h.respond(action))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "action", "get")
		return
	}

	var req actionRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.SpellID != "" || req.SpellName != "" {
		spellID := h.bindTarget(w, req, action.ID)
		if spellID == "" {
			return
		}
		action.SpellID = spellID
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.Config != nil {
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(action))
}

func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		writeStoreError(w, err, "action", "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

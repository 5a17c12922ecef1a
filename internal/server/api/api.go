// Package api provides HTTP API handlers for the MuggleWand spell book.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mugglewand/internal/store"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readJSON decodes the request body into v, answering 400 on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// writeStoreError maps a repository error on a kind ("spell", "action")
// to 404 or 500. op names the failed operation in the 500 message.
func writeStoreError(w http.ResponseWriter, err error, kind, op string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, strings.ToUpper(kind[:1])+kind[1:]+" not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to "+op+" "+kind)
}

// resource is a collection with items addressed by ID.
type resource interface {
	list(w http.ResponseWriter, r *http.Request)
	create(w http.ResponseWriter, r *http.Request)
	get(w http.ResponseWriter, r *http.Request, id string)
	update(w http.ResponseWriter, r *http.Request, id string)
	delete(w http.ResponseWriter, r *http.Request, id string)
}

// serveResource routes prefix to list/create and prefix/{id} to
// get/update/delete.
func serveResource(res resource, prefix string, w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		res.list(w, r)
	case id == "" && r.Method == http.MethodPost:
		res.create(w, r)
	case id != "" && r.Method == http.MethodGet:
		res.get(w, r, id)
	case id != "" && r.Method == http.MethodPut:
		res.update(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		res.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// findSpell looks a spell up by ID, or by name when id is empty. A
// spell that does not exist is returned as nil with no error.
func findSpell(s *store.Store, id, name string) (*store.Spell, error) {
	var (
		sp  *store.Spell
		err error
	)
	switch {
	case id != "":
		sp, err = s.Spells().GetByID(id)
	case name != "":
		sp, err = s.Spells().GetByName(normalizeName(name))
	default:
		return nil, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return sp, err
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

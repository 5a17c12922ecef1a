package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

type countingReloader struct {
	calls int
}

func (c *countingReloader) ReloadSpells() error {
	c.calls++
	return nil
}

func seedSpells(t *testing.T, s *store.Store) {
	t.Helper()
	if _, err := s.Spells().SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSpellHandler_List(t *testing.T) {
	s := newTestStore(t)
	seedSpells(t, s)
	handler := NewSpellHandler(s, 4, nil)

	rec := doRequest(handler, http.MethodGet, "/api/spells", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	var response listSpellsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	defaults := gesture.DefaultSpells()
	if len(response.Spells) != len(defaults) {
		t.Fatalf("len(spells) = %d, want %d", len(response.Spells), len(defaults))
	}
	for i, sp := range response.Spells {
		if sp.Name != defaults[i].Name {
			t.Errorf("spells[%d] = %s, want %s", i, sp.Name, defaults[i].Name)
		}
		if gesture.FormatSequence(sp.Sequence) != gesture.FormatSequence(defaults[i].Sequence) {
			t.Errorf("spells[%d] sequence = %v, want %v", i, sp.Sequence, defaults[i].Sequence)
		}
	}
}

func TestSpellHandler_List_Empty(t *testing.T) {
	handler := NewSpellHandler(newTestStore(t), 4, nil)

	rec := doRequest(handler, http.MethodGet, "/api/spells", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "{\"spells\":[]}\n" {
		t.Errorf("body = %q, want an empty spells array", body)
	}
}

func TestSpellHandler_Create(t *testing.T) {
	s := newTestStore(t)
	reloader := &countingReloader{}
	handler := NewSpellHandler(s, 4, reloader)

	rec := doRequest(handler, http.MethodPost, "/api/spells",
		`{"name": " expelliarmus ", "sequence": ["LEFT", "right", "LEFT", "RIGHT"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created spellResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected an assigned ID")
	}
	if created.Name != "EXPELLIARMUS" {
		t.Errorf("name = %q, want EXPELLIARMUS", created.Name)
	}
	if reloader.calls != 1 {
		t.Errorf("reload calls = %d, want 1", reloader.calls)
	}

	stored, err := s.Spells().GetByName("EXPELLIARMUS")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	want := []gesture.Move{gesture.Left, gesture.Right, gesture.Left, gesture.Right}
	if gesture.FormatSequence(stored.Sequence) != gesture.FormatSequence(want) {
		t.Errorf("stored sequence = %v, want %v", stored.Sequence, want)
	}
}

func TestSpellHandler_Create_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "invalid json", body: `{bad`, want: http.StatusBadRequest},
		{name: "missing name", body: `{"sequence": ["UP","UP","UP","UP"]}`, want: http.StatusBadRequest},
		{name: "short sequence", body: `{"name": "X", "sequence": ["UP","DOWN"]}`, want: http.StatusBadRequest},
		{name: "unknown move", body: `{"name": "X", "sequence": ["UP","UP","UP","SIDEWAYS"]}`, want: http.StatusBadRequest},
		{name: "clear move", body: `{"name": "X", "sequence": ["UP","CLEAR","UP","UP"]}`, want: http.StatusBadRequest},
		{name: "duplicate sequence", body: `{"name": "X", "sequence": ["RIGHT","UP","LEFT","DOWN"]}`, want: http.StatusBadRequest},
		{name: "duplicate name", body: `{"name": "lumos", "sequence": ["UP","UP","UP","UP"]}`, want: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			seedSpells(t, s)
			reloader := &countingReloader{}
			handler := NewSpellHandler(s, 4, reloader)

			rec := doRequest(handler, http.MethodPost, "/api/spells", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}

			var response errorResponse
			json.NewDecoder(rec.Body).Decode(&response)
			if response.Error == "" {
				t.Error("expected error message in response")
			}
			if reloader.calls != 0 {
				t.Errorf("reload calls = %d, want 0", reloader.calls)
			}
			if n, _ := s.Spells().Count(); n != len(gesture.DefaultSpells()) {
				t.Errorf("spell count = %d, want unchanged", n)
			}
		})
	}
}

func TestSpellHandler_Get(t *testing.T) {
	s := newTestStore(t)
	seedSpells(t, s)
	handler := NewSpellHandler(s, 4, nil)

	lumos, err := s.Spells().GetByName("LUMOS")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	rec := doRequest(handler, http.MethodGet, "/api/spells/"+lumos.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response spellResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Name != "LUMOS" {
		t.Errorf("name = %s, want LUMOS", response.Name)
	}

	rec = doRequest(handler, http.MethodGet, "/api/spells/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing spell status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSpellHandler_Update(t *testing.T) {
	s := newTestStore(t)
	seedSpells(t, s)
	reloader := &countingReloader{}
	handler := NewSpellHandler(s, 4, reloader)

	nox, _ := s.Spells().GetByName("NOX")

	rec := doRequest(handler, http.MethodPut, "/api/spells/"+nox.ID,
		`{"sequence": ["LEFT","LEFT","LEFT","LEFT"], "priority": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	updated, _ := s.Spells().GetByID(nox.ID)
	if updated.Name != "NOX" {
		t.Errorf("name = %s, want NOX kept", updated.Name)
	}
	if got := gesture.FormatSequence(updated.Sequence); got != "LEFT,LEFT,LEFT,LEFT" {
		t.Errorf("sequence = %s", got)
	}
	if updated.Priority != 0 {
		t.Errorf("priority = %d, want 0", updated.Priority)
	}
	if reloader.calls != 1 {
		t.Errorf("reload calls = %d, want 1", reloader.calls)
	}

	// A spell may keep its own sequence when renamed.
	rec = doRequest(handler, http.MethodPut, "/api/spells/"+nox.ID, `{"name": "nox maxima"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("rename status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// But it may not take another spell's sequence.
	rec = doRequest(handler, http.MethodPut, "/api/spells/"+nox.ID, `{"sequence": ["UP","DOWN","UP","LEFT"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("clashing sequence status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(handler, http.MethodPut, "/api/spells/"+nox.ID, `{"name": "LUMOS"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("clashing name status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doRequest(handler, http.MethodPut, "/api/spells/missing", `{"name": "X"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing spell status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSpellHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	seedSpells(t, s)
	reloader := &countingReloader{}
	handler := NewSpellHandler(s, 4, reloader)

	accio, _ := s.Spells().GetByName("ACCIO")

	rec := doRequest(handler, http.MethodDelete, "/api/spells/"+accio.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, err := s.Spells().GetByID(accio.ID); err != store.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if reloader.calls != 1 {
		t.Errorf("reload calls = %d, want 1", reloader.calls)
	}

	rec = doRequest(handler, http.MethodDelete, "/api/spells/"+accio.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSpellHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSpellHandler(newTestStore(t), 4, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/api/spells"},
		{http.MethodDelete, "/api/spells"},
		{http.MethodPost, "/api/spells/some-id"},
		{http.MethodPatch, "/api/spells/some-id"},
	}

	for _, tt := range tests {
		rec := doRequest(handler, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}

package tray

import (
	"testing"

	"github.com/ayusman/mugglewand/internal/gesture"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("new tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_SetEnabledSkipsCallback(t *testing.T) {
	tr := New()
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(false)
	if tr.IsEnabled() {
		t.Error("SetEnabled(false) did not apply")
	}
	if called {
		t.Error("SetEnabled must not call OnToggle")
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New()
	tr.handleSettings() // no callback

	opened := 0
	tr.OnSettings(func() { opened++ })
	tr.handleSettings()
	if opened != 1 {
		t.Errorf("settings callback ran %d times, want 1", opened)
	}
}

func TestTray_SetLastSpell(t *testing.T) {
	tr := New()
	tr.SetLastSpell("LUMOS")
	if got := tr.LastSpell(); got != "LUMOS" {
		t.Errorf("LastSpell() = %q, want LUMOS", got)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Enabled"},
		{toggleTitle(false), "○ Disabled"},
		{lastSpellTitle(""), "Last spell: none"},
		{lastSpellTitle("NOX"), "Last spell: NOX"},
		{queueTitle(nil), "Moves: none"},
		{queueTitle([]gesture.Move{gesture.Clear, gesture.Up, gesture.Clear, gesture.Left}), "Moves: · UP · LEFT"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}

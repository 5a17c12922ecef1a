package main

import (
	"testing"

	"github.com/ayusman/mugglewand/internal/gesture"
)

func TestSpellControls_CoverDefaultSpells(t *testing.T) {
	for _, spell := range gesture.DefaultSpells() {
		control, ok := spellControls[spell.Name]
		if !ok {
			t.Errorf("no control for %s", spell.Name)
			continue
		}
		if _, ok := actionHandlers[control]; !ok {
			t.Errorf("%s maps to unknown control %q", spell.Name, control)
		}
	}
}

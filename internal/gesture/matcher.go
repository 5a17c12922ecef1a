package gesture

import (
	"errors"
	"fmt"
)

// ErrInvalidSpell is returned when a spell cannot be added to a table.
var ErrInvalidSpell = errors.New("invalid spell")

// Spell binds a name to one exact move sequence.
type Spell struct {
	ID       string `json:"id,omitempty"` // empty for built-in spells
	Name     string `json:"name"`         // announced when the spell is cast
	Sequence []Move `json:"sequence"`     // oldest move first
}

// String returns the spell name and sequence.
func (s Spell) String() string {
	return fmt.Sprintf("%s [%s]", s.Name, FormatSequence(s.Sequence))
}

// DefaultSpells returns the built-in spell table in priority order.
func DefaultSpells() []Spell {
	return []Spell{
		{Name: "ACCIO", Sequence: []Move{Up, Right, Down, Left}},
		{Name: "LUMOS", Sequence: []Move{Up, Down, Up, Left}},
		{Name: "NOX", Sequence: []Move{Up, Down, Up, Right}},
		{Name: "WINGARDIUM LEVIOSA", Sequence: []Move{Down, Right, Up, Down}},
		{Name: "ALOHOMORA", Sequence: []Move{Right, Up, Left, Down}},
	}
}

// SpellMatcher compares a move history against a fixed spell table.
// The table cannot change after construction; build a new matcher to
// load a different spell book.
type SpellMatcher struct {
	spells []Spell
	length int
}

// NewSpellMatcher validates spells against the history length and
// builds a matcher that checks them in the given order.
func NewSpellMatcher(length int, spells []Spell) (*SpellMatcher, error) {
	if length < 1 {
		length = DefaultCapacity
	}

	m := &SpellMatcher{
		spells: make([]Spell, 0, len(spells)),
		length: length,
	}

	seen := make(map[string]string, len(spells))
	for _, s := range spells {
		if err := validateSpell(s, length); err != nil {
			return nil, err
		}

		key := FormatSequence(s.Sequence)
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q repeats the sequence of %q", ErrInvalidSpell, s.Name, other)
		}
		seen[key] = s.Name

		seq := make([]Move, len(s.Sequence))
		copy(seq, s.Sequence)
		s.Sequence = seq
		m.spells = append(m.spells, s)
	}

	return m, nil
}

// DefaultSpellMatcher returns a matcher over DefaultSpells.
func DefaultSpellMatcher() *SpellMatcher {
	m, err := NewSpellMatcher(DefaultCapacity, DefaultSpells())
	if err != nil {
		panic(err)
	}
	return m
}

func validateSpell(s Spell, length int) error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpell)
	}
	if len(s.Sequence) != length {
		return fmt.Errorf("%w: %q has %d moves, expected %d", ErrInvalidSpell, s.Name, len(s.Sequence), length)
	}
	for i, mv := range s.Sequence {
		if !mv.Directional() {
			return fmt.Errorf("%w: %q move %d is %s", ErrInvalidSpell, s.Name, i, mv)
		}
	}
	return nil
}

// Match returns the first spell whose sequence equals queue exactly.
func (m *SpellMatcher) Match(queue []Move) (Spell, bool) {
	if len(queue) != m.length {
		return Spell{}, false
	}

	for _, s := range m.spells {
		if equalMoves(s.Sequence, queue) {
			return s, true
		}
	}
	return Spell{}, false
}

// Spells returns a copy of the spell table in priority order.
func (m *SpellMatcher) Spells() []Spell {
	out := make([]Spell, len(m.spells))
	for i, s := range m.spells {
		s.Sequence = append([]Move(nil), s.Sequence...)
		out[i] = s
	}
	return out
}

// Length returns the sequence length every spell has.
func (m *SpellMatcher) Length() int {
	return m.length
}

func equalMoves(a, b []Move) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

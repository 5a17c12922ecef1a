// Package gesture turns averaged wand velocity into directional moves,
// keeps a short history of them and matches that history against spells.
package gesture

import (
	"fmt"
	"strings"
)

// Move is a single directional gesture.
type Move uint8

const (
	// Clear marks an empty history slot. The classifier never emits it.
	Clear Move = iota
	Up
	Down
	Left
	Right
)

var moveNames = [...]string{
	Clear: "CLEAR",
	Up:    "UP",
	Down:  "DOWN",
	Left:  "LEFT",
	Right: "RIGHT",
}

// String returns the upper-case name of the move.
func (m Move) String() string {
	if int(m) < len(moveNames) {
		return moveNames[m]
	}
	return fmt.Sprintf("Move(%d)", m)
}

// Valid reports whether m is one of the defined moves.
func (m Move) Valid() bool {
	return int(m) < len(moveNames)
}

// Directional reports whether m is a real direction rather than the empty slot.
func (m Move) Directional() bool {
	return m != Clear && m.Valid()
}

// ParseMove parses a move name, ignoring case and surrounding space.
func ParseMove(s string) (Move, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range moveNames {
		if n == name {
			return Move(i), nil
		}
	}
	return Clear, fmt.Errorf("unknown move %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid move %d", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Move) UnmarshalText(b []byte) error {
	parsed, err := ParseMove(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// FormatSequence joins moves with commas, e.g. "UP,RIGHT,DOWN,LEFT".
func FormatSequence(moves []Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

// ParseSequence parses a comma separated list of move names.
func ParseSequence(s string) ([]Move, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	moves := make([]Move, 0, len(fields))
	for _, f := range fields {
		m, err := ParseMove(f)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

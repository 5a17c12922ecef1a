package gesture

import "fmt"

// LatchMode selects how emitting one direction affects the others.
type LatchMode string

const (
	// LatchPerAxis keeps one latch per axis. An X move never clears the
	// Y latch and vice versa.
	LatchPerAxis LatchMode = "per-axis"
	// LatchShared keeps a single latch for all four directions. Every
	// emission clears the other three, so when both axes fire in one tick
	// the Y move (evaluated last) is the only direction left latched.
	LatchShared LatchMode = "shared"
)

// ParseLatchMode validates a latch mode name. An empty string selects LatchPerAxis.
func ParseLatchMode(s string) (LatchMode, error) {
	switch LatchMode(s) {
	case "", LatchPerAxis:
		return LatchPerAxis, nil
	case LatchShared:
		return LatchShared, nil
	}
	return "", fmt.Errorf("unknown latch mode %q", s)
}

// Latch records the direction the wand is currently moving in so the
// classifier does not emit it again on every tick.
type Latch struct {
	mode       LatchMode
	horizontal Move // Left, Right or Clear
	vertical   Move // Up, Down or Clear
}

// NewLatch creates an unlatched Latch.
func NewLatch(mode LatchMode) *Latch {
	if mode == "" {
		mode = LatchPerAxis
	}
	return &Latch{mode: mode}
}

// Mode returns the latch mode.
func (l *Latch) Mode() LatchMode {
	return l.mode
}

// Latched reports whether m is the direction currently latched on its axis.
func (l *Latch) Latched(m Move) bool {
	switch m {
	case Left, Right:
		return l.horizontal == m
	case Up, Down:
		return l.vertical == m
	}
	return false
}

// Set latches m. In shared mode every other direction is released.
func (l *Latch) Set(m Move) {
	switch m {
	case Left, Right:
		l.horizontal = m
		if l.mode == LatchShared {
			l.vertical = Clear
		}
	case Up, Down:
		l.vertical = m
		if l.mode == LatchShared {
			l.horizontal = Clear
		}
	}
}

// Reset releases every direction.
func (l *Latch) Reset() {
	l.horizontal = Clear
	l.vertical = Clear
}

// State returns the latched direction of each axis; Clear means unlatched.
func (l *Latch) State() (horizontal, vertical Move) {
	return l.horizontal, l.vertical
}

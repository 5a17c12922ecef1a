// Package motion smooths raw tracker positions and estimates their velocity.
package motion

import "gonum.org/v1/gonum/stat"

// DefaultWindowSize is the number of samples kept per axis.
const DefaultWindowSize = 5

// Window is a fixed-capacity ring of float64 samples.
// It always holds exactly Size() entries; new windows are zero-filled.
type Window struct {
	data []float64
	head int // next write position for Push
}

// NewWindow creates a zero-filled window. Sizes below 1 fall back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Window{data: make([]float64, size)}
}

// Size returns the window capacity.
func (w *Window) Size() int {
	return len(w.data)
}

// Push overwrites the oldest slot with v and advances the write position.
func (w *Window) Push(v float64) {
	w.data[w.head] = v
	w.head = (w.head + 1) % len(w.data)
}

// Set overwrites slot i (taken modulo the capacity).
// Callers that share one cursor between several windows use this instead of Push.
func (w *Window) Set(i int, v float64) {
	n := len(w.data)
	w.data[((i%n)+n)%n] = v
}

// Mean returns the arithmetic mean of every slot.
func (w *Window) Mean() float64 {
	return stat.Mean(w.data, nil)
}

// Values returns a copy of the slots in storage order.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.data))
	copy(out, w.data)
	return out
}

// Reset zero-fills the window and rewinds the write position.
func (w *Window) Reset() {
	for i := range w.data {
		w.data[i] = 0
	}
	w.head = 0
}

// Package wandtest builds synthetic wand trajectories for tests.
//
// Directions follow the pipeline's mirrored convention: a RIGHT stroke
// moves the raw x coordinate towards smaller values and an UP stroke
// moves raw y towards smaller values.
package wandtest

import (
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/pipeline"
)

// Stroke defaults. With the default pipeline a stroke of StrokeTicks
// ticks at StrokeSpeed registers its move on the fifth tick, and
// SettleTicks still ticks are enough for the averaged velocity to decay
// back to exactly zero.
const (
	Bright      = 200.0
	StrokeSpeed = 20
	StrokeTicks = 10
	SettleTicks = 15
)

// Trajectory accumulates samples starting from a position.
type Trajectory struct {
	x, y    int
	samples []pipeline.Sample
}

// NewTrajectory starts a trajectory at (x, y).
func NewTrajectory(x, y int) *Trajectory {
	return &Trajectory{x: x, y: y}
}

// Hold keeps the wand still and bright for n ticks.
func (t *Trajectory) Hold(n int) *Trajectory {
	for i := 0; i < n; i++ {
		t.samples = append(t.samples, pipeline.Sample{X: t.x, Y: t.y, Intensity: Bright})
	}
	return t
}

// Dark appends n ticks where the wand tip is not visible.
func (t *Trajectory) Dark(n int) *Trajectory {
	for i := 0; i < n; i++ {
		t.samples = append(t.samples, pipeline.Sample{X: t.x, Y: t.y, Intensity: 0})
	}
	return t
}

// Stroke moves the wand in direction m by speed pixels per tick for n ticks.
func (t *Trajectory) Stroke(m gesture.Move, speed, n int) *Trajectory {
	dx, dy := delta(m)
	for i := 0; i < n; i++ {
		t.x += dx * speed
		t.y += dy * speed
		t.samples = append(t.samples, pipeline.Sample{X: t.x, Y: t.y, Intensity: Bright})
	}
	return t
}

// Diagonal moves the wand along h and v at once, speed pixels per tick
// on each axis, for n ticks.
func (t *Trajectory) Diagonal(h, v gesture.Move, speed, n int) *Trajectory {
	hx, _ := delta(h)
	_, vy := delta(v)
	for i := 0; i < n; i++ {
		t.x += hx * speed
		t.y += vy * speed
		t.samples = append(t.samples, pipeline.Sample{X: t.x, Y: t.y, Intensity: Bright})
	}
	return t
}

// Moves draws each move as a default stroke followed by a settle period.
func (t *Trajectory) Moves(moves ...gesture.Move) *Trajectory {
	for _, m := range moves {
		t.Stroke(m, StrokeSpeed, StrokeTicks)
		t.Hold(SettleTicks)
	}
	return t
}

// Samples returns the accumulated samples.
func (t *Trajectory) Samples() []pipeline.Sample {
	out := make([]pipeline.Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Len returns the number of samples so far.
func (t *Trajectory) Len() int {
	return len(t.samples)
}

func delta(m gesture.Move) (dx, dy int) {
	switch m {
	case gesture.Right:
		return -1, 0
	case gesture.Left:
		return 1, 0
	case gesture.Up:
		return 0, -1
	case gesture.Down:
		return 0, 1
	}
	return 0, 0
}

// Run feeds samples through p and returns every result.
func Run(p *pipeline.Pipeline, samples []pipeline.Sample) []pipeline.Result {
	results := make([]pipeline.Result, 0, len(samples))
	for _, s := range samples {
		results = append(results, p.Tick(s))
	}
	return results
}

// Emitted flattens the moves of results in emission order.
func Emitted(results []pipeline.Result) []gesture.Move {
	var moves []gesture.Move
	for _, r := range results {
		moves = append(moves, r.Moves...)
	}
	return moves
}

// Spells returns the names of every spell cast in results.
func Spells(results []pipeline.Result) []string {
	var names []string
	for _, r := range results {
		if r.Spell != nil {
			names = append(names, r.Spell.Name)
		}
	}
	return names
}

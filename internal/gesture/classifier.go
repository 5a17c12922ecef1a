package gesture

import (
	"math"

	"github.com/ayusman/mugglewand/internal/motion"
)

// DefaultVelocityThreshold is the averaged speed, in pixels per tick,
// an axis must exceed before a move registers.
const DefaultVelocityThreshold = 10.0

// Classifier thresholds averaged velocity into directional moves.
type Classifier struct {
	threshold float64
}

// NewClassifier creates a Classifier. Non-positive thresholds fall back to DefaultVelocityThreshold.
func NewClassifier(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultVelocityThreshold
	}
	return &Classifier{threshold: threshold}
}

// Threshold returns the velocity threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Exceeds reports whether either axis of vel is above the threshold,
// whether or not a move would be emitted for it.
func (c *Classifier) Exceeds(vel motion.Point) bool {
	return math.Abs(vel.X) > c.threshold || math.Abs(vel.Y) > c.threshold
}

// Classify returns the moves triggered by vel, X axis first, and latches them.
// At most one move per axis is returned. A direction that is already latched
// is not emitted again; falling below the threshold does not release it.
func (c *Classifier) Classify(vel motion.Point, latch *Latch) []Move {
	var moves []Move

	if math.Abs(vel.X) > c.threshold {
		if m := horizontal(vel.X); !latch.Latched(m) {
			latch.Set(m)
			moves = append(moves, m)
		}
	}

	if math.Abs(vel.Y) > c.threshold {
		if m := vertical(vel.Y); !latch.Latched(m) {
			latch.Set(m)
			moves = append(moves, m)
		}
	}

	return moves
}

func horizontal(v float64) Move {
	if v > 0 {
		return Right
	}
	return Left
}

func vertical(v float64) Move {
	if v > 0 {
		return Up
	}
	return Down
}

// Package pipeline drives the motion-to-spell chain one tick at a time.
package pipeline

import (
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/motion"
)

// DefaultBrightnessThreshold is the peak intensity a frame needs before
// its brightest point is treated as the wand tip.
const DefaultBrightnessThreshold = 70.0

// Sample is one reading from the vision collaborator: the location of
// the brightest pixel in a frame and its intensity.
type Sample struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Intensity float64 `json:"intensity"`
}

// Config holds the tunables of a Pipeline. Zero values select the
// defaults, so a TimeoutTicks of 0 means 30 rather than timing out on
// the first idle tick. Use a History directly for that.
type Config struct {
	SmoothingWindow     int
	VelocityWindow      int
	VelocityThreshold   float64
	QueueCapacity       int
	TimeoutTicks        int
	BrightnessThreshold float64
	LatchMode           gesture.LatchMode

	// ActivityResetsTimeout makes any above-threshold tick reset the idle
	// countdown, even when the direction is latched and nothing is emitted.
	ActivityResetsTimeout bool
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		SmoothingWindow:     motion.DefaultWindowSize,
		VelocityWindow:      motion.DefaultWindowSize,
		VelocityThreshold:   gesture.DefaultVelocityThreshold,
		QueueCapacity:       gesture.DefaultCapacity,
		TimeoutTicks:        gesture.DefaultTimeoutTicks,
		BrightnessThreshold: DefaultBrightnessThreshold,
		LatchMode:           gesture.LatchPerAxis,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SmoothingWindow <= 0 {
		c.SmoothingWindow = d.SmoothingWindow
	}
	if c.VelocityWindow <= 0 {
		c.VelocityWindow = d.VelocityWindow
	}
	if c.VelocityThreshold <= 0 {
		c.VelocityThreshold = d.VelocityThreshold
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.TimeoutTicks <= 0 {
		c.TimeoutTicks = d.TimeoutTicks
	}
	if c.BrightnessThreshold <= 0 {
		c.BrightnessThreshold = d.BrightnessThreshold
	}
	if c.LatchMode == "" {
		c.LatchMode = d.LatchMode
	}
	return c
}

// Result reports what happened during one tick.
type Result struct {
	Tick     uint64         `json:"tick"`
	Signal   bool           `json:"signal"`   // sample was bright enough to process
	Position motion.Point   `json:"position"` // smoothed position, valid when Signal
	Velocity motion.Point   `json:"velocity"` // averaged velocity, valid when Signal
	Moves    []gesture.Move `json:"moves,omitempty"`
	Spell    *gesture.Spell `json:"spell,omitempty"`
	TimedOut bool           `json:"timed_out"`
	Queue    []gesture.Move `json:"queue"`
}

// Pipeline owns every stage of the motion-to-spell chain. It is not safe
// for concurrent use; exactly one driver calls Tick.
type Pipeline struct {
	cfg        Config
	smoother   *motion.Smoother
	velocity   *motion.VelocityEstimator
	classifier *gesture.Classifier
	latch      *gesture.Latch
	history    *gesture.History
	matcher    *gesture.SpellMatcher
	prev       motion.Point
	ticks      uint64
}

// New creates a Pipeline. A nil matcher selects the default spell table.
func New(cfg Config, matcher *gesture.SpellMatcher) *Pipeline {
	cfg = cfg.withDefaults()
	if matcher == nil {
		matcher = gesture.DefaultSpellMatcher()
	}

	return &Pipeline{
		cfg:        cfg,
		smoother:   motion.NewSmoother(cfg.SmoothingWindow),
		velocity:   motion.NewVelocityEstimator(cfg.VelocityWindow),
		classifier: gesture.NewClassifier(cfg.VelocityThreshold),
		latch:      gesture.NewLatch(cfg.LatchMode),
		history:    gesture.NewHistory(cfg.QueueCapacity, cfg.TimeoutTicks),
		matcher:    matcher,
	}
}

// Tick processes one sample. Dim samples only advance the idle countdown.
func (p *Pipeline) Tick(s Sample) Result {
	p.ticks++
	res := Result{Tick: p.ticks}

	active := false
	if s.Intensity > p.cfg.BrightnessThreshold {
		res.Signal = true
		res.Position = p.smoother.Update(float64(s.X), float64(s.Y))
		res.Velocity = p.velocity.Update(res.Position, p.prev)
		p.prev = res.Position

		res.Moves = p.classifier.Classify(res.Velocity, p.latch)
		for _, m := range res.Moves {
			p.history.Push(m)
		}
		// Both moves of a diagonal tick land before the table is checked.
		if len(res.Moves) > 0 {
			if spell, ok := p.matcher.Match(p.history.Moves()); ok {
				p.history.Clear()
				res.Spell = &spell
			}
		}

		active = len(res.Moves) > 0
		if p.cfg.ActivityResetsTimeout && p.classifier.Exceeds(res.Velocity) {
			active = true
		}
	}

	if p.history.Tick(active) {
		p.latch.Reset()
		res.TimedOut = true
	}

	res.Queue = p.history.Moves()
	return res
}

// SetMatcher swaps the spell table. The move history is kept.
func (p *Pipeline) SetMatcher(m *gesture.SpellMatcher) {
	if m == nil {
		return
	}
	p.matcher = m
}

// Matcher returns the current spell table.
func (p *Pipeline) Matcher() *gesture.SpellMatcher {
	return p.matcher
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// State is a snapshot of the pipeline's gesture state.
type State struct {
	Ticks          uint64         `json:"ticks"`
	Queue          []gesture.Move `json:"queue"`
	LatchedX       gesture.Move   `json:"latched_x"`
	LatchedY       gesture.Move   `json:"latched_y"`
	TimedOut       bool           `json:"timed_out"`
	TimeoutRemains int            `json:"timeout_remaining"`
}

// State returns a snapshot of the queue, latch and countdown.
func (p *Pipeline) State() State {
	h, v := p.latch.State()
	return State{
		Ticks:          p.ticks,
		Queue:          p.history.Moves(),
		LatchedX:       h,
		LatchedY:       v,
		TimedOut:       p.history.TimedOut(),
		TimeoutRemains: p.history.Remaining(),
	}
}

// Reset restores the freshly constructed state, keeping the spell table.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
	p.velocity.Reset()
	p.latch.Reset()
	p.history.Reset()
	p.prev = motion.Point{}
	p.ticks = 0
}

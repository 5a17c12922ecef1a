package gesture

// History defaults.
const (
	// DefaultCapacity is the number of moves a spell is made of.
	DefaultCapacity = 4
	// DefaultTimeoutTicks is how many idle ticks the history survives.
	DefaultTimeoutTicks = 30
)

// History is a fixed-length FIFO of the most recent moves plus the idle
// countdown that clears it.
//
// The countdown is reset by every tick that brings a new move. Idle ticks
// decrement it; when it drops below zero the queue is cleared and the
// history enters the timed-out state, where further idle ticks do nothing
// until the next move arrives.
type History struct {
	moves    []Move
	timeout  int
	counter  int
	timedOut bool
}

// NewHistory creates a History holding capacity moves, all Clear.
func NewHistory(capacity, timeoutTicks int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if timeoutTicks < 0 {
		timeoutTicks = DefaultTimeoutTicks
	}
	return &History{
		moves:   make([]Move, capacity),
		timeout: timeoutTicks,
		counter: timeoutTicks,
	}
}

// Push appends m, evicting the oldest move.
func (h *History) Push(m Move) {
	copy(h.moves, h.moves[1:])
	h.moves[len(h.moves)-1] = m
}

// Clear resets every slot to Clear.
func (h *History) Clear() {
	for i := range h.moves {
		h.moves[i] = Clear
	}
}

// Moves returns a copy of the queue, oldest first.
func (h *History) Moves() []Move {
	out := make([]Move, len(h.moves))
	copy(out, h.moves)
	return out
}

// Capacity returns the fixed queue length.
func (h *History) Capacity() int {
	return len(h.moves)
}

// Empty reports whether every slot is Clear.
func (h *History) Empty() bool {
	for _, m := range h.moves {
		if m != Clear {
			return false
		}
	}
	return true
}

// Tick advances the idle countdown. It returns true only on the tick
// that moves the history into the timed-out state; the caller is
// expected to release the direction latch then.
func (h *History) Tick(hasNewMove bool) bool {
	if hasNewMove {
		h.counter = h.timeout
		h.timedOut = false
		return false
	}

	if h.timedOut {
		return false
	}

	h.counter--
	if h.counter < 0 {
		h.Clear()
		h.timedOut = true
		return true
	}
	return false
}

// TimedOut reports whether the history is in the timed-out state.
func (h *History) TimedOut() bool {
	return h.timedOut
}

// Remaining returns the current countdown value.
func (h *History) Remaining() int {
	return h.counter
}

// Reset restores the freshly constructed state.
func (h *History) Reset() {
	h.Clear()
	h.counter = h.timeout
	h.timedOut = false
}

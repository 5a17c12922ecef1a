package gesture

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mugglewand/internal/motion"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		in      string
		want    Move
		wantErr bool
	}{
		{in: "UP", want: Up},
		{in: "down", want: Down},
		{in: " Left ", want: Left},
		{in: "RIGHT", want: Right},
		{in: "clear", want: Clear},
		{in: "diagonal", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMove(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMove(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMove(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMove(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMove_JSON(t *testing.T) {
	data, err := json.Marshal([]Move{Up, Clear, Right})
	require.NoError(t, err)
	assert.JSONEq(t, `["UP","CLEAR","RIGHT"]`, string(data))

	var moves []Move
	require.NoError(t, json.Unmarshal([]byte(`["left","DOWN"]`), &moves))
	assert.Equal(t, []Move{Left, Down}, moves)

	_, err = json.Marshal(Move(9))
	assert.Error(t, err)
}

func TestSequenceRoundTrip(t *testing.T) {
	seq, err := ParseSequence("UP, right,DOWN ,left")
	require.NoError(t, err)
	assert.Equal(t, []Move{Up, Right, Down, Left}, seq)
	assert.Equal(t, "UP,RIGHT,DOWN,LEFT", FormatSequence(seq))

	empty, err := ParseSequence("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseSequence("UP,SIDEWAYS")
	assert.Error(t, err)
}

func TestParseLatchMode(t *testing.T) {
	mode, err := ParseLatchMode("")
	require.NoError(t, err)
	assert.Equal(t, LatchPerAxis, mode)

	mode, err = ParseLatchMode("shared")
	require.NoError(t, err)
	assert.Equal(t, LatchShared, mode)

	_, err = ParseLatchMode("sticky")
	assert.Error(t, err)
}

func TestLatch_PerAxisKeepsOtherAxis(t *testing.T) {
	l := NewLatch(LatchPerAxis)
	l.Set(Right)
	l.Set(Up)

	assert.True(t, l.Latched(Right))
	assert.True(t, l.Latched(Up))
	assert.False(t, l.Latched(Left))
	assert.False(t, l.Latched(Down))

	l.Set(Left)
	assert.True(t, l.Latched(Left))
	assert.False(t, l.Latched(Right))
	assert.True(t, l.Latched(Up))
}

func TestLatch_SharedClearsOthers(t *testing.T) {
	l := NewLatch(LatchShared)
	l.Set(Right)
	l.Set(Up)

	assert.False(t, l.Latched(Right), "Y emission should release the X latch")
	assert.True(t, l.Latched(Up))

	h, v := l.State()
	assert.Equal(t, Clear, h)
	assert.Equal(t, Up, v)
}

func TestLatch_Reset(t *testing.T) {
	for _, mode := range []LatchMode{LatchPerAxis, LatchShared} {
		l := NewLatch(mode)
		l.Set(Down)
		l.Set(Left)
		l.Reset()
		for _, m := range []Move{Up, Down, Left, Right} {
			assert.False(t, l.Latched(m), "%s: %s still latched", mode, m)
		}
	}
}

func TestClassifier_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		vel  motion.Point
		want []Move
	}{
		{name: "still", vel: motion.Point{}, want: nil},
		{name: "at threshold is not a move", vel: motion.Point{X: 10, Y: -10}, want: nil},
		{name: "right", vel: motion.Point{X: 10.5}, want: []Move{Right}},
		{name: "left", vel: motion.Point{X: -12}, want: []Move{Left}},
		{name: "up", vel: motion.Point{Y: 11}, want: []Move{Up}},
		{name: "down", vel: motion.Point{Y: -30}, want: []Move{Down}},
		{name: "both axes, X first", vel: motion.Point{X: -20, Y: 20}, want: []Move{Left, Up}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(10)
			got := c.Classify(tt.vel, NewLatch(LatchPerAxis))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%v) mismatch (-want +got):\n%s", tt.vel, diff)
			}
		})
	}
}

// Sustained motion in one direction emits exactly once until it reverses.
func TestClassifier_Debounce(t *testing.T) {
	for _, mode := range []LatchMode{LatchPerAxis, LatchShared} {
		t.Run(string(mode), func(t *testing.T) {
			c := NewClassifier(10)
			latch := NewLatch(mode)

			var emitted []Move
			for i := 0; i < 50; i++ {
				emitted = append(emitted, c.Classify(motion.Point{X: 25}, latch)...)
			}
			assert.Equal(t, []Move{Right}, emitted)

			// Dropping below threshold does not release the latch.
			for i := 0; i < 5; i++ {
				assert.Empty(t, c.Classify(motion.Point{X: 3}, latch))
			}
			assert.Empty(t, c.Classify(motion.Point{X: 25}, latch))

			// Reversing does.
			assert.Equal(t, []Move{Left}, c.Classify(motion.Point{X: -25}, latch))
			assert.Equal(t, []Move{Right}, c.Classify(motion.Point{X: 25}, latch))
		})
	}
}

func TestClassifier_DualAxisLatchModes(t *testing.T) {
	c := NewClassifier(10)

	shared := NewLatch(LatchShared)
	assert.Equal(t, []Move{Right, Up}, c.Classify(motion.Point{X: 20, Y: 20}, shared))
	// Each axis overwrites the other's latch, so a held diagonal re-emits
	// both moves on every tick.
	assert.Equal(t, []Move{Right, Up}, c.Classify(motion.Point{X: 20, Y: 20}, shared))
	assert.Equal(t, []Move{Right, Up}, c.Classify(motion.Point{X: 20, Y: 20}, shared))

	perAxis := NewLatch(LatchPerAxis)
	assert.Equal(t, []Move{Right, Up}, c.Classify(motion.Point{X: 20, Y: 20}, perAxis))
	assert.Empty(t, c.Classify(motion.Point{X: 20, Y: 20}, perAxis))
}

func TestClassifier_Exceeds(t *testing.T) {
	c := NewClassifier(0)
	assert.Equal(t, DefaultVelocityThreshold, c.Threshold())
	assert.True(t, c.Exceeds(motion.Point{Y: -10.01}))
	assert.False(t, c.Exceeds(motion.Point{X: 10, Y: 10}))
}

func TestHistory_FIFO(t *testing.T) {
	h := NewHistory(4, 30)
	assert.Equal(t, []Move{Clear, Clear, Clear, Clear}, h.Moves())
	assert.True(t, h.Empty())

	for _, m := range []Move{Up, Right, Down, Left, Up} {
		h.Push(m)
		assert.Len(t, h.Moves(), 4)
	}
	assert.Equal(t, []Move{Right, Down, Left, Up}, h.Moves())

	h.Clear()
	assert.Equal(t, []Move{Clear, Clear, Clear, Clear}, h.Moves())
}

func TestHistory_MovesIsACopy(t *testing.T) {
	h := NewHistory(2, 30)
	h.Push(Up)
	moves := h.Moves()
	moves[1] = Down
	assert.Equal(t, []Move{Clear, Up}, h.Moves())
}

func TestHistory_TimeoutFiresOnce(t *testing.T) {
	h := NewHistory(4, 30)
	h.Push(Up)
	h.Push(Down)

	fired := 0
	firedAt := -1
	for tick := 1; tick <= 100; tick++ {
		if h.Tick(false) {
			fired++
			firedAt = tick
		}
		if tick > 31 {
			assert.True(t, h.Empty(), "tick %d: queue refilled while idle", tick)
		}
	}

	assert.Equal(t, 1, fired)
	assert.Equal(t, 31, firedAt)
	assert.True(t, h.TimedOut())
	assert.True(t, h.Empty())
}

func TestHistory_NewMoveRearms(t *testing.T) {
	h := NewHistory(4, 2)

	assert.False(t, h.Tick(false)) // 1
	assert.False(t, h.Tick(false)) // 0
	assert.True(t, h.Tick(false))  // -1
	assert.False(t, h.Tick(false))

	h.Push(Left)
	assert.False(t, h.Tick(true))
	assert.False(t, h.TimedOut())
	assert.Equal(t, 2, h.Remaining())

	assert.False(t, h.Tick(false))
	assert.False(t, h.Tick(false))
	assert.True(t, h.Tick(false))
	assert.True(t, h.Empty())
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(3, 1)
	h.Push(Right)
	h.Tick(false)
	h.Tick(false)
	require.True(t, h.TimedOut())

	h.Reset()
	assert.False(t, h.TimedOut())
	assert.Equal(t, 1, h.Remaining())
	assert.Equal(t, 3, h.Capacity())
}

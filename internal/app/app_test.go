package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/logging"
	"github.com/ayusman/mugglewand/internal/pipeline"
	"github.com/ayusman/mugglewand/internal/store"
	"github.com/ayusman/mugglewand/internal/wandtest"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func alohomora() []pipeline.Sample {
	return wandtest.NewTrajectory(0, 0).
		Hold(5).
		Moves(gesture.Right, gesture.Up, gesture.Left, gesture.Down).
		Samples()
}

func newTestApp(t *testing.T, samples []pipeline.Sample, cfg Config) *App {
	t.Helper()
	cfg.Source = capture.NewMockSource(samples, false)
	cfg.Logger = logging.Discard()
	if cfg.PluginDir == "" {
		cfg.PluginDir = t.TempDir()
	}
	return New(cfg)
}

func stepAll(t *testing.T, a *App) []pipeline.Result {
	t.Helper()
	var results []pipeline.Result
	for {
		res, err := a.Step()
		if errors.Is(err, capture.ErrSourceClosed) {
			return results
		}
		require.NoError(t, err)
		results = append(results, res)
	}
}

func TestApp_StepDispatches(t *testing.T) {
	rec := &recorder{}
	a := newTestApp(t, alohomora(), Config{Publisher: rec})
	require.NoError(t, a.ReloadSpells())

	var moves []gesture.Move
	var spells []string
	a.OnMove(func(m gesture.Move, _ uint64) { moves = append(moves, m) })
	a.OnSpell(func(s gesture.Spell, _ uint64) { spells = append(spells, s.Name) })

	results := stepAll(t, a)
	assert.Len(t, results, len(alohomora()))

	assert.Equal(t, []gesture.Move{gesture.Right, gesture.Up, gesture.Left, gesture.Down}, moves)
	assert.Equal(t, []string{"ALOHOMORA"}, spells)
	assert.Equal(t, "ALOHOMORA", a.LastSpell())
	assert.Equal(t,
		[]EventType{EventMove, EventMove, EventMove, EventMove, EventSpell},
		rec.types())
}

func TestApp_EventQueueIsEndOfTick(t *testing.T) {
	rec := &recorder{}
	a := newTestApp(t, alohomora(), Config{Publisher: rec})
	require.NoError(t, a.ReloadSpells())
	stepAll(t, a)

	require.Len(t, rec.events, 5)
	first, last, spell := rec.events[0], rec.events[3], rec.events[4]
	assert.Equal(t, []gesture.Move{gesture.Clear, gesture.Clear, gesture.Clear, gesture.Right}, first.Queue)

	// The move that completed the spell shares its tick with the cast.
	cleared := []gesture.Move{gesture.Clear, gesture.Clear, gesture.Clear, gesture.Clear}
	assert.Equal(t, spell.Tick, last.Tick)
	assert.Equal(t, cleared, last.Queue)
	assert.Equal(t, cleared, spell.Queue)
}

func TestApp_TimeoutCallback(t *testing.T) {
	samples := wandtest.NewTrajectory(0, 0).Hold(5).Moves(gesture.Up).Dark(40).Samples()
	rec := &recorder{}
	a := newTestApp(t, samples, Config{Publisher: rec})

	var timeouts []uint64
	a.OnTimeout(func(tick uint64) { timeouts = append(timeouts, tick) })
	stepAll(t, a)

	require.Len(t, timeouts, 1)
	assert.Equal(t, []EventType{EventMove, EventTimeout}, rec.types())
	assert.True(t, a.State().TimedOut)
}

func TestApp_Paused(t *testing.T) {
	a := newTestApp(t, alohomora(), Config{})
	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())

	_, err := a.Step()
	assert.ErrorIs(t, err, ErrPaused)
	assert.Equal(t, uint64(0), a.State().Ticks, "paused ticks are skipped entirely")

	a.SetEnabled(true)
	_, err = a.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.State().Ticks)
}

func TestApp_NoSource(t *testing.T) {
	a := New(Config{Logger: logging.Discard()})
	_, err := a.Step()
	assert.ErrorIs(t, err, ErrNoSource)
	assert.ErrorIs(t, a.Start(context.Background()), ErrNoSource)
}

func TestApp_ConfiguredSpells(t *testing.T) {
	samples := wandtest.NewTrajectory(0, 0).Hold(5).Moves(gesture.Up, gesture.Down).Samples()
	a := newTestApp(t, samples, Config{
		Pipeline: pipeline.Config{QueueCapacity: 2},
		Spells:   []gesture.Spell{{Name: "FLICK", Sequence: []gesture.Move{gesture.Up, gesture.Down}}},
	})
	require.NoError(t, a.ReloadSpells())
	require.Len(t, a.Spells(), 1)

	stepAll(t, a)
	assert.Equal(t, "FLICK", a.LastSpell())
}

func TestApp_ReloadSpellsRejectsBadTable(t *testing.T) {
	a := newTestApp(t, nil, Config{
		Spells: []gesture.Spell{{Name: "SHORT", Sequence: []gesture.Move{gesture.Up}}},
	})
	assert.ErrorIs(t, a.ReloadSpells(), gesture.ErrInvalidSpell)
	assert.Len(t, a.Spells(), 5, "failed reload keeps the previous table")
}

func TestApp_StoreRecordsCasts(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Spells().SeedDefaults()
	require.NoError(t, err)

	a := newTestApp(t, alohomora(), Config{Store: s})
	require.NoError(t, a.ReloadSpells())
	stepAll(t, a)

	casts, err := s.Casts().List(0)
	require.NoError(t, err)
	require.Len(t, casts, 1)
	assert.Equal(t, "ALOHOMORA", casts[0].SpellName)
	assert.NotEmpty(t, casts[0].SpellID)
	assert.Equal(t, []gesture.Move{gesture.Right, gesture.Up, gesture.Left, gesture.Down}, casts[0].Sequence)
}

func TestApp_EnabledPersists(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	New(Config{Store: s, Logger: logging.Discard()}).SetEnabled(false)
	assert.False(t, New(Config{Store: s, Logger: logging.Discard()}).IsEnabled())
}

func TestApp_StartStop(t *testing.T) {
	a := newTestApp(t, alohomora(), Config{TickInterval: time.Millisecond})

	spelled := make(chan string, 1)
	a.OnSpell(func(s gesture.Spell, _ uint64) { spelled <- s.Name })

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Start(context.Background()), "second Start is a no-op")
	assert.True(t, a.Running())

	select {
	case name := <-spelled:
		assert.Equal(t, "ALOHOMORA", name)
	case <-time.After(5 * time.Second):
		t.Fatal("spell not cast")
	}

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop at the end of the source")
	}
	assert.False(t, a.Running())
	a.Stop()
}

func TestApp_StopCancelsLoop(t *testing.T) {
	a := newTestApp(t, alohomora(), Config{TickInterval: time.Millisecond})
	a.SetSource(capture.NewChanSource(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	time.Sleep(20 * time.Millisecond)
	a.Stop()
	assert.False(t, a.Running())
	assert.Nil(t, a.Done())
	assert.Greater(t, a.State().Ticks, uint64(0))
}

func TestApp_Reset(t *testing.T) {
	a := newTestApp(t, alohomora()[:40], Config{})
	stepAll(t, a)
	require.NotZero(t, a.State().Ticks)

	a.Reset()
	assert.Zero(t, a.State().Ticks)
}

// Package app ties the wand pipeline to its sample source and to
// everything that reacts to recognised moves and spells.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/capture"
	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/pipeline"
	"github.com/ayusman/mugglewand/internal/plugin"
	"github.com/ayusman/mugglewand/internal/store"
)

// DefaultTickInterval matches the 50 ms pause between frames of the
// original wand loop.
const DefaultTickInterval = 50 * time.Millisecond

var (
	// ErrPaused is returned by Step while processing is disabled.
	ErrPaused = errors.New("processing paused")
	// ErrNoSource is returned when no sample source is attached.
	ErrNoSource = errors.New("no sample source")
)

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	Source        capture.Source
	Pipeline      pipeline.Config
	Spells        []gesture.Spell // replaces the spell book when set
	PluginDir     string
	PluginTimeout time.Duration
	TickInterval  time.Duration
	Publisher     Publisher
	Logger        logrus.FieldLogger
}

// App drives the pipeline one sample per tick and dispatches results.
type App struct {
	config     Config
	pipeline   *pipeline.Pipeline
	source     capture.Source
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	log        *logrus.Entry

	mu        sync.RWMutex
	enabled   bool
	lastSpell string
	onMove    []func(gesture.Move, uint64)
	onSpell   []func(gesture.Spell, uint64)
	onTimeout []func(uint64)

	cancel  context.CancelFunc
	done    chan struct{}
	actions sync.WaitGroup
}

// New creates an App. Processing starts enabled unless the store says
// otherwise. Call ReloadSpells to load the spell book.
func New(config Config) *App {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	a := &App{
		config:     config,
		pipeline:   pipeline.New(config.Pipeline, nil),
		source:     config.Source,
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(config.PluginTimeout),
		log:        logger.WithField("component", "app"),
		enabled:    true,
	}
	if config.Store != nil {
		a.enabled = config.Store.Settings().Bool(store.SettingEnabled, true)
	}
	return a
}

// SetEnabled pauses or resumes processing. While paused ticks are
// skipped entirely: no sample is read and the countdown does not move.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			a.log.WithError(err).Warn("failed to persist enabled setting")
		}
	}
	a.log.WithField("enabled", enabled).Info("processing toggled")
}

// IsEnabled returns whether processing is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetSource replaces the sample source.
func (a *App) SetSource(src capture.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// Source returns the current sample source.
func (a *App) Source() capture.Source {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.source
}

// OnMove registers fn to run for every emitted move.
func (a *App) OnMove(fn func(move gesture.Move, tick uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onMove = append(a.onMove, fn)
}

// OnSpell registers fn to run for every cast spell.
func (a *App) OnSpell(fn func(spell gesture.Spell, tick uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSpell = append(a.onSpell, fn)
}

// OnTimeout registers fn to run when the move history times out.
func (a *App) OnTimeout(fn func(tick uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTimeout = append(a.onTimeout, fn)
}

// ReloadSpells rebuilds the matcher from the configured spells, else the
// store's spell book, else the built-in table. The move history is kept.
func (a *App) ReloadSpells() error {
	table, err := a.spellTable()
	if err != nil {
		return err
	}

	m, err := gesture.NewSpellMatcher(a.pipeline.Config().QueueCapacity, table)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.pipeline.SetMatcher(m)
	a.mu.Unlock()

	a.log.WithField("spells", len(table)).Info("spell book loaded")
	return nil
}

func (a *App) spellTable() ([]gesture.Spell, error) {
	if len(a.config.Spells) > 0 {
		return a.config.Spells, nil
	}
	if a.config.Store != nil {
		table, err := a.config.Store.Spells().Table()
		if err != nil {
			return nil, err
		}
		if len(table) > 0 {
			return table, nil
		}
	}
	return gesture.DefaultSpells(), nil
}

// Spells returns the active spell table.
func (a *App) Spells() []gesture.Spell {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipeline.Matcher().Spells()
}

// State returns a snapshot of the gesture state.
func (a *App) State() pipeline.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipeline.State()
}

// LastSpell returns the name of the most recent spell, if any.
func (a *App) LastSpell() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSpell
}

// Reset clears the pipeline's history, latch and windows.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipeline.Reset()
}

// DiscoverPlugins scans the plugin directory.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// TickInterval returns the driver cadence.
func (a *App) TickInterval() time.Duration {
	return a.config.TickInterval
}

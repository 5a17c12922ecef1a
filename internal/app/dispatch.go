package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mugglewand/internal/gesture"
	"github.com/ayusman/mugglewand/internal/pipeline"
	"github.com/ayusman/mugglewand/internal/plugin"
	"github.com/ayusman/mugglewand/internal/store"
)

// dispatch reacts to a tick result: moves first, then the spell they
// completed, then a timeout.
func (a *App) dispatch(res pipeline.Result) {
	if len(res.Moves) == 0 && res.Spell == nil && !res.TimedOut {
		return
	}

	a.mu.RLock()
	onMove, onSpell, onTimeout := a.onMove, a.onSpell, a.onTimeout
	a.mu.RUnlock()

	now := time.Now()

	for _, m := range res.Moves {
		a.log.WithFields(logrus.Fields{"tick": res.Tick, "move": m}).Debug("move")
		a.publish(Event{Type: EventMove, Tick: res.Tick, Move: m.String(), Queue: res.Queue, Time: now})
		for _, fn := range onMove {
			fn(m, res.Tick)
		}
	}

	if res.Spell != nil {
		spell := *res.Spell
		a.castSpell(spell, res.Tick, now)
		a.publish(Event{Type: EventSpell, Tick: res.Tick, Spell: spell.Name, Queue: res.Queue, Time: now})
		for _, fn := range onSpell {
			fn(spell, res.Tick)
		}
	}

	if res.TimedOut {
		a.log.WithField("tick", res.Tick).Info("Move Timed Out!")
		a.publish(Event{Type: EventTimeout, Tick: res.Tick, Queue: res.Queue, Time: now})
		for _, fn := range onTimeout {
			fn(res.Tick)
		}
	}
}

func (a *App) publish(e Event) {
	if a.config.Publisher != nil {
		a.config.Publisher.Publish(e)
	}
}

// castSpell announces, records and runs the bound action of a spell.
func (a *App) castSpell(spell gesture.Spell, tick uint64, at time.Time) {
	a.mu.Lock()
	a.lastSpell = spell.Name
	a.mu.Unlock()

	a.log.WithFields(logrus.Fields{"tick": tick, "spell": spell.Name}).Infof("%s!!!", spell.Name)

	s := a.config.Store
	if s == nil {
		return
	}

	if spell.ID == "" {
		if rec, err := s.Spells().GetByName(spell.Name); err == nil {
			spell.ID = rec.ID
		}
	}

	cast := &store.Cast{
		SpellID:   spell.ID,
		SpellName: spell.Name,
		Sequence:  spell.Sequence,
		Tick:      tick,
		CastAt:    at,
	}
	if err := s.Casts().Record(cast); err != nil {
		a.log.WithError(err).Warn("failed to record cast")
	}

	if spell.ID == "" {
		return
	}
	action, err := s.Actions().GetBySpellID(spell.ID)
	if err != nil {
		a.log.WithError(err).Warn("failed to look up action")
		return
	}
	if action == nil || !action.Enabled {
		return
	}

	a.actions.Add(1)
	go func() {
		defer a.actions.Done()
		a.executeAction(context.Background(), action, spell, tick)
	}()
}

// executeAction runs the plugin bound to a spell.
func (a *App) executeAction(ctx context.Context, action *store.Action, spell gesture.Spell, tick uint64) {
	entry := a.log.WithFields(logrus.Fields{
		"spell":  spell.Name,
		"plugin": action.PluginName,
		"action": action.ActionName,
	})

	p, err := a.pluginMgr.Get(action.PluginName)
	if err != nil {
		entry.WithError(err).Warn("cannot run action")
		return
	}
	if !p.Manifest.HasAction(action.ActionName) {
		entry.Warn("plugin does not declare action")
		return
	}

	params, _ := json.Marshal(struct {
		Sequence []gesture.Move `json:"sequence"`
		Tick     uint64         `json:"tick"`
	}{spell.Sequence, tick})

	resp, err := a.pluginExec.Execute(ctx, p, &plugin.Request{
		Action: action.ActionName,
		Spell:  spell.Name,
		Config: action.Config,
		Params: params,
	})
	if err != nil {
		entry.WithError(err).Warn("action failed")
		return
	}
	if !resp.Success {
		entry.WithField("error", resp.Error).Warn("action reported failure")
		return
	}
	entry.Debug("action done")
}

// WaitActions blocks until all running plugin actions have finished.
func (a *App) WaitActions() {
	a.actions.Wait()
}

// Package tray provides a system tray interface for MuggleWand.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mugglewand/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	lastSpell  string
	queue      []gesture.Move
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastSpell *systray.MenuItem
	menuQueue     *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("MuggleWand")
	systray.SetTooltip("MuggleWand spell recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle spell recognition")
	systray.AddSeparator()

	t.menuLastSpell = systray.AddMenuItem(lastSpellTitle(t.lastSpell), "Last cast spell")
	t.menuLastSpell.Disable()
	t.menuQueue = systray.AddMenuItem(queueTitle(t.queue), "Recent moves")
	t.menuQueue.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Spell Book...", "Open the spell book in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit MuggleWand")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastSpellTitle(name string) string {
	if name == "" {
		return "Last spell: none"
	}
	return "Last spell: " + name
}

func queueTitle(moves []gesture.Move) string {
	parts := make([]string, 0, len(moves))
	for _, m := range moves {
		if m == gesture.Clear {
			parts = append(parts, "·")
			continue
		}
		parts = append(parts, m.String())
	}
	if len(parts) == 0 {
		return "Moves: none"
	}
	return "Moves: " + strings.Join(parts, " ")
}

// handleToggle flips the enabled state and notifies the toggle callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the displayed state without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetLastSpell updates the last spell display in the menu.
func (t *Tray) SetLastSpell(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSpell = name
	if t.menuLastSpell != nil {
		t.menuLastSpell.SetTitle(lastSpellTitle(name))
	}
}

// SetQueue updates the recent moves display.
func (t *Tray) SetQueue(moves []gesture.Move) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue[:0], moves...)
	if t.menuQueue != nil {
		t.menuQueue.SetTitle(queueTitle(t.queue))
	}
}

// LastSpell returns the spell shown in the menu.
func (t *Tray) LastSpell() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSpell
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

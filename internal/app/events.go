package app

import (
	"time"

	"github.com/ayusman/mugglewand/internal/gesture"
)

// EventType names what happened on a tick.
type EventType string

const (
	EventMove    EventType = "move"
	EventSpell   EventType = "spell"
	EventTimeout EventType = "timeout"
)

// Event is published for every move, spell and timeout. Queue is the
// move history at the end of the tick, after a completed spell has
// cleared it, so every event of one tick carries the same queue.
type Event struct {
	Type  EventType      `json:"type"`
	Tick  uint64         `json:"tick"`
	Move  string         `json:"move,omitempty"`
	Spell string         `json:"spell,omitempty"`
	Queue []gesture.Move `json:"queue"`
	Time  time.Time      `json:"time"`
}

// Publisher receives events. Publish must not block the caller for long.
type Publisher interface {
	Publish(Event)
}

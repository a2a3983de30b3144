// Package events carries todo change notifications to interested readers:
// the owner's open event streams and, optionally, an MQTT broker.
package events

import (
	"context"
	"time"
)

type Type string

const (
	TodoCreated Type = "todo.created"
	TodoToggled Type = "todo.toggled"
	TodoDeleted Type = "todo.deleted"
)

// Event describes one effective change to a user's todo.
type Event struct {
	Type    Type      `json:"type"`
	UserID  int64     `json:"user_id"`
	TodoID  int64     `json:"todo_id"`
	Content string    `json:"content,omitempty"`
	Done    bool      `json:"done"`
	At      time.Time `json:"at"`
}

// Notifier must not block the caller for long; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Fanout delivers every event to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) {
	for _, n := range f {
		n.Notify(ctx, ev)
	}
}

// Discard drops all events.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}

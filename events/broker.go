package events

import (
	"context"
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

var _ Notifier = (*Broker)(nil)

type subscriber struct {
	ch chan Event
}

// Broker fans events out to per-user subscribers. A subscriber that
// falls behind loses events instead of stalling the writer.
type Broker struct {
	mu      sync.Mutex
	subs    map[int64]map[*subscriber]struct{}
	dropped atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int64]map[*subscriber]struct{})}
}

// Subscribe returns a channel of the user's events and a cancel func
// that unregisters and closes it. cancel is safe to call twice.
func (b *Broker) Subscribe(userID int64) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*subscriber]struct{})
	}
	b.subs[userID][s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], s)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(s.ch)
			b.mu.Unlock()
		})
	}
	return s.ch, cancel
}

func (b *Broker) Notify(_ context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers reports the number of open subscriptions for a user.
func (b *Broker) Subscribers(userID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Dropped reports how many events were lost to full subscriber buffers.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

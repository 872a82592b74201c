// Package events carries the "session invalidated" signal from the API
// client to whoever owns session state, without either importing the other.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/parkclient/internal/logging"
)

// Reason says why a session was invalidated.
type Reason string

const (
	// ReasonUnauthorized is published when the backend answers 401.
	ReasonUnauthorized Reason = "unauthorized"
)

// Handler receives invalidation notices.
type Handler func(reason Reason)

// Publisher is the sending side of the bus, as seen by the API client.
type Publisher interface {
	Publish(reason Reason)
}

// Subscriber is the receiving side, as seen by the session owner.
type Subscriber interface {
	Subscribe(h Handler) (unsubscribe func())
}

type subscription struct {
	id uint64
	h  Handler
}

// Bus is a synchronous, ordered fan-out of invalidation notices. Every
// Subscribe call is tracked separately, even for the same handler.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	log    logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	if log == nil {
		log = logging.Nop()
	}
	return &Bus{log: log}
}

// Subscribe registers h and returns a function removing exactly this
// registration. Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every handler registered at the time of the call, in
// registration order, on the caller's goroutine. A panicking handler is
// logged and skipped; the rest still run and nothing reaches the caller.
func (b *Bus) Publish(reason Reason) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		b.deliver(s, reason)
	}
}

func (b *Bus) deliver(s subscription, reason Reason) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error(context.Background(), "session event handler panicked",
				"subscription", s.id, "reason", string(reason), "panic", fmt.Sprint(p))
		}
	}()
	s.h(reason)
}

// Len reports the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

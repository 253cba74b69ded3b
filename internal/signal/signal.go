// Package signal fans out cart and session changes to in-process listeners.
package signal

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Signal kinds as they appear on the SSE stream.
const (
	KindCart = "cart"
	KindAuth = "auth"
)

// Event is a change notification scoped to one client.
type Event interface {
	Client() string
	Kind() string
}

// CartChanged is published after every persisted cart mutation.
type CartChanged struct {
	ClientID string          `json:"client_id"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

func (e CartChanged) Client() string { return e.ClientID }
func (e CartChanged) Kind() string   { return KindCart }

// AuthChanged is published on sign-in and sign-out.
type AuthChanged struct {
	ClientID      string `json:"client_id"`
	Authenticated bool   `json:"authenticated"`
}

func (e AuthChanged) Client() string { return e.ClientID }
func (e AuthChanged) Kind() string   { return KindAuth }

// Handler receives every published event. It runs on the publisher's
// goroutine and must not block.
type Handler func(ctx context.Context, e Event)

var droppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_signal_dropped_total",
		Help: "Signals dropped because a stream subscriber was not keeping up",
	},
	[]string{"kind"},
)

type subscription struct {
	id     uint64
	client string // empty matches every client
	fn     Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every client's events. The returned func
// removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	return b.add("", fn)
}

// Stream returns a channel of events for one client. The channel holds up to
// buffer events; further events are dropped until the reader catches up.
// Calling cancel unsubscribes and closes the channel.
func (b *Bus) Stream(clientID string, buffer int) (events <-chan Event, cancel func()) {
	ch := make(chan Event, buffer)
	var once sync.Once
	var closed bool
	var mu sync.Mutex

	unsubscribe := b.add(clientID, func(_ context.Context, e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			droppedTotal.WithLabelValues(e.Kind()).Inc()
		}
	})

	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

func (b *Bus) add(client string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, client: client, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every matching subscriber before returning.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		if s.client == "" || s.client == e.Client() {
			s.fn(ctx, e)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

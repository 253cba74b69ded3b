// Package event relays storefront signals to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/signal"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics.
const (
	TopicCartChanged = "storefront.cart.changed"
	TopicAuthChanged = "storefront.auth.changed"
)

// Aggregate types and source for event envelopes.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeSession = "session"
	SourceStorefront     = "storefront"
)

// CartChangedData is the payload of a cart.changed event.
type CartChangedData struct {
	ClientID  string `json:"client_id"`
	ItemCount int    `json:"item_count"`
	Total     string `json:"total"`
}

// AuthChangedData is the payload of an auth.changed event.
type AuthChangedData struct {
	ClientID      string `json:"client_id"`
	Authenticated bool   `json:"authenticated"`
}

// Publisher sends an event envelope to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type queued struct {
	ctx   context.Context
	event signal.Event
}

// Relay forwards bus signals to Kafka from a background goroutine, so
// publishing a signal never waits on the broker.
type Relay struct {
	publisher Publisher
	logger    *slog.Logger
	queue     chan queued
}

// NewRelay creates a relay with room for buffer pending signals.
func NewRelay(p Publisher, logger *slog.Logger, buffer int) *Relay {
	return &Relay{
		publisher: p,
		logger:    logger,
		queue:     make(chan queued, buffer),
	}
}

// Attach subscribes the relay to bus and returns the unsubscribe func.
func (r *Relay) Attach(bus *signal.Bus) func() {
	return bus.Subscribe(r.enqueue)
}

func (r *Relay) enqueue(ctx context.Context, e signal.Event) {
	select {
	case r.queue <- queued{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		r.logger.WarnContext(ctx, "event relay queue full, dropping signal",
			slog.String("kind", e.Kind()),
		)
	}
}

// Run publishes queued signals until ctx is done, then drains what is left.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case q := <-r.queue:
			r.forward(q.ctx, q.event)
		case <-ctx.Done():
			for {
				select {
				case q := <-r.queue:
					r.forward(q.ctx, q.event)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) forward(ctx context.Context, e signal.Event) {
	topic, env, err := envelope(e)
	if err != nil {
		r.logger.ErrorContext(ctx, "build event envelope", slog.String("error", err.Error()))
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		env.WithCorrelationID(id)
	}
	if err := r.publisher.Publish(ctx, topic, env); err != nil {
		r.logger.WarnContext(ctx, "relay signal to kafka failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}

func envelope(e signal.Event) (string, *pkgkafka.Event, error) {
	switch ev := e.(type) {
	case signal.CartChanged:
		env, err := pkgkafka.NewEvent("cart.changed", ev.ClientID, AggregateTypeCart, SourceStorefront, CartChangedData{
			ClientID:  ev.ClientID,
			ItemCount: ev.Count,
			Total:     ev.Total.StringFixed(2),
		})
		return TopicCartChanged, env, err
	case signal.AuthChanged:
		env, err := pkgkafka.NewEvent("auth.changed", ev.ClientID, AggregateTypeSession, SourceStorefront, AuthChangedData{
			ClientID:      ev.ClientID,
			Authenticated: ev.Authenticated,
		})
		return TopicAuthChanged, env, err
	default:
		return "", nil, fmt.Errorf("unsupported signal %T", e)
	}
}

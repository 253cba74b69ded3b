package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var degradedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_storage_degraded_total",
		Help: "Storage operations served from the in-memory shadow after a backend failure",
	},
	[]string{"op"},
)

// Shadow bounds applied when no option overrides them.
const (
	DefaultShadowLimit = 10000
	DefaultShadowTTL   = time.Hour
)

// shadowEntry is a write that could not reach the backend.
type shadowEntry struct {
	value   []byte
	deleted bool
	written time.Time
}

// ResilientOption configures a Resilient.
type ResilientOption func(*Resilient)

// WithShadowLimit caps how many keys the shadow holds. Non-positive values
// keep the default.
func WithShadowLimit(n int) ResilientOption {
	return func(r *Resilient) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithShadowTTL sets how long a shadowed write is served before the backend
// is consulted again. Non-positive values keep the default.
func WithShadowTTL(d time.Duration) ResilientOption {
	return func(r *Resilient) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// Resilient wraps a backend so that a failing write never loses state for the
// life of the process: the value is kept in an in-memory shadow and served
// from there until a later write reaches the backend.
type Resilient struct {
	backend Storage
	logger  *slog.Logger

	limit int
	ttl   time.Duration

	mu     sync.RWMutex
	shadow map[string]shadowEntry
}

// NewResilient decorates backend with an in-memory fallback. The shadow holds
// at most DefaultShadowLimit keys for DefaultShadowTTL each unless opts say
// otherwise; when full, expired entries are swept and then the oldest is
// evicted.
func NewResilient(backend Storage, logger *slog.Logger, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		backend: backend,
		logger:  logger,
		limit:   DefaultShadowLimit,
		ttl:     DefaultShadowTTL,
		shadow:  make(map[string]shadowEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get prefers a shadowed value over the backend. A backend read failure is
// returned to the caller, which treats it as absent state.
func (r *Resilient) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	k := Key(clientID, key)

	r.mu.RLock()
	e, ok := r.shadow[k]
	r.mu.RUnlock()
	if ok && r.expired(e, time.Now()) {
		r.mu.Lock()
		if cur, still := r.shadow[k]; still && r.expired(cur, time.Now()) {
			delete(r.shadow, k)
		}
		r.mu.Unlock()
		ok = false
	}
	if ok {
		if e.deleted {
			return nil, ErrNotFound(clientID, key)
		}
		return append([]byte(nil), e.value...), nil
	}

	v, err := r.backend.Get(ctx, clientID, key)
	if err != nil && !IsNotFound(err) {
		degradedTotal.WithLabelValues("get").Inc()
		r.logger.WarnContext(ctx, "storage read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return v, err
}

// Set writes through to the backend. On failure the value is shadowed and
// nil is returned.
func (r *Resilient) Set(ctx context.Context, clientID, key string, value []byte) error {
	return r.write(ctx, "set", clientID, key, shadowEntry{value: append([]byte(nil), value...)}, func() error {
		return r.backend.Set(ctx, clientID, key, value)
	})
}

// Delete removes through to the backend. On failure a tombstone is shadowed.
func (r *Resilient) Delete(ctx context.Context, clientID, key string) error {
	return r.write(ctx, "delete", clientID, key, shadowEntry{deleted: true}, func() error {
		return r.backend.Delete(ctx, clientID, key)
	})
}

func (r *Resilient) write(ctx context.Context, op, clientID, key string, entry shadowEntry, do func() error) error {
	k := Key(clientID, key)

	if err := do(); err != nil {
		degradedTotal.WithLabelValues(op).Inc()
		r.logger.WarnContext(ctx, "storage write failed, keeping value in memory",
			slog.String("op", op),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		entry.written = time.Now()
		r.mu.Lock()
		r.store(k, entry)
		r.mu.Unlock()
		return nil
	}

	r.mu.Lock()
	delete(r.shadow, k)
	r.mu.Unlock()
	return nil
}

// store inserts e under k, making room first when the shadow is full.
// Callers hold r.mu.
func (r *Resilient) store(k string, e shadowEntry) {
	if _, exists := r.shadow[k]; !exists && len(r.shadow) >= r.limit {
		r.sweep(e.written)
		if len(r.shadow) >= r.limit {
			r.evictOldest()
		}
	}
	r.shadow[k] = e
}

func (r *Resilient) sweep(now time.Time) {
	for k, e := range r.shadow {
		if r.expired(e, now) {
			delete(r.shadow, k)
		}
	}
}

func (r *Resilient) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for k, e := range r.shadow {
		if oldest == "" || e.written.Before(at) {
			oldest, at = k, e.written
		}
	}
	if oldest != "" {
		delete(r.shadow, oldest)
		degradedTotal.WithLabelValues("evict").Inc()
	}
}

func (r *Resilient) expired(e shadowEntry, now time.Time) bool {
	return now.Sub(e.written) >= r.ttl
}

// Ping reports backend health.
func (r *Resilient) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

// Shadowed returns how many keys are currently served from memory.
func (r *Resilient) Shadowed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shadow)
}

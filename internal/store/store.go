// Package store implements the per-client cart, wishlist and session state on
// top of storage.Storage.
package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/logger"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_store_mutations_total",
		Help: "Persisted cart, wishlist and session mutations",
	},
	[]string{"store", "op"},
)

// loadJSON decodes key into dst. It reports false when the value is absent,
// unreadable or malformed; the last two are logged and never surfaced.
func loadJSON(ctx context.Context, s storage.Storage, l *slog.Logger, clientID, key string, dst any) bool {
	raw, err := s.Get(ctx, clientID, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			logger.WithContext(ctx, l).WarnContext(ctx, "stored value unreadable, using empty state",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.WithContext(ctx, l).WarnContext(ctx, "stored value malformed, using empty state",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// saveJSON persists v under key. A write failure is logged; the caller's
// in-memory state stays authoritative for the request.
func saveJSON(ctx context.Context, s storage.Storage, l *slog.Logger, clientID, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.WithContext(ctx, l).ErrorContext(ctx, "encode state", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.Set(ctx, clientID, key, raw); err != nil {
		logger.WithContext(ctx, l).WarnContext(ctx, "persist state failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func deleteKey(ctx context.Context, s storage.Storage, l *slog.Logger, clientID, key string) {
	if err := s.Delete(ctx, clientID, key); err != nil {
		logger.WithContext(ctx, l).WarnContext(ctx, "delete state failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

package store

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/validator"
)

// WishlistStore owns the persisted wishlist of each client. Unlike the cart
// it publishes no signal: nothing renders a wishlist badge.
type WishlistStore struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewWishlistStore creates a wishlist store.
func NewWishlistStore(s storage.Storage, logger *slog.Logger) *WishlistStore {
	return &WishlistStore{storage: s, logger: logger}
}

// Load returns the client's wishlist, empty when absent or unreadable.
func (s *WishlistStore) Load(ctx context.Context, clientID string) *domain.Wishlist {
	w := domain.NewWishlist()
	var items []domain.ProductSnapshot
	if loadJSON(ctx, s.storage, s.logger, clientID, storage.KeyWishlist, &items) && items != nil {
		w.Items = items
		w.Normalize()
	}
	return w
}

// Toggle adds p when absent and removes it when present.
func (s *WishlistStore) Toggle(ctx context.Context, clientID string, p domain.ProductSnapshot) (*domain.Wishlist, bool, error) {
	if err := validator.Validate(p); err != nil {
		return nil, false, err
	}

	w := s.Load(ctx, clientID)
	added := w.Toggle(p)
	saveJSON(ctx, s.storage, s.logger, clientID, storage.KeyWishlist, w.Items)
	mutationsTotal.WithLabelValues("wishlist", "toggle").Inc()

	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.Int("product_id", p.ID),
		slog.Bool("added", added),
	)
	return w, added, nil
}

// Contains reports whether productID is wishlisted.
func (s *WishlistStore) Contains(ctx context.Context, clientID string, productID int) bool {
	return s.Load(ctx, clientID).Contains(productID)
}

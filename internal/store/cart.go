package store

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/signal"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartStore owns the persisted cart of each client. Every successful
// mutation is persisted and then announced with signal.CartChanged.
type CartStore struct {
	storage storage.Storage
	bus     *signal.Bus
	logger  *slog.Logger
}

// NewCartStore creates a cart store.
func NewCartStore(s storage.Storage, bus *signal.Bus, logger *slog.Logger) *CartStore {
	return &CartStore{storage: s, bus: bus, logger: logger}
}

// Load returns the client's cart, or an empty cart when none is stored or
// the stored value cannot be read.
func (s *CartStore) Load(ctx context.Context, clientID string) *domain.Cart {
	cart := domain.NewCart()
	var lines []domain.CartLine
	if loadJSON(ctx, s.storage, s.logger, clientID, storage.KeyCart, &lines) && lines != nil {
		cart.Lines = lines
		cart.Normalize()
	}
	return cart
}

// Add puts one unit of p in the cart.
func (s *CartStore) Add(ctx context.Context, clientID string, p domain.ProductSnapshot) (*domain.Cart, error) {
	if err := validator.Validate(p); err != nil {
		return nil, err
	}

	cart := s.Load(ctx, clientID)
	cart.Add(p)
	s.commit(ctx, clientID, "add", cart)

	s.logger.InfoContext(ctx, "cart item added",
		slog.Int("product_id", p.ID),
		slog.Int("count", cart.Count()),
	)
	return cart, nil
}

// Increment adds one to the line for productID.
func (s *CartStore) Increment(ctx context.Context, clientID string, productID int) (*domain.Cart, error) {
	cart := s.Load(ctx, clientID)
	if !cart.Increment(productID) {
		return nil, apperrors.NotFound("cart item", strconv.Itoa(productID))
	}
	s.commit(ctx, clientID, "increment", cart)
	return cart, nil
}

// Decrement removes one from the line for productID; a line at quantity 1
// is removed.
func (s *CartStore) Decrement(ctx context.Context, clientID string, productID int) (*domain.Cart, error) {
	cart := s.Load(ctx, clientID)
	if !cart.Decrement(productID) {
		return nil, apperrors.NotFound("cart item", strconv.Itoa(productID))
	}
	s.commit(ctx, clientID, "decrement", cart)
	return cart, nil
}

// Remove drops the line for productID. An absent line is not an error.
func (s *CartStore) Remove(ctx context.Context, clientID string, productID int) *domain.Cart {
	cart := s.Load(ctx, clientID)
	cart.Remove(productID)
	s.commit(ctx, clientID, "remove", cart)

	s.logger.InfoContext(ctx, "cart item removed", slog.Int("product_id", productID))
	return cart
}

// Clear empties the cart and deletes the stored value.
func (s *CartStore) Clear(ctx context.Context, clientID string) *domain.Cart {
	cart := domain.NewCart()
	deleteKey(ctx, s.storage, s.logger, clientID, storage.KeyCart)
	mutationsTotal.WithLabelValues("cart", "clear").Inc()
	s.publish(ctx, clientID, cart)

	s.logger.InfoContext(ctx, "cart cleared")
	return cart
}

// Total is the exact cart total.
func (s *CartStore) Total(ctx context.Context, clientID string) decimal.Decimal {
	return s.Load(ctx, clientID).Total()
}

// Count is the number of units in the cart.
func (s *CartStore) Count(ctx context.Context, clientID string) int {
	return s.Load(ctx, clientID).Count()
}

func (s *CartStore) commit(ctx context.Context, clientID, op string, cart *domain.Cart) {
	saveJSON(ctx, s.storage, s.logger, clientID, storage.KeyCart, cart.Lines)
	mutationsTotal.WithLabelValues("cart", op).Inc()
	s.publish(ctx, clientID, cart)
}

func (s *CartStore) publish(ctx context.Context, clientID string, cart *domain.Cart) {
	s.bus.Publish(ctx, signal.CartChanged{
		ClientID: clientID,
		Count:    cart.Count(),
		Total:    cart.Total(),
	})
}

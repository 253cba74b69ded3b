package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// CountResponse is the navbar badge value.
type CountResponse struct {
	Count int `json:"count"`
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	cart   *store.CartStore
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart *store.CartStore, logger *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cart.Load(r.Context(), middleware.ClientIDFromRequest(r))
	writeCart(w, cart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cart.Clear(r.Context(), middleware.ClientIDFromRequest(r))
	writeCart(w, cart)
}

// Count handles GET /api/v1/cart/count
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	n := h.cart.Count(r.Context(), middleware.ClientIDFromRequest(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CountResponse{Count: n}})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p domain.ProductSnapshot
	if err := validator.DecodeAndValidate(r, &p, false); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.cart.Add(r.Context(), middleware.ClientIDFromRequest(r), p)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	writeCart(w, cart)
}

// Increment handles POST /api/v1/cart/items/{id}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.cart.Increment)
}

// Decrement handles POST /api/v1/cart/items/{id}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.cart.Decrement)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	cart := h.cart.Remove(r.Context(), middleware.ClientIDFromRequest(r), id)
	writeCart(w, cart)
}

type quantityStep func(ctx context.Context, clientID string, productID int) (*domain.Cart, error)

func (h *CartHandler) step(w http.ResponseWriter, r *http.Request, fn quantityStep) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	cart, err := fn(r.Context(), middleware.ClientIDFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeCart(w, cart)
}

func writeCart(w http.ResponseWriter, cart *domain.Cart) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view.NewCartView(cart)})
}

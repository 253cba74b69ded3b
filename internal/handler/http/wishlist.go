package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// ToggleResponse is the wishlist after a toggle and whether the product was added.
type ToggleResponse struct {
	Items []domain.ProductSnapshot `json:"items"`
	Added bool                     `json:"added"`
}

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	wishlist *store.WishlistStore
	logger   *slog.Logger
}

// NewWishlistHandler creates a wishlist handler.
func NewWishlistHandler(wishlist *store.WishlistStore, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, logger: logger}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wl := h.wishlist.Load(r.Context(), middleware.ClientIDFromRequest(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: wl})
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var p domain.ProductSnapshot
	if err := validator.DecodeAndValidate(r, &p, false); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	wl, added, err := h.wishlist.Toggle(r.Context(), middleware.ClientIDFromRequest(r), p)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ToggleResponse{Items: wl.Items, Added: added}})
}

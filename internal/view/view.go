// Package view assembles the page models served on the navigable routes.
package view

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/store"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Catalog is the product source the pages read from.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
}

// Messages shown in place of content when the catalog cannot be reached.
const (
	msgProductsUnavailable = "Products could not be loaded. Please try again."
	msgProductUnavailable  = "This product could not be loaded. Please try again."
)

// ProductCard is one entry on the listing page.
type ProductCard struct {
	domain.Product
	Wishlisted bool `json:"wishlisted"`
}

// ListingView is the /products page.
type ListingView struct {
	Products         []ProductCard `json:"products"`
	Categories       []string      `json:"categories"`
	SelectedCategory string        `json:"selected_category"`
	Error            string        `json:"error,omitempty"`
}

// DetailView is the /product/{id} page.
type DetailView struct {
	Product    *domain.Product `json:"product,omitempty"`
	Wishlisted bool            `json:"wishlisted"`
	NotFound   bool            `json:"not_found,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// CartLineView is one row of the cart page. Money is rendered to 2 places.
type CartLineView struct {
	domain.CartLine
	LineTotal string `json:"line_total"`
}

// CartView is the /cart page.
type CartView struct {
	Lines    []CartLineView `json:"lines"`
	Subtotal string         `json:"subtotal"`
	Total    string         `json:"total"`
	Count    int            `json:"count"`
}

// Service builds page models from the catalog and the client stores.
type Service struct {
	catalog  Catalog
	cart     *store.CartStore
	wishlist *store.WishlistStore
	logger   *slog.Logger
}

// NewService creates a view service.
func NewService(c Catalog, cart *store.CartStore, wishlist *store.WishlistStore, logger *slog.Logger) *Service {
	return &Service{catalog: c, cart: cart, wishlist: wishlist, logger: logger}
}

// Listing loads products and categories concurrently. A failed category
// fetch leaves the filter empty; a failed product fetch yields an error
// state. If ctx ends first the result is discarded and ctx.Err returned.
func (s *Service) Listing(ctx context.Context, clientID, category string) (*ListingView, error) {
	if category == "" {
		category = catalog.AllCategories
	}

	var (
		products      []domain.Product
		categories    []string
		productsErr   error
		categoriesErr error
		g             errgroup.Group
	)
	g.Go(func() error {
		products, productsErr = s.catalog.ListProducts(ctx)
		return nil
	})
	g.Go(func() error {
		categories, categoriesErr = s.catalog.ListCategories(ctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := &ListingView{
		Products:         []ProductCard{},
		Categories:       []string{},
		SelectedCategory: category,
	}
	if categoriesErr != nil {
		s.logger.WarnContext(ctx, "categories unavailable", slog.String("error", categoriesErr.Error()))
	} else {
		v.Categories = categories
	}
	if productsErr != nil {
		s.logger.WarnContext(ctx, "products unavailable", slog.String("error", productsErr.Error()))
		v.Error = msgProductsUnavailable
		return v, nil
	}

	wl := s.wishlist.Load(ctx, clientID)
	for _, p := range catalog.FilterByCategory(products, category) {
		v.Products = append(v.Products, ProductCard{Product: p, Wishlisted: wl.Contains(p.ID)})
	}
	return v, nil
}

// Detail loads one product. Unknown ids produce a NotFound view.
func (s *Service) Detail(ctx context.Context, clientID string, id int) (*DetailView, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	switch {
	case err == nil:
		return &DetailView{Product: p, Wishlisted: s.wishlist.Contains(ctx, clientID, p.ID)}, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return &DetailView{NotFound: true}, nil
	default:
		s.logger.WarnContext(ctx, "product unavailable",
			slog.String("product_id", strconv.Itoa(id)),
			slog.String("error", err.Error()),
		)
		return &DetailView{Error: msgProductUnavailable}, nil
	}
}

// Cart renders the client's cart.
func (s *Service) Cart(ctx context.Context, clientID string) *CartView {
	return NewCartView(s.cart.Load(ctx, clientID))
}

// NewCartView renders cart. There are no taxes or shipping, so the subtotal
// and total are equal.
func NewCartView(cart *domain.Cart) *CartView {
	v := &CartView{
		Lines:    make([]CartLineView, 0, len(cart.Lines)),
		Subtotal: cart.TotalDisplay(),
		Total:    cart.TotalDisplay(),
		Count:    cart.Count(),
	}
	for _, l := range cart.Lines {
		v.Lines = append(v.Lines, CartLineView{CartLine: l, LineTotal: l.LineTotal().StringFixed(2)})
	}
	return v
}

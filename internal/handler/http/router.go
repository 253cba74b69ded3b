package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/signal"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/view"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// Deps are the services the router dispatches to.
type Deps struct {
	Catalog  view.Catalog
	Views    *view.Service
	Cart     *store.CartStore
	Wishlist *store.WishlistStore
	Session  *store.SessionFlag
	Bus      *signal.Bus
	Health   *health.Handler
	Logger   *slog.Logger

	CORS middleware.CORSConfig
	// PprofCIDRs enables /debug/pprof for the listed networks. Nil disables it.
	PprofCIDRs []string
	// Heartbeat is the idle interval between SSE keepalive comments.
	Heartbeat time.Duration
	// Closing ends open event streams when closed, so a graceful shutdown
	// does not wait on them.
	Closing <-chan struct{}
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(d.CORS))
	r.Use(chimw.StripSlashes)

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if d.PprofCIDRs != nil {
		middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)
	}

	pages := NewPageHandler(d.Views, d.Logger)
	session := NewSessionHandler(d.Session, d.Logger)
	products := NewCatalogHandler(d.Catalog, d.Logger)
	cart := NewCartHandler(d.Cart, d.Logger)
	wishlist := NewWishlistHandler(d.Wishlist, d.Logger)
	events := NewEventsHandler(d.Bus, d.Cart, d.Session, d.Heartbeat, d.Closing, d.Logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientID)
		r.Use(middleware.RequestLogger(d.Logger))

		// The SSE stream is long-lived, so it sits outside the timeout and
		// compression group.
		r.With(middleware.NoStore, RequireSession(d.Session)).Get("/api/v1/events", events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(30 * time.Second))

			// Navigable pages
			r.Group(func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.Use(PageGate(d.Session))

				r.Get(view.RouteLogin, pages.Login)
				r.Get(view.RouteProducts, pages.Products)
				r.Get(view.RouteProduct+"{id}", pages.Product)
				r.Get(view.RouteCart, pages.Cart)
			})

			r.Route("/api/v1", func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Route("/session", func(r chi.Router) {
					r.Use(middleware.NoStore)
					r.Get("/", session.Status)
					r.Post("/", session.SignIn)
					r.Delete("/", session.SignOut)
				})

				r.Group(func(r chi.Router) {
					r.Use(RequireSession(d.Session))

					r.Group(func(r chi.Router) {
						r.Use(middleware.CacheControl(60))
						r.Get("/products", products.ListProducts)
						r.Get("/products/{id}", products.GetProduct)
						r.Get("/categories", products.ListCategories)
					})

					r.Route("/cart", func(r chi.Router) {
						r.Use(middleware.NoStore)
						r.Get("/", cart.GetCart)
						r.Delete("/", cart.ClearCart)
						r.Get("/count", cart.Count)
						r.Post("/items", cart.AddItem)
						r.Post("/items/{id}/increment", cart.Increment)
						r.Post("/items/{id}/decrement", cart.Decrement)
						r.Delete("/items/{id}", cart.RemoveItem)
					})

					r.Route("/wishlist", func(r chi.Router) {
						r.Use(middleware.NoStore)
						r.Get("/", wishlist.GetWishlist)
						r.Post("/toggle", wishlist.Toggle)
					})
				})
			})
		})
	})

	r.NotFound(notFound)

	return r
}

// notFound answers unknown API paths with a JSON 404 and sends every other
// unknown path to the login page.
func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httputil.WriteError(w, r, apperrors.NotFound("route", r.URL.Path), nil)
		return
	}
	http.Redirect(w, r, view.RouteLogin, http.StatusFound)
}

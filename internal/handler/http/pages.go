package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// LoginView is the / page.
type LoginView struct {
	SignInURL string `json:"sign_in_url"`
	NextURL   string `json:"next_url"`
}

// PageHandler serves the navigable pages as view models.
type PageHandler struct {
	views  *view.Service
	logger *slog.Logger
}

// NewPageHandler creates a page handler.
func NewPageHandler(views *view.Service, logger *slog.Logger) *PageHandler {
	return &PageHandler{views: views, logger: logger}
}

// Login handles GET /
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginView{
		SignInURL: "/api/v1/session",
		NextURL:   view.RouteProducts,
	}})
}

// Products handles GET /products?category=
func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.Listing(r.Context(), middleware.ClientIDFromRequest(r), r.URL.Query().Get("category"))
	if err != nil {
		h.abandoned(r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: v})
}

// Product handles GET /product/{id}
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{Data: &view.DetailView{NotFound: true}})
		return
	}

	v, err := h.views.Detail(r.Context(), middleware.ClientIDFromRequest(r), id)
	if err != nil {
		h.abandoned(r, err)
		return
	}

	status := http.StatusOK
	if v.NotFound {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: v})
}

// Cart handles GET /cart
func (h *PageHandler) Cart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: h.views.Cart(r.Context(), middleware.ClientIDFromRequest(r)),
	})
}

// abandoned logs a page whose request context ended before it was built.
// Nothing is written: the client is gone, or the timeout middleware answers.
func (h *PageHandler) abandoned(r *http.Request, err error) {
	h.logger.DebugContext(r.Context(), "page abandoned",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// SessionResponse reports the session flag and where the client should go next.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Redirect      string `json:"redirect"`
}

// SessionHandler handles the login gate.
type SessionHandler struct {
	session *store.SessionFlag
	logger  *slog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(session *store.SessionFlag, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger}
}

// Status handles GET /api/v1/session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	authed := h.session.IsAuthenticated(r.Context(), middleware.ClientIDFromRequest(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionResponse(authed)})
}

// SignIn handles POST /api/v1/session. The body is optional and never checked.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds store.Credentials
	if err := validator.DecodeAndValidate(r, &creds, true); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.session.SignIn(r.Context(), middleware.ClientIDFromRequest(r), creds)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionResponse(true)})
}

// SignOut handles DELETE /api/v1/session
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.SignOut(r.Context(), middleware.ClientIDFromRequest(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionResponse(false)})
}

func sessionResponse(authed bool) SessionResponse {
	if authed {
		return SessionResponse{Authenticated: true, Redirect: view.RouteProducts}
	}
	return SessionResponse{Redirect: view.RouteLogin}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/signal"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/middleware"
)

const (
	defaultHeartbeat = 15 * time.Second
	streamBuffer     = 16
)

// CartEvent is the data of a "cart" stream event.
type CartEvent struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

// AuthEvent is the data of an "auth" stream event.
type AuthEvent struct {
	Authenticated bool `json:"authenticated"`
}

// EventsHandler streams a client's signals as Server-Sent Events.
type EventsHandler struct {
	bus       *signal.Bus
	cart      *store.CartStore
	session   *store.SessionFlag
	heartbeat time.Duration
	closing   <-chan struct{}
	logger    *slog.Logger
}

// NewEventsHandler creates an SSE handler. A zero heartbeat uses 15s. Streams
// end when closing is closed; a nil closing never fires.
func NewEventsHandler(bus *signal.Bus, cart *store.CartStore, session *store.SessionFlag, heartbeat time.Duration, closing <-chan struct{}, logger *slog.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &EventsHandler{
		bus:       bus,
		cart:      cart,
		session:   session,
		heartbeat: heartbeat,
		closing:   closing,
		logger:    logger,
	}
}

// Stream handles GET /api/v1/events. It sends the current session state and
// badge first, then every cart and auth change for the client until the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := middleware.ClientIDFromRequest(r)

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.DebugContext(ctx, "clear write deadline", slog.String("error", err.Error()))
	}

	events, cancel := h.bus.Stream(clientID, streamBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	cart := h.cart.Load(ctx, clientID)
	authed := h.session.IsAuthenticated(ctx, clientID)
	if err := h.send(w, rc, signal.KindAuth, AuthEvent{Authenticated: authed}); err != nil {
		h.logger.DebugContext(ctx, "event stream closed", slog.String("error", err.Error()))
		return
	}
	if err := h.send(w, rc, signal.KindCart, CartEvent{Count: cart.Count(), Total: cart.TotalDisplay()}); err != nil {
		h.logger.DebugContext(ctx, "event stream closed", slog.String("error", err.Error()))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := h.send(w, rc, e.Kind(), payload(e)); err != nil {
				h.logger.DebugContext(ctx, "event stream closed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *EventsHandler) send(w http.ResponseWriter, rc *http.ResponseController, kind string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, b); err != nil {
		return fmt.Errorf("write %s event: %w", kind, err)
	}
	return rc.Flush()
}

func payload(e signal.Event) any {
	switch ev := e.(type) {
	case signal.CartChanged:
		return CartEvent{Count: ev.Count, Total: ev.Total.StringFixed(2)}
	case signal.AuthChanged:
		return AuthEvent{Authenticated: ev.Authenticated}
	default:
		return nil
	}
}

package store

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront/internal/signal"
	"github.com/utafrali/storefront/internal/storage"
)

const sessionValue = "true"

// Credentials is what the login form submits. Neither field is checked.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionFlag is the per-client "has visited login" marker that gates the
// storefront pages. It is not an authentication mechanism.
type SessionFlag struct {
	storage storage.Storage
	bus     *signal.Bus
	logger  *slog.Logger
}

// NewSessionFlag creates a session flag store.
func NewSessionFlag(s storage.Storage, bus *signal.Bus, logger *slog.Logger) *SessionFlag {
	return &SessionFlag{storage: s, bus: bus, logger: logger}
}

// SignIn marks the client authenticated. Any credentials succeed.
func (f *SessionFlag) SignIn(ctx context.Context, clientID string, _ Credentials) {
	if err := f.storage.Set(ctx, clientID, storage.KeySession, []byte(sessionValue)); err != nil {
		f.logger.WarnContext(ctx, "persist session flag failed", slog.String("error", err.Error()))
	}
	mutationsTotal.WithLabelValues("session", "sign_in").Inc()
	f.bus.Publish(ctx, signal.AuthChanged{ClientID: clientID, Authenticated: true})
	f.logger.InfoContext(ctx, "client signed in")
}

// SignOut clears the flag.
func (f *SessionFlag) SignOut(ctx context.Context, clientID string) {
	deleteKey(ctx, f.storage, f.logger, clientID, storage.KeySession)
	mutationsTotal.WithLabelValues("session", "sign_out").Inc()
	f.bus.Publish(ctx, signal.AuthChanged{ClientID: clientID, Authenticated: false})
	f.logger.InfoContext(ctx, "client signed out")
}

// IsAuthenticated reports whether the flag is present. Read failures count
// as anonymous.
func (f *SessionFlag) IsAuthenticated(ctx context.Context, clientID string) bool {
	_, err := f.storage.Get(ctx, clientID, storage.KeySession)
	return err == nil
}

package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/middleware"
)

func testConfig(catalogURL string) *config.Config {
	return &config.Config{
		Environment:        "test",
		LogLevel:           "error",
		HTTPPort:           0,
		CatalogBaseURL:     catalogURL,
		CatalogTimeout:     time.Second,
		CatalogMaxRetries:  0,
		StorageDriver:      config.DriverMemory,
		StorageTTLHours:    1,
		OTELSampleRate:     1,
		CORSAllowedOrigins: []string{"*"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_MemoryDriver(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer catalog.Close()

	a, err := NewApp(testConfig(catalog.URL), testLogger())
	require.NoError(t, err)
	assert.Nil(t, a.relay)
	assert.Nil(t, a.purger)

	h := a.httpServer.Handler
	client := uuid.NewString()
	send := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set(middleware.ClientIDHeader, client)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/health/ready", nil).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/v1/session", nil).Code)

	rec := send(http.MethodPost, "/api/v1/cart/items", []byte(`{"id":1,"title":"Backpack","price":109.95}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"109.95"`)

	rec = send(http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, a.Shutdown())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := NewApp(testConfig("http://127.0.0.1:1"), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-a.closing:
	default:
		t.Fatal("event streams were not told to close")
	}
}

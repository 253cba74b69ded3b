package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLogging_ReusesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("storefront", "info", &buf)

	h := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-1", logger.CorrelationIDFromContext(r.Context()))
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.Header.Set(CorrelationIDHeader, "corr-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-1", rec.Header().Get(CorrelationIDHeader))
	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "http request", lines[0]["msg"])
	assert.Equal(t, float64(http.StatusCreated), lines[0]["status"])
	assert.Equal(t, "/api/v1/cart/items", lines[0]["path"])
}

func TestRequestLogging_MintsCorrelationIDAndLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("storefront", "info", &buf)

	h := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	_, err := uuid.Parse(rec.Header().Get(CorrelationIDHeader))
	assert.NoError(t, err)
	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])
}

func TestRequestLogger_EnrichesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("storefront", "info", &buf)
	clientID := uuid.NewString()

	chain := RequestLogging(slog.New(slog.DiscardHandler))(
		ClientID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
		}))),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(ClientIDHeader, clientID)
	req.Header.Set(CorrelationIDHeader, "corr-2")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	lines := jsonLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, clientID, lines[0]["client_id"])
	assert.Equal(t, "corr-2", lines[0]["correlation_id"])
}

func TestClientID(t *testing.T) {
	existing := uuid.NewString()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid id is kept", existing, true},
		{"missing id is minted", "", false},
		{"malformed id is replaced", "../../etc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := ClientID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ClientIDFromRequest(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(ClientIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(ClientIDHeader))
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(logger.NewWithWriter("storefront", "info", &buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}

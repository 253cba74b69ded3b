package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantSent   error
		wantMsg    string
	}{
		{"not found", http.StatusNotFound, "", http.StatusNotFound, apperrors.ErrNotFound, "product with id 7 not found"},
		{"bad request nested", http.StatusBadRequest, `{"error":{"message":"bad id"}}`, http.StatusBadRequest, apperrors.ErrInvalidInput, "catalog: bad id"},
		{"bad request flat", http.StatusBadRequest, `{"message":"nope"}`, http.StatusBadRequest, apperrors.ErrInvalidInput, "catalog: nope"},
		{"server error", http.StatusBadGateway, `upstream down`, http.StatusServiceUnavailable, apperrors.ErrServiceUnavail, "catalog is unavailable"},
		{"forbidden", http.StatusForbidden, `{"error":"denied"}`, http.StatusServiceUnavailable, apperrors.ErrServiceUnavail, "catalog is unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "catalog", "product", "7")

			var appErr *apperrors.AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, tt.wantStatus, appErr.Status)
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
			assert.ErrorIs(t, err, tt.wantSent)
		})
	}
}

func TestUpstreamMessage_TruncatesRawBodies(t *testing.T) {
	msg := upstreamMessage([]byte(strings.Repeat("x", 1000)))
	assert.Len(t, msg, 256)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}

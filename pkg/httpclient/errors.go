package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// upstreamErrorBody covers the common JSON error shapes of public REST APIs:
// {"error":{"code":..,"message":..}}, {"error":"..."} and {"message":"..."}.
type upstreamErrorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ParseResponseError reads a non-2xx response and maps it to an AppError.
// The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName, resource, id string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Unavailable(serviceName,
			fmt.Errorf("status %d, read body: %w", resp.StatusCode, err))
	}

	message := upstreamMessage(bodyBytes)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(resource, id)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(fmt.Sprintf("%s: %s", serviceName, message))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return apperrors.Unavailable(serviceName, fmt.Errorf("access denied (%d): %s", resp.StatusCode, message))
	default:
		return apperrors.Unavailable(serviceName, fmt.Errorf("status %d: %s", resp.StatusCode, message))
	}
}

func upstreamMessage(body []byte) string {
	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		if len(parsed.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var s string
			if json.Unmarshal(parsed.Error, &s) == nil && s != "" {
				return s
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}

// IsClientError returns true if status is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

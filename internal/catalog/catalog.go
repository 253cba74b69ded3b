// Package catalog reads products and categories from a fakestoreapi-style
// product API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/slug"
)

const (
	serviceName  = "catalog"
	maxBodyBytes = 8 << 20

	// AllCategories selects every product in FilterByCategory.
	AllCategories = "all"
)

// Config holds catalog client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
	Burst      int
}

// Client fetches catalog data. Concurrent identical requests share one
// upstream call, and all calls pass through a rate limiter and a circuit
// breaker.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	limiter *rate.Limiter
	group   singleflight.Group
	tracer  trace.Tracer
	logger  *slog.Logger
}

// New creates a catalog client.
func New(cfg Config, logger *slog.Logger) *Client {
	hc := httpclient.New(httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 20,
		UserAgent:       "storefront/1.0",
	})

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpclient.NewCircuitBreakerClient(hc, httpclient.DefaultCircuitBreakerConfig(serviceName), logger),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		tracer:  otel.Tracer("github.com/utafrali/storefront/internal/catalog"),
		logger:  logger,
	}
}

// ListProducts returns every product.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.getJSON(ctx, "/products", "", "", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// ListCategories returns the category names.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "/products/categories", "", "", &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// GetProduct returns one product. Unknown ids map to a NotFound error; the
// upstream answers those with 200 and an empty or null body.
func (c *Client) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	idStr := strconv.Itoa(id)
	var p *domain.Product
	if err := c.getJSON(ctx, "/products/"+idStr, "product", idStr, &p); err != nil {
		return nil, err
	}
	if p == nil || p.ID == 0 {
		return nil, apperrors.NotFound("product", idStr)
	}
	return p, nil
}

// Check reports the circuit breaker state for readiness probes.
func (c *Client) Check(ctx context.Context) error {
	return c.http.Check(ctx)
}

// getJSON fetches path and decodes it into dst. resource and id name the
// entity for NotFound errors; list endpoints pass "".
func (c *Client) getJSON(ctx context.Context, path, resource, id string, dst any) (err error) {
	ctx, span := c.tracer.Start(ctx, "catalog GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog.path", path)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := c.fetch(ctx, path, resource, id)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if resource != "" {
			return apperrors.NotFound(resource, id)
		}
		return apperrors.Unavailable(serviceName, fmt.Errorf("GET %s: empty response", path))
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return apperrors.Unavailable(serviceName, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// fetch returns the raw body of a 2xx response. Identical in-flight paths
// are collapsed. The shared call is detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx ends.
func (c *Client) fetch(ctx context.Context, path, resource, id string) ([]byte, error) {
	ch := c.group.DoChan(path, func() (any, error) {
		return c.do(context.WithoutCancel(ctx), path, resource, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) do(ctx context.Context, path, resource, id string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Unavailable(serviceName, fmt.Errorf("rate limit: %w", err))
	}

	start := time.Now()
	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog request failed",
			slog.String("path", path),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable(serviceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resource == "" {
			resource, id = "catalog resource", path
		}
		return nil, httpclient.ParseResponseError(resp, serviceName, resource, id)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Unavailable(serviceName, fmt.Errorf("read %s: %w", path, err))
	}

	c.logger.DebugContext(ctx, "catalog request",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// FilterByCategory returns the products in category, preserving order. The
// category may be given by name or by slug ("mens-clothing"). AllCategories
// or "" returns products unchanged.
func FilterByCategory(products []domain.Product, category string) []domain.Product {
	if category == "" || category == AllCategories {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if slug.Matches(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}


package httpcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefrontlab/cart-service/internal/domain"
	apperrors "github.com/storefrontlab/cart-service/pkg/errors"
	"github.com/storefrontlab/cart-service/pkg/httpclient"
)

// Client resolves product snapshots from the catalog service over HTTP,
// behind a circuit breaker. An optional Redis cache can hold snapshots for a
// short TTL; with TTL zero (the default) every read goes to the catalog so
// views always reflect current values.
type Client struct {
	baseURL  string
	http     *httpclient.BreakerClient
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithSnapshotCache enables read-through caching of snapshots in Redis for
// the given TTL. A non-positive TTL leaves caching off.
func WithSnapshotCache(cache *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		if cache != nil && ttl > 0 {
			c.cache = cache
			c.cacheTTL = ttl
		}
	}
}

// New creates a catalog client for the given base URL.
func New(baseURL string, http *httpclient.BreakerClient, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    http,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// productEnvelope matches the catalog service's response body.
type productEnvelope struct {
	Data *domain.ProductSnapshot `json:"data"`
}

// GetProduct fetches the current snapshot for a product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.ProductSnapshot, error) {
	if snapshot := c.fromCache(ctx, productID); snapshot != nil {
		return snapshot, nil
	}

	url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, productID)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, apperrors.CatalogUnavailable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode below.
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("product", productID)
	default:
		return nil, apperrors.CatalogUnavailable(
			fmt.Errorf("catalog returned status %d", resp.StatusCode))
	}

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, apperrors.TransformFailed(fmt.Errorf("decode product %s: %w", productID, err))
	}
	if envelope.Data == nil {
		return nil, apperrors.TransformFailed(fmt.Errorf("product %s: empty payload", productID))
	}

	c.toCache(ctx, productID, envelope.Data)

	return envelope.Data, nil
}

func (c *Client) cacheKey(productID string) string {
	return "cart:product:" + productID
}

func (c *Client) fromCache(ctx context.Context, productID string) *domain.ProductSnapshot {
	if c.cache == nil {
		return nil
	}

	raw, err := c.cache.Get(ctx, c.cacheKey(productID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "snapshot cache read failed",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var snapshot domain.ProductSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten.
		return nil
	}
	return &snapshot
}

func (c *Client) toCache(ctx context.Context, productID string, snapshot *domain.ProductSnapshot) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(productID), raw, c.cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "snapshot cache write failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

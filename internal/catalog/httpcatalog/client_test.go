package httpcatalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storefrontlab/cart-service/pkg/errors"
	"github.com/storefrontlab/cart-service/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBreakerClient() *httpclient.BreakerClient {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return httpclient.NewBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-test"),
		testLogger(),
	)
}

const productJSON = `{
	"data": {
		"id": "prod-3",
		"name": "Walnut Desk",
		"description": "Solid walnut writing desk",
		"price": 24900,
		"stock_quantity": 14,
		"image_url": "https://img.example.com/desk.jpg"
	}
}`

func TestGetProduct_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/prod-3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productJSON))
	}))
	defer srv.Close()

	client := New(srv.URL, testBreakerClient(), testLogger())

	snapshot, err := client.GetProduct(context.Background(), "prod-3")

	require.NoError(t, err)
	assert.Equal(t, "prod-3", snapshot.ID)
	assert.Equal(t, "Walnut Desk", snapshot.Name)
	assert.Equal(t, int64(24900), snapshot.Price)
	assert.Equal(t, 14, snapshot.StockQuantity)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.URL, testBreakerClient(), testLogger())

	snapshot, err := client.GetProduct(context.Background(), "prod-gone")

	assert.Nil(t, snapshot)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGetProduct_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, testBreakerClient(), testLogger())

	snapshot, err := client.GetProduct(context.Background(), "prod-3")

	assert.Nil(t, snapshot)
	assert.True(t, errors.Is(err, apperrors.ErrCatalogUnavailable))
}

func TestGetProduct_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	client := New(srv.URL, testBreakerClient(), testLogger())

	snapshot, err := client.GetProduct(context.Background(), "prod-3")

	assert.Nil(t, snapshot)
	assert.True(t, errors.Is(err, apperrors.ErrCatalogUnavailable))
}

func TestGetProduct_MalformedBodyIsTransformFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": not-json`))
	}))
	defer srv.Close()

	client := New(srv.URL, testBreakerClient(), testLogger())

	snapshot, err := client.GetProduct(context.Background(), "prod-3")

	assert.Nil(t, snapshot)
	assert.True(t, errors.Is(err, apperrors.ErrTransformFailed))
}

func TestGetProduct_SnapshotCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(productJSON))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := New(srv.URL, testBreakerClient(), testLogger(),
		WithSnapshotCache(cache, 30*time.Second))

	first, err := client.GetProduct(context.Background(), "prod-3")
	require.NoError(t, err)

	second, err := client.GetProduct(context.Background(), "prod-3")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), hits.Load(), "second read must be served from cache")

	// After the TTL passes, the next read goes back to the catalog.
	mr.FastForward(time.Minute)
	_, err = client.GetProduct(context.Background(), "prod-3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGetProduct_ZeroTTLDisablesCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(productJSON))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := New(srv.URL, testBreakerClient(), testLogger(),
		WithSnapshotCache(cache, 0))

	for range 3 {
		_, err := client.GetProduct(context.Background(), "prod-3")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), hits.Load(), "every read must hit the catalog")
}

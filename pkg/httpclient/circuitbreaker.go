package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a request outright.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreakerConfig holds breaker settings.
type CircuitBreakerConfig struct {
	Name         string
	MaxRequests  uint32        // requests allowed through in half-open state
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open-state duration before half-open
	FailureRatio float64       // failure ratio that trips the breaker
	MinRequests  uint32        // minimum samples before the ratio is evaluated
}

// DefaultCircuitBreakerConfig returns breaker defaults for the named target.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

// BreakerClient wraps a Client with circuit breaker protection. Responses
// with 5xx status count as failures.
type BreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerClient wraps client with a gobreaker circuit breaker.
func NewBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}

	return &BreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Get issues a GET request through the breaker.
func (c *BreakerClient) Get(ctx context.Context, url string) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Get(ctx, url)
		if err != nil {
			return nil, err
		}
		// Count server errors against the breaker, but hand the response back
		// so the caller can read the body.
		if resp.StatusCode >= 500 {
			return resp, &serverError{status: resp.StatusCode}
		}
		return resp, nil
	})

	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return resp, err
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return http.StatusText(e.status)
}

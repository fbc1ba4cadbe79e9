package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	h := NewHandler()
	rec := httptest.NewRecorder()

	h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var rep Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, StatusUp, rep.Status)
}

func TestReadiness_AllUp(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(ctx context.Context) error { return nil })
	h.Register("kafka", func(ctx context.Context) error { return nil })
	rec := httptest.NewRecorder()

	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var rep Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, StatusUp, rep.Status)
	assert.Len(t, rep.Checks, 2)
}

func TestReadiness_OneDown(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(ctx context.Context) error { return nil })
	h.Register("catalog", func(ctx context.Context) error { return errors.New("dial timeout") })
	rec := httptest.NewRecorder()

	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var rep Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, StatusDown, rep.Status)
	assert.Equal(t, StatusDown, rep.Checks["catalog"].Status)
	assert.Equal(t, "dial timeout", rep.Checks["catalog"].Error)
}

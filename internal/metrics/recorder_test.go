package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamResult(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"nil":          {nil, "success"},
		"rate limit":   {fmt.Errorf("lists: %w", model.ErrRateLimited), "rate_limited"},
		"unauthorized": {model.ErrUnauthorized, "unauthorized"},
		"not found":    {model.ErrNotFound, "not_found"},
		"timeout":      {fmt.Errorf("cards: %w", model.ErrTimeout), "timeout"},
		"canceled":     {fmt.Errorf("request cancelado: %w", context.Canceled), "canceled"},
		"other":        {errors.New("boom"), "error"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, upstreamResult(tt.err))
		})
	}
}

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder(nil)

	r.ObserveScrape(120*time.Millisecond, true)
	r.ObserveScrape(80*time.Millisecond, false)
	r.ObserveScrape(50*time.Millisecond, true)
	r.SetActiveCards(42)
	r.IncUpstreamRequest("cards", nil)
	r.IncUpstreamRequest("cards", model.ErrRateLimited)
	r.TrackEndpoint("/metrics", http.MethodGet, http.StatusOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.scrapes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scrapes.WithLabelValues("failed")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.activeCards))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstream.WithLabelValues("cards", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/metrics", "200")))
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveScrape(time.Second, true)
		r.SetActiveCards(1)
		r.IncUpstreamRequest("board", nil)
		r.TrackEndpoint("/", http.MethodGet, http.StatusOK)
	})
}

func TestRecorderUptime(t *testing.T) {
	r := NewRecorder(nil)
	time.Sleep(5 * time.Millisecond)

	assert.GreaterOrEqual(t, r.GetUptime(), 5*time.Millisecond)

	var nilRecorder *Recorder
	assert.Equal(t, time.Duration(0), nilRecorder.GetUptime())
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder(nil)
	r.ObserveScrape(time.Second, true)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/exporter", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `trello_exporter_scrapes_total{result="success"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

type fakeValidator struct{ err error }

func (f fakeValidator) ValidateToken(context.Context) error { return f.err }

func TestCheckUpstreamHealth(t *testing.T) {
	assert.Equal(t, "healthy", CheckUpstreamHealth(context.Background(), fakeValidator{}).Status)

	st := CheckUpstreamHealth(context.Background(), fakeValidator{err: model.ErrUnauthorized})
	assert.Equal(t, "unhealthy", st.Status)
	assert.NotEmpty(t, st.Message)

	assert.Equal(t, "unhealthy", CheckUpstreamHealth(context.Background(), nil).Status)
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "healthy", DetermineOverallStatus(map[string]HealthStatus{
		"a": {Status: "healthy"},
	}))
	assert.Equal(t, "degraded", DetermineOverallStatus(map[string]HealthStatus{
		"a": {Status: "healthy"}, "b": {Status: "degraded"},
	}))
	assert.Equal(t, "unhealthy", DetermineOverallStatus(map[string]HealthStatus{
		"a": {Status: "degraded"}, "b": {Status: "unhealthy"},
	}))
}

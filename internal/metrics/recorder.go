package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pmaxhogan/trello-to-prometheus/internal/model"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trello_exporter"

// Recorder holds the exporter's own metrics. Board metrics are never stored
// here; they are recomputed on every scrape.
type Recorder struct {
	registry       *prom.Registry
	scrapes        *prom.CounterVec
	scrapeDuration prom.Histogram
	upstream       *prom.CounterVec
	httpRequests   *prom.CounterVec
	activeCards    prom.Gauge
	startTime      time.Time
}

// NewRecorder creates the exporter metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry:  reg,
		startTime: time.Now(),
		scrapes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scrapes_total",
			Help:      "Board snapshots rendered, by result",
		}, []string{"result"}),
		scrapeDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Time spent fetching and rendering a board snapshot",
			Buckets:   prom.DefBuckets,
		}),
		upstream: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Trello API calls by endpoint and result",
		}, []string{"endpoint", "result"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the exporter",
		}, []string{"method", "path", "status"}),
		activeCards: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scrape_active_cards",
			Help:      "Cards that survived filtering in the last successful scrape",
		}),
	}
	reg.MustRegister(
		r.scrapes,
		r.scrapeDuration,
		r.upstream,
		r.httpRequests,
		r.activeCards,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveScrape records one snapshot render
func (r *Recorder) ObserveScrape(d time.Duration, success bool) {
	if r == nil {
		return
	}
	r.scrapeDuration.Observe(d.Seconds())
	res := "failed"
	if success {
		res = "success"
	}
	r.scrapes.WithLabelValues(res).Inc()
}

// SetActiveCards records how many cards the last successful scrape aggregated
func (r *Recorder) SetActiveCards(n int) {
	if r == nil {
		return
	}
	r.activeCards.Set(float64(n))
}

// IncUpstreamRequest records one Trello API call
func (r *Recorder) IncUpstreamRequest(endpoint string, err error) {
	if r == nil {
		return
	}
	r.upstream.WithLabelValues(endpoint, upstreamResult(err)).Inc()
}

// TrackEndpoint records one HTTP request served
func (r *Recorder) TrackEndpoint(path, method string, statusCode int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
}

// GetUptime returns the exporter uptime
func (r *Recorder) GetUptime() time.Duration {
	if r == nil {
		return 0
	}
	return time.Since(r.startTime)
}

// Handler serves the registry in the Prometheus format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func upstreamResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, model.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// Package metrics exposes Prometheus instrumentation for the render service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the render pipeline.
type Metrics struct {
	registry        *prometheus.Registry
	rendersStarted  prometheus.Counter
	rendersDone     prometheus.Counter
	renderFailures  *prometheus.CounterVec
	busyRejections  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	renderDuration  prometheus.Histogram
	encoderBusy     prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	rendersStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reelsmith_renders_started_total",
		Help: "Total number of render jobs admitted to the encoder",
	})
	rendersDone := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reelsmith_renders_completed_total",
		Help: "Total number of render jobs that produced an output file",
	})
	renderFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reelsmith_render_failures_total",
		Help: "Total number of failed render jobs, labeled by error code",
	}, []string{"code"})
	busyRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reelsmith_busy_rejections_total",
		Help: "Total number of requests rejected because a render was in flight",
	})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reelsmith_asset_cache_hits_total",
		Help: "Total number of asset resolutions served from the disk cache",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reelsmith_asset_cache_misses_total",
		Help: "Total number of asset resolutions that required a download",
	})
	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reelsmith_render_duration_seconds",
		Help:    "Wall-clock duration of complete render jobs",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})
	encoderBusy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reelsmith_encoder_busy",
		Help: "1 while the admission gate is held, 0 otherwise",
	})

	registry.MustRegister(
		rendersStarted,
		rendersDone,
		renderFailures,
		busyRejections,
		cacheHits,
		cacheMisses,
		renderDuration,
		encoderBusy,
	)

	return &Metrics{
		registry:       registry,
		rendersStarted: rendersStarted,
		rendersDone:    rendersDone,
		renderFailures: renderFailures,
		busyRejections: busyRejections,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		renderDuration: renderDuration,
		encoderBusy:    encoderBusy,
	}
}

// IncRendersStarted increments the admitted render counter.
func (m *Metrics) IncRendersStarted() {
	m.rendersStarted.Inc()
}

// IncRendersCompleted increments the completed render counter.
func (m *Metrics) IncRendersCompleted() {
	m.rendersDone.Inc()
}

// IncRenderFailure increments the failure counter for an error code.
func (m *Metrics) IncRenderFailure(code string) {
	m.renderFailures.WithLabelValues(code).Inc()
}

// IncBusyRejections increments the busy rejection counter.
func (m *Metrics) IncBusyRejections() {
	m.busyRejections.Inc()
}

// IncCacheHit increments the asset cache hit counter.
func (m *Metrics) IncCacheHit() {
	m.cacheHits.Inc()
}

// IncCacheMiss increments the asset cache miss counter.
func (m *Metrics) IncCacheMiss() {
	m.cacheMisses.Inc()
}

// ObserveRenderDuration records a completed render's wall-clock seconds.
func (m *Metrics) ObserveRenderDuration(seconds float64) {
	m.renderDuration.Observe(seconds)
}

// SetEncoderBusy sets the encoder-busy gauge.
func (m *Metrics) SetEncoderBusy(busy bool) {
	if busy {
		m.encoderBusy.Set(1)
	} else {
		m.encoderBusy.Set(0)
	}
}

// Handler returns an http.Handler that serves the registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

package metrics

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	namespace = "mvc"

	unmatchedRoute = "unmatched"
)

// Metrics collects dispatch outcomes into its own prometheus registry and
// keeps counters for the periodic stats log line.
type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	frameTotal       *prometheus.CounterVec
	routes           prometheus.Gauge
	beans            prometheus.Gauge

	invoked  uint64
	notFound uint64
	failed   uint64
	frames   uint64
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Count of dispatched requests by route and final state.",
			},
			[]string{"route", "state"},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Time from route lookup to handler return.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		frameTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "websocket",
				Name:      "frames_total",
				Help:      "Count of websocket request frames by outcome.",
			},
			[]string{"outcome"},
		),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of mapped routes.",
		}),
		beans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beans",
			Help:      "Number of beans held by the container.",
		}),
	}
	m.registry.MustRegister(
		m.dispatchTotal,
		m.dispatchDuration,
		m.frameTotal,
		m.routes,
		m.beans,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDispatch records one finished dispatch. An empty route means the
// path matched nothing.
func (m *Metrics) ObserveDispatch(route string, state string, elapsed time.Duration) {
	if route == "" {
		route = unmatchedRoute
	}
	m.dispatchTotal.WithLabelValues(route, state).Inc()
	m.dispatchDuration.WithLabelValues(route).Observe(elapsed.Seconds())

	switch state {
	case "invoked":
		atomic.AddUint64(&m.invoked, 1)
	case "not_found":
		atomic.AddUint64(&m.notFound, 1)
	default:
		atomic.AddUint64(&m.failed, 1)
	}
}

// ObserveFrame records one websocket request frame.
func (m *Metrics) ObserveFrame(outcome string) {
	m.frameTotal.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.frames, 1)
}

// SetInventory publishes the bootstrap sizes.
func (m *Metrics) SetInventory(routes, beans int) {
	m.routes.Set(float64(routes))
	m.beans.Set(float64(beans))
}

// ReportStats logs and resets the interval counters until ctx is done.
// Intervals without traffic are skipped.
func (m *Metrics) ReportStats(ctx context.Context, logger *zap.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.logStats(logger)
		}
	}
}

func (m *Metrics) logStats(logger *zap.Logger) bool {
	invoked := atomic.SwapUint64(&m.invoked, 0)
	notFound := atomic.SwapUint64(&m.notFound, 0)
	failed := atomic.SwapUint64(&m.failed, 0)
	frames := atomic.SwapUint64(&m.frames, 0)

	if invoked == 0 && notFound == 0 && failed == 0 && frames == 0 {
		return false
	}
	logger.Info("dispatch stats",
		zap.Uint64("invoked", invoked),
		zap.Uint64("not_found", notFound),
		zap.Uint64("failed", failed),
		zap.Uint64("ws_frames", frames),
	)
	return true
}

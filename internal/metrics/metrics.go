// Package metrics exports routing, pipeline and cache events as Prometheus
// metrics.
//
// The collectors implement the observability hook interfaces and are
// registered once at startup:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.Register()
//	srv := metrics.NewServer(":9090", "/metrics", reg, logger)
//	srv.Start()
//	defer srv.Shutdown(ctx)
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/fpgaroute/pkg/observability"
)

const namespace = "fpgaroute"

// Metrics holds every collector. It implements observability.RouterHooks,
// observability.PipelineHooks and observability.CacheHooks.
type Metrics struct {
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runIterations  prometheus.Histogram
	iterations     prometheus.Counter
	iterDuration   prometheus.Histogram
	presFac        prometheus.Gauge
	overused       prometheus.Gauge
	wirelength     prometheus.Gauge
	netsRouted     *prometheus.CounterVec
	netDuration    prometheus.Histogram
	loads          *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	reports        *prometheus.CounterVec
	reportDuration prometheus.Histogram
	cacheRequests  *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "runs_total",
			Help:      "Routing runs by final status",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a routing run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 9),
		}),
		runIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "run_iterations",
			Help:      "Iterations a routing run needed",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 50, 100},
		}),
		iterations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "iterations_total",
			Help:      "Rip-up and re-route iterations",
		}),
		iterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "iteration_duration_seconds",
			Help:      "Wall time of one iteration",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		presFac: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "pres_fac",
			Help:      "Present congestion factor of the current iteration",
		}),
		overused: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "overused_nodes",
			Help:      "Nodes over capacity after the last iteration",
		}),
		wirelength: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "wirelength",
			Help:      "Wirelength after the last iteration",
		}),
		netsRouted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "nets_routed_total",
			Help:      "Net routings by outcome",
		}, []string{"outcome"}),
		netDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "net_duration_seconds",
			Help:      "Wall time of routing one net",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
		}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "loads_total",
			Help:      "Input files loaded by kind and outcome",
		}, []string{"kind", "outcome"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "load_duration_seconds",
			Help:      "Time to read and check an input file",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_total",
			Help:      "Report renderings by format",
		}, []string{"format"}),
		reportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "report_duration_seconds",
			Help:      "Time to render all requested reports",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"type"}),
	}
}

// Register installs m as the process-wide router, pipeline and cache hooks.
func (m *Metrics) Register() {
	observability.SetRouterHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
}

func (m *Metrics) OnRouteStart(context.Context, string, int) {}

func (m *Metrics) OnRouteComplete(_ context.Context, _, status string, iterations int, d time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
	m.runIterations.Observe(float64(iterations))
}

func (m *Metrics) OnIterationStart(_ context.Context, _ int, presFac float64) {
	m.presFac.Set(presFac)
}

func (m *Metrics) OnIterationComplete(_ context.Context, _ int, overused, wirelength int, d time.Duration) {
	m.iterations.Inc()
	m.iterDuration.Observe(d.Seconds())
	m.overused.Set(float64(overused))
	m.wirelength.Set(float64(wirelength))
}

func (m *Metrics) OnNetRouted(_ context.Context, _ string, _, failed int, d time.Duration) {
	outcome := "routed"
	if failed > 0 {
		outcome = "failed"
	}
	m.netsRouted.WithLabelValues(outcome).Inc()
	m.netDuration.Observe(d.Seconds())
}

func (m *Metrics) OnLoadStart(context.Context, string, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, kind, _ string, _ int, d time.Duration, err error) {
	m.loads.WithLabelValues(kind, outcome(err)).Inc()
	m.loadDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) OnReportStart(context.Context, []string) {}

func (m *Metrics) OnReportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		return
	}
	for _, f := range formats {
		m.reports.WithLabelValues(f).Inc()
	}
	m.reportDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.RouterHooks   = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalogsync"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	connectionState prometheus.Gauge
	frames          *prometheus.CounterVec
	reconnects      prometheus.Counter
	deliveries      prometheus.Counter

	reloads     *prometheus.CounterVec
	merges      *prometheus.CounterVec
	queryErrors *prometheus.CounterVec

	journalRows   prometheus.Counter
	journalErrors prometheus.Counter
	journalFlush  prometheus.Histogram

	refreshes prometheus.Counter
}

// New creates and registers all collectors on a fresh registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_state",
			Help:      "Stream connection state (0 idle, 1 connecting, 2 open, 3 closed)",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_frames_total",
			Help:      "Frames received from the update stream by decoded variant",
		}, []string{"variant"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_reconnects_total",
			Help:      "Reconnect attempts scheduled after a transport error",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_deliveries_total",
			Help:      "Events delivered to subscribers",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_reloads_total",
			Help:      "Full reloads from the catalog query service",
		}, []string{"view", "reason"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_merges_total",
			Help:      "Offer entries mutated in place by update items",
		}, []string{"view"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_query_errors_total",
			Help:      "Catalog queries that failed",
		}, []string{"view"}),
		journalRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_rows_total",
			Help:      "Update items written to the journal",
		}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_errors_total",
			Help:      "Journal batch writes that failed",
		}),
		journalFlush: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "journal_flush_seconds",
			Help:      "Latency of journal batch flushes",
			Buckets:   prometheus.DefBuckets,
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poller_refreshes_total",
			Help:      "Periodic view refreshes requested by the poller",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connectionState,
		m.frames,
		m.reconnects,
		m.deliveries,
		m.reloads,
		m.merges,
		m.queryErrors,
		m.journalRows,
		m.journalErrors,
		m.journalFlush,
		m.refreshes,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetConnectionState(state int) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(state))
}

func (m *Metrics) IncFrames(variant string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(variant).Inc()
}

func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) AddDeliveries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deliveries.Add(float64(n))
}

func (m *Metrics) IncReloads(view, reason string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(view, reason).Inc()
}

func (m *Metrics) AddMerges(view string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.merges.WithLabelValues(view).Add(float64(n))
}

func (m *Metrics) IncQueryErrors(view string) {
	if m == nil {
		return
	}
	m.queryErrors.WithLabelValues(view).Inc()
}

// ObserveJournalFlush records one journal flush.
func (m *Metrics) ObserveJournalFlush(rows int, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.journalFlush.Observe(took.Seconds())
	if err != nil {
		m.journalErrors.Inc()
		return
	}
	m.journalRows.Add(float64(rows))
}

func (m *Metrics) IncRefreshes() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}

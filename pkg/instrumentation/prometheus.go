package instrumentation

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	syncTotal       *prometheus.CounterVec
	syncLatency     prometheus.Histogram
	evaluations     *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	backupOps       *prometheus.CounterVec
	lastSyncSuccess prometheus.Gauge
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "flagsync" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "flagsync"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.syncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "repository",
			Name:      "syncs_total",
			Help:      "Total toggle fetches by result (success, not_modified, error).",
		}, []string{"result"})

		p.syncLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "repository",
			Name:      "sync_duration_seconds",
			Help:      "Latency of toggle fetches in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		})

		p.lastSyncSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "repository",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fetch that returned data or not-modified.",
		})

		p.evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "client",
			Name:      "evaluations_total",
			Help:      "Total toggle evaluations by toggle and result.",
		}, []string{"toggle", "enabled"})

		p.deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "metrics",
			Name:      "deliveries_total",
			Help:      "Total register and metrics posts by kind and result.",
		}, []string{"kind", "result"})

		p.backupOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total backup loads and persists by result.",
		}, []string{"op", "result"})

		p.reg.MustRegister(p.syncTotal)
		p.reg.MustRegister(p.syncLatency)
		p.reg.MustRegister(p.lastSyncSuccess)
		p.reg.MustRegister(p.evaluations)
		p.reg.MustRegister(p.deliveries)
		p.reg.MustRegister(p.backupOps)
	})
}

// ObserveSync records the fetch outcome and its latency.
func (p *PrometheusCollector) ObserveSync(result string, duration time.Duration) {
	p.ensureRegistered()
	p.syncTotal.WithLabelValues(result).Inc()
	p.syncLatency.Observe(duration.Seconds())
	if result != ResultError {
		p.lastSyncSuccess.SetToCurrentTime()
	}
}

// ObserveEvaluation counts an evaluation of toggle.
func (p *PrometheusCollector) ObserveEvaluation(toggle string, enabled bool) {
	p.ensureRegistered()
	p.evaluations.WithLabelValues(toggle, strconv.FormatBool(enabled)).Inc()
}

// ObserveDelivery counts a register or metrics post.
func (p *PrometheusCollector) ObserveDelivery(kind, result string) {
	p.ensureRegistered()
	p.deliveries.WithLabelValues(kind, result).Inc()
}

// ObserveBackup counts a backup operation.
func (p *PrometheusCollector) ObserveBackup(op, result string) {
	p.ensureRegistered()
	p.backupOps.WithLabelValues(op, result).Inc()
}

package pebblestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements MetricsHook backed by Prometheus collectors.
type PrometheusMetrics struct {
	writeLatency  prometheus.Histogram
	writeBytes    prometheus.Counter
	readLatency   prometheus.Histogram
	readBytes     prometheus.Counter
	commitLatency prometheus.Histogram
	commitBytes   prometheus.Counter
	commits       prometheus.Counter
}

// NewPrometheusMetrics builds and registers storage collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		writeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name:    "write_latency_seconds",
			Help:    "Latency of single-key writes.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 2, 16),
		}),
		writeBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name: "write_bytes_total",
			Help: "Bytes written by single-key writes.",
		}),
		readLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name:    "read_latency_seconds",
			Help:    "Latency of point reads.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 2, 16),
		}),
		readBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name: "read_bytes_total",
			Help: "Bytes returned by point reads.",
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name:    "batch_commit_latency_seconds",
			Help:    "Latency of batch commits, including WAL sync when forced.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 2, 16),
		}),
		commitBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name: "batch_commit_bytes_total",
			Help: "Bytes committed in batches.",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updatelog", Subsystem: "storage",
			Name: "batch_commits_total",
			Help: "Number of committed batches.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.writeLatency, m.writeBytes, m.readLatency, m.readBytes,
			m.commitLatency, m.commitBytes, m.commits)
	}
	return m
}

// ObserveWrite implements MetricsHook.
func (m *PrometheusMetrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.writeLatency.Observe(elapsed.Seconds())
	m.writeBytes.Add(float64(bytes))
}

// ObserveRead implements MetricsHook.
func (m *PrometheusMetrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.readLatency.Observe(elapsed.Seconds())
	m.readBytes.Add(float64(bytes))
}

// ObserveBatchCommit implements MetricsHook.
func (m *PrometheusMetrics) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	m.commits.Inc()
	m.commitLatency.Observe(elapsed.Seconds())
	m.commitBytes.Add(float64(bytes))
}

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects batch counters on a private registry, so several runs in
// one process do not collide and the result can be written to a textfile
// for a node exporter to pick up.
type Metrics struct {
	registry *prometheus.Registry

	// units counts finished units by command and status
	units *prometheus.CounterVec
	// items counts records written by completed units (k-mers, rows)
	items *prometheus.CounterVec
	// duration tracks unit latency
	duration *prometheus.HistogramVec
}

// NewMetrics returns a Metrics with its collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		units: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kmerspace_batch_units_total",
			Help: "Total batch units by command and status",
		}, []string{"command", "status"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kmerspace_batch_items_written_total",
			Help: "Total records written by completed units",
		}, []string{"command"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kmerspace_batch_unit_duration_seconds",
			Help:    "Batch unit duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, []string{"command"}),
	}
}

func (m *Metrics) observe(command string, res Result) {
	m.units.WithLabelValues(command, string(res.Status)).Inc()
	m.duration.WithLabelValues(command).Observe(res.Elapsed.Seconds())
	if res.Status == StatusCompleted {
		m.items.WithLabelValues(command).Add(float64(res.Items))
	}
}

// WriteTextfile writes the current metric values to path in the text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

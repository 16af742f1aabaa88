package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sjsage522/catalogworker/internal/pipeline"
)

const namespace = "memory_catalog"

// Metrics holds the gauges describing the most recent run
type Metrics struct {
	registry *prometheus.Registry

	Products        prometheus.Gauge
	Variants        prometheus.Gauge
	SkippedVariants prometheus.Gauge
	Stored          prometheus.Gauge
	Updated         prometheus.Gauge
	Rejections      *prometheus.GaugeVec
	Records         prometheus.Gauge
	Dropped         *prometheus.GaugeVec
	Published       prometheus.Gauge
	SinkFailures    *prometheus.CounterVec
	Runs            prometheus.Counter
	RunDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// New creates the run metrics on their own registry
func New() *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Metrics{
		registry:        prometheus.NewRegistry(),
		Products:        gauge("products", "Products read in the last run"),
		Variants:        gauge("variants", "Variants read in the last run"),
		SkippedVariants: gauge("skipped_variants", "Variants skipped as accessories or missing an id"),
		Stored:          gauge("stored", "Identifiers stored on first sighting"),
		Updated:         gauge("updated", "Stored records refined by a repeated variant"),
		Rejections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rejections",
			Help:      "Rejected observations in the last run by reason",
		}, []string{"reason"}),
		Records: gauge("records", "Records emitted in the last catalog"),
		Dropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dropped",
			Help:      "Records dropped by the finalizer in the last run by reason",
		}, []string{"reason"}),
		Published: gauge("published", "Changed records published in the last run"),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failed optional sink writes",
		}, []string{"sink"}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs",
		}),
		RunDuration: gauge("run_duration_seconds", "Duration of the last run"),
		LastSuccess: gauge("last_success_timestamp_seconds", "Unix time of the last successful run"),
	}

	m.registry.MustRegister(
		m.Products, m.Variants, m.SkippedVariants, m.Stored, m.Updated, m.Rejections,
		m.Records, m.Dropped, m.Published, m.SinkFailures, m.Runs, m.RunDuration, m.LastSuccess,
	)
	return m
}

// Registry returns the registry holding the run metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEngine records the reconciliation counters
func (m *Metrics) ObserveEngine(stats pipeline.Stats) {
	m.Products.Set(float64(stats.Products))
	m.Variants.Set(float64(stats.Variants))
	m.SkippedVariants.Set(float64(stats.SkippedVariants))
	m.Stored.Set(float64(stats.Stored))
	m.Updated.Set(float64(stats.Updated))
	m.Rejections.Reset()
	for reason, n := range stats.Rejections {
		m.Rejections.WithLabelValues(reason).Set(float64(n))
	}
}

// ObserveFinalize records the finalizer counters
func (m *Metrics) ObserveFinalize(stats pipeline.FinalizeStats) {
	m.Records.Set(float64(stats.Kept))
	m.Dropped.Reset()
	for reason, n := range stats.Dropped {
		m.Dropped.WithLabelValues(reason).Set(float64(n))
	}
}

// ObserveRun records a completed run
func (m *Metrics) ObserveRun(duration time.Duration, finished time.Time) {
	m.Runs.Inc()
	m.RunDuration.Set(duration.Seconds())
	m.LastSuccess.Set(float64(finished.Unix()))
}

// WriteTextfile writes the metrics in the text exposition format for the
// node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

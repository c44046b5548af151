package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for contract reconciliations.
type Metrics struct {
	contracts *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lines     *prometheus.CounterVec
	inFlight  prometheus.Gauge
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors against registerer, or against the
// default Prometheus registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments the reconciliation of a single contract.
type Tracker struct {
	metrics *Metrics
	kind    string
	start   time.Time
}

func (m *Metrics) Track(kind string) *Tracker {
	if m == nil {
		return &Tracker{kind: kind, start: time.Now()}
	}
	m.inFlight.Inc()
	return &Tracker{metrics: m, kind: kind, start: time.Now()}
}

// End records the outcome and duration and returns err untouched.
func (t *Tracker) End(lines int, err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	t.metrics.inFlight.Dec()
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.contracts.WithLabelValues(t.kind, status).Inc()
	t.metrics.duration.WithLabelValues(t.kind).Observe(time.Since(t.start).Seconds())
	if err == nil && lines > 0 {
		t.metrics.lines.WithLabelValues(t.kind).Add(float64(lines))
	}
	return err
}

// Skipped counts a contract that was not reconciled again.
func (m *Metrics) Skipped(kind string) {
	if m == nil {
		return
	}
	m.contracts.WithLabelValues(kind, "skipped").Inc()
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	contracts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anexo_c_contracts_total",
		Help: "Contracts handled partitioned by report kind and status.",
	}, []string{"kind", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anexo_c_contract_duration_seconds",
		Help:    "Duration in seconds of a single contract reconciliation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anexo_c_output_lines_total",
		Help: "Reconciled lines written partitioned by report kind.",
	}, []string{"kind"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anexo_c_contracts_in_flight",
		Help: "Contracts currently being reconciled.",
	})
	registerer.MustRegister(contracts, duration, lines, inFlight)
	return &Metrics{contracts: contracts, duration: duration, lines: lines, inFlight: inFlight}
}

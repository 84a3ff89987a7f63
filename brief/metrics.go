package brief

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report job activity.
type Metrics struct {
	runs          *prometheus.CounterVec
	duration      prometheus.Histogram
	eventsFetched prometheus.Gauge
	entries       *prometheus.GaugeVec
}

// NewMetrics registers the job collectors with reg. A nil reg leaves them
// unregistered, which is what tests and one-shot runs want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "calbrief",
				Subsystem: "job",
				Name:      "runs_total",
				Help:      "Digest runs by final status.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "calbrief",
				Subsystem: "job",
				Name:      "duration_seconds",
				Help:      "Wall time of one digest run, from opening the calendar to the push.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		eventsFetched: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "calbrief",
				Subsystem: "job",
				Name:      "events_fetched",
				Help:      "Events returned by the calendar in the last run.",
			},
		),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "calbrief",
				Subsystem: "digest",
				Name:      "entries",
				Help:      "Entries per digest section in the last run.",
			},
			[]string{"section"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.runs, m.duration, m.eventsFetched, m.entries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) record(r Result) {
	if m == nil {
		return
	}
	m.eventsFetched.Set(float64(r.Events))
	m.entries.WithLabelValues("all_day").Set(float64(r.AllDay))
	m.entries.WithLabelValues("timed").Set(float64(r.Timed))
}

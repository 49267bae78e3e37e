package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks pipeline runs per instrument.
type Recorder struct {
	registry *prometheus.Registry
	rows     *prometheus.CounterVec
	runs     *prometheus.CounterVec
	sessions *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// New creates a recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionchart_rows_total",
				Help: "Source rows by instrument and outcome",
			},
			[]string{"instrument", "outcome"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessionchart_pipeline_runs_total",
				Help: "Pipeline runs by instrument and status",
			},
			[]string{"instrument", "status"},
		),
		sessions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sessionchart_sessions",
				Help: "Sessions found in the last successful run",
			},
			[]string{"instrument"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessionchart_pipeline_duration_seconds",
				Help:    "Duration of one instrument pipeline run",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instrument"},
		),
	}
}

// RowCounts is the per-outcome breakdown of one run.
type RowCounts struct {
	Kept        int
	BadTime     int
	BadPrice    int
	OutOfWindow int
}

// RecordSuccess records a completed run.
func (r *Recorder) RecordSuccess(instrument string, rows RowCounts, sessions int, elapsed time.Duration) {
	r.runs.WithLabelValues(instrument, "ok").Inc()
	r.rows.WithLabelValues(instrument, "kept").Add(float64(rows.Kept))
	r.rows.WithLabelValues(instrument, "bad_time").Add(float64(rows.BadTime))
	r.rows.WithLabelValues(instrument, "bad_price").Add(float64(rows.BadPrice))
	r.rows.WithLabelValues(instrument, "out_of_window").Add(float64(rows.OutOfWindow))
	r.sessions.WithLabelValues(instrument).Set(float64(sessions))
	r.duration.WithLabelValues(instrument).Observe(elapsed.Seconds())
}

// RecordFailure records a run that ended with the given status, for
// example "warning" or "error".
func (r *Recorder) RecordFailure(instrument, status string, elapsed time.Duration) {
	r.runs.WithLabelValues(instrument, status).Inc()
	r.duration.WithLabelValues(instrument).Observe(elapsed.Seconds())
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

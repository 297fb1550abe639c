// Package metrics exposes Prometheus instrumentation for the pipeline
// runner. All methods are safe on a nil receiver so library code can be
// exercised without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	runsTotal   *prometheus.CounterVec
	runsFailed  *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	retentionActions *prometheus.CounterVec
	retentionSkipped prometheus.Counter

	taxiFilesIngested prometheus.Counter
	taxiFilesFailed   prometheus.Counter

	quoteRowsUpserted prometheus.Counter
	quoteRowsSkipped  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Completed pipeline runs, including failed ones.",
		}, []string{"pipeline"}),
		runsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_failed_total",
			Help: "Pipeline runs that ended with an error.",
		}, []string{"pipeline"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"pipeline"}),
		retentionActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_actions_total",
			Help: "Executed retention actions by kind.",
		}, []string{"kind"}),
		retentionSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "retention_policies_skipped_total",
			Help: "Retention policies skipped because of an unknown strategy.",
		}),
		taxiFilesIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_files_ingested_total",
			Help: "Taxi trip files ingested end to end.",
		}),
		taxiFilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_files_failed_total",
			Help: "Taxi trip files whose ingestion failed.",
		}),
		quoteRowsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "stock_quote_rows_upserted_total",
			Help: "Adjusted-close rows written to the quotes table.",
		}),
		quoteRowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "stock_quote_rows_skipped_total",
			Help: "Series points skipped because the close was null or NaN.",
		}),
	}
}

func (m *Metrics) ObserveRun(pipeline string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(pipeline).Inc()
	m.runDuration.WithLabelValues(pipeline).Observe(d.Seconds())
	if err != nil {
		m.runsFailed.WithLabelValues(pipeline).Inc()
	}
}

func (m *Metrics) RetentionAction(kind string) {
	if m == nil {
		return
	}
	m.retentionActions.WithLabelValues(kind).Inc()
}

func (m *Metrics) RetentionSkipped() {
	if m == nil {
		return
	}
	m.retentionSkipped.Inc()
}

func (m *Metrics) TaxiFileIngested() {
	if m == nil {
		return
	}
	m.taxiFilesIngested.Inc()
}

func (m *Metrics) TaxiFileFailed() {
	if m == nil {
		return
	}
	m.taxiFilesFailed.Inc()
}

func (m *Metrics) QuoteRowsUpserted(n int) {
	if m == nil {
		return
	}
	m.quoteRowsUpserted.Add(float64(n))
}

func (m *Metrics) QuoteRowsSkipped(n int) {
	if m == nil {
		return
	}
	m.quoteRowsSkipped.Add(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portfolio_aggregator"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors for job and fetcher runs.
type Metrics struct {
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	JobRetries      *prometheus.CounterVec
	JobsRunning     prometheus.Gauge
	FetcherRuns     *prometheus.CounterVec
	FetcherDuration *prometheus.HistogramVec
	FetcherElements *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "runs_total",
				Help:      "Total number of job runs by outcome",
			},
			[]string{"job", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "duration_seconds",
				Help:      "Job run duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"job"},
		),
		JobRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "retries_total",
				Help:      "Total number of retried job attempts",
			},
			[]string{"job"},
		),
		JobsRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "running",
				Help:      "Number of jobs currently running",
			},
		),
		FetcherRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "runs_total",
				Help:      "Total number of fetcher runs by outcome",
			},
			[]string{"fetcher", "outcome"},
		),
		FetcherDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "duration_seconds",
				Help:      "Fetcher run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"fetcher"},
		),
		FetcherElements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetcher",
				Name:      "elements_total",
				Help:      "Total number of portfolio elements produced",
			},
			[]string{"fetcher"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.JobRuns, m.JobDuration, m.JobRetries, m.JobsRunning,
			m.FetcherRuns, m.FetcherDuration, m.FetcherElements,
		)
	}
	return m
}

// ObserveJob records one finished job run.
func (m *Metrics) ObserveJob(jobID, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(jobID, outcome).Inc()
	m.JobDuration.WithLabelValues(jobID).Observe(took.Seconds())
}

// ObserveFetcher records one finished fetcher run.
func (m *Metrics) ObserveFetcher(fetcherID, outcome string, elements int, took time.Duration) {
	if m == nil {
		return
	}
	m.FetcherRuns.WithLabelValues(fetcherID, outcome).Inc()
	m.FetcherDuration.WithLabelValues(fetcherID).Observe(took.Seconds())
	m.FetcherElements.WithLabelValues(fetcherID).Add(float64(elements))
}

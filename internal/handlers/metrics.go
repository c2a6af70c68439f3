package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	MetricRankRequestsTotal   = "marcrank_rank_requests_total"
	MetricRankDurationSeconds = "marcrank_rank_duration_seconds"
)

// Rank outcomes used as the outcome label
const (
	OutcomeRecord1 = "record1"
	OutcomeRecord2 = "record2"
	OutcomeTie     = "tie"
	OutcomeError   = "error"
)

// Metrics holds the ranking server collectors. All operations are thread-safe.
type Metrics struct {
	rankRequests *prometheus.CounterVec
	rankDuration prometheus.Histogram
}

// NewMetrics creates the collectors without registering them
func NewMetrics() *Metrics {
	return &Metrics{
		rankRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankRequestsTotal,
				Help: "Total number of ranking requests by outcome",
			},
			[]string{"outcome"},
		),
		rankDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRankDurationSeconds,
				Help:    "Time spent ranking one record pair, including catalog fetches",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
	}
}

// Register registers every collector with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.rankRequests, m.rankDuration}
}

// ObserveRank records one ranking request
func (m *Metrics) ObserveRank(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.rankRequests.WithLabelValues(outcome).Inc()
	m.rankDuration.Observe(seconds)
}

func outcomeFor(preferred int) string {
	switch preferred {
	case 1:
		return OutcomeRecord1
	case 2:
		return OutcomeRecord2
	}
	return OutcomeTie
}

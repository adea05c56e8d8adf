// Package metrics holds the process-wide Prometheus collectors for the
// question pipeline and the network surfaces.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes recorded on QuestionsTotal.
const (
	ResolutionAccount     = "account_name"
	ResolutionOpportunity = "opportunity_name"
	ResolutionNone        = "none"
)

var (
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revops_questions_total",
			Help: "Total number of questions answered, by resolution outcome",
		},
		[]string{"resolution"},
	)

	CompletionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revops_completion_failures_total",
			Help: "Total number of failed completion calls, by provider",
		},
		[]string{"provider"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revops_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	GroupRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revops_context_group_records",
			Help:    "Number of buying-group records assembled per question",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		},
	)

	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "revops_active_sessions",
			Help: "Number of live conversation sessions per surface",
		},
		[]string{"surface"},
	)
)

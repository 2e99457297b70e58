package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completion metrics
	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_completion_calls_total",
			Help: "Total number of chat completion calls",
		},
		[]string{"model", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_completion_duration_seconds",
			Help:    "Chat completion latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"model"},
	)

	CompletionChars = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_completion_response_chars",
			Help:    "Characters returned per successful completion",
			Buckets: []float64{100, 500, 1000, 2000, 4000, 8000, 16000},
		},
		[]string{"model"},
	)

	// Stage metrics
	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_stage_runs_total",
			Help: "Total number of pipeline stage runs",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"stage"},
	)

	// Agent metrics
	AgentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_agent_failures_total",
			Help: "Agents omitted from a stage because their call or parse failed",
		},
		[]string{"stage", "agent_id"},
	)

	// Parser metrics
	ParseOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_parse_outcomes_total",
			Help: "Response parser outcomes by schema and winning strategy",
		},
		[]string{"schema", "strategy"},
	)

	RankingViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "council_ranking_violations_total",
			Help: "Peer reviews whose ranking was not a permutation of the idea numbers",
		},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RecordCompletion records one completion call.
func RecordCompletion(model, outcome string, elapsed time.Duration, chars int) {
	CompletionCalls.WithLabelValues(model, outcome).Inc()
	CompletionDuration.WithLabelValues(model).Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		CompletionChars.WithLabelValues(model).Observe(float64(chars))
	}
}

// RecordStage records one stage run.
func RecordStage(stage, status string, elapsed time.Duration) {
	StageRuns.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

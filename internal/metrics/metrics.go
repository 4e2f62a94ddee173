package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
// These ensure metrics don't have unbounded label values which can cause memory issues.
const (
	// Evaluation failure categories (bounded set)
	EvalErrorTimeout   = "timeout"
	EvalErrorTransport = "transport"
	EvalErrorRemote    = "remote"
	EvalErrorDecode    = "decode"
	EvalErrorOther     = "other"
)

// NormalizeEvalError maps arbitrary evaluation errors to bounded set
func NormalizeEvalError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return EvalErrorTimeout
	case strings.Contains(errStr, "nats") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "no responders"):
		return EvalErrorTransport
	case strings.Contains(errStr, "backtest") || strings.Contains(errStr, "evaluator"):
		return EvalErrorRemote
	case strings.Contains(errStr, "marshal") || strings.Contains(errStr, "unmarshal") || strings.Contains(errStr, "decode"):
		return EvalErrorDecode
	default:
		return EvalErrorOther
	}
}

// Evolution Progress Metrics
var (
	// Generations completed across all sessions
	GenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evofunk_generations_total",
		Help: "Total number of completed generations",
	})

	// Best fitness seen so far
	BestFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evofunk_best_fitness",
		Help: "Best fitness score observed across all generations",
	})

	// Fitness of the current generation's best genome
	GenerationBestFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evofunk_generation_best_fitness",
		Help: "Best fitness score within the current generation",
	})

	// Mean fitness of the current generation
	GenerationAvgFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evofunk_generation_avg_fitness",
		Help: "Average fitness score within the current generation",
	})

	// Population diversity (mean normalized pairwise distance)
	PopulationDiversity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evofunk_population_diversity",
		Help: "Mean normalized pairwise parameter distance of the population",
	})

	// Generations without improvement
	StagnationCounter = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evofunk_stagnation_generations",
		Help: "Consecutive generations without fitness improvement",
	})
)

// Evaluation Metrics
var (
	// Total genome evaluations
	EvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evofunk_evaluations_total",
		Help: "Total number of genome evaluations requested",
	})

	// Failed evaluations by category
	EvaluationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evofunk_evaluation_failures_total",
		Help: "Total number of failed genome evaluations by error category",
	}, []string{"reason"})

	// Evaluation latency
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evofunk_evaluation_duration_seconds",
		Help:    "Duration of genome evaluations in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// Generation wall-clock time
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evofunk_generation_duration_seconds",
		Help:    "Duration of full generation cycles in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
)

// Session Metrics
var (
	// Terminated sessions by reason
	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evofunk_sessions_finished_total",
		Help: "Total number of finished evolution sessions by termination reason",
	}, []string{"reason"})
)

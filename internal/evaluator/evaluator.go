// Fitness evaluation contract between the evolution engine and its host
package evaluator

import (
	"context"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

// Func is the single capability the evolution engine consumes: run a
// historical simulation of the candidate strategy and report its raw
// performance metrics. All I/O lives behind this function; the engine
// invokes it once per offspring per generation and never sees where the
// numbers come from.
type Func func(ctx context.Context, g *genome.Genome) (*genome.BacktestMetrics, error)

// WorstCase is the metric record substituted for a failed evaluation: zero
// Sharpe, return, win rate and trades, full drawdown. It scores zero
// fitness, so one bad evaluation can never stall or crash a generation,
// only bury the offspring it belongs to.
func WorstCase() *genome.BacktestMetrics {
	return &genome.BacktestMetrics{
		SharpeRatio: 0,
		TotalReturn: 0,
		MaxDrawdown: 1.0,
		WinRate:     0,
		TotalTrades: 0,
	}
}

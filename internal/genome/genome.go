package genome

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BACKTEST METRICS
// ============================================================================

// BacktestMetrics is the raw performance record the external fitness
// evaluator returns for one candidate strategy.
type BacktestMetrics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	TotalReturn  float64 `json:"total_return"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	TotalTrades  int     `json:"total_trades"`
}

// ============================================================================
// GENOME
// ============================================================================

// Genome is one candidate strategy: its parameters plus lineage and fitness
// metadata. A genome is immutable once its fitness is assigned; every
// transformation produces a fresh identity and records ancestry through
// ParentIDs (0 for seeds, 1 for clones/mutations, 2 for crossover children).
type Genome struct {
	ID         uuid.UUID        `json:"id"`
	ParentIDs  []uuid.UUID      `json:"parent_ids,omitempty"`
	Generation int              `json:"generation"`
	Params     StrategyParams   `json:"params"`
	Fitness    *float64         `json:"fitness,omitempty"`
	Metrics    *BacktestMetrics `json:"metrics,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	Result     json.RawMessage  `json:"result,omitempty"`
}

// NewRandom builds a fresh parentless genome with uniformly drawn,
// invariant-repaired parameters.
func NewRandom(rng Rand, bounds BoundsTable, generation int) *Genome {
	return &Genome{
		ID:         uuid.New(),
		Generation: generation,
		Params:     RandomParams(rng, bounds),
		CreatedAt:  time.Now().UTC(),
	}
}

// Child wraps transformed parameters in a new genome whose generation is
// max(parent generations)+1 and whose ancestry records every parent.
func Child(params StrategyParams, parents ...*Genome) *Genome {
	gen := 0
	ids := make([]uuid.UUID, 0, len(parents))
	for _, p := range parents {
		if p.Generation >= gen {
			gen = p.Generation + 1
		}
		ids = append(ids, p.ID)
	}
	return &Genome{
		ID:         uuid.New(),
		ParentIDs:  ids,
		Generation: gen,
		Params:     params,
		CreatedAt:  time.Now().UTC(),
	}
}

// CloneOf advances a parent's lineage without touching its parameters:
// a new identity one generation later, carrying a single parent id.
func CloneOf(parent *Genome) *Genome {
	return Child(parent.Params, parent)
}

// Copy returns a deep copy. Params is a pure value type, so only the
// pointer and slice fields need explicit duplication.
func (g *Genome) Copy() *Genome {
	c := *g
	if g.ParentIDs != nil {
		c.ParentIDs = make([]uuid.UUID, len(g.ParentIDs))
		copy(c.ParentIDs, g.ParentIDs)
	}
	if g.Fitness != nil {
		f := *g.Fitness
		c.Fitness = &f
	}
	if g.Metrics != nil {
		m := *g.Metrics
		c.Metrics = &m
	}
	if g.Result != nil {
		c.Result = make(json.RawMessage, len(g.Result))
		copy(c.Result, g.Result)
	}
	return &c
}

// HasFitness reports whether the genome has been evaluated.
func (g *Genome) HasFitness() bool {
	return g.Fitness != nil
}

// FitnessValue returns the fitness score, or zero when unevaluated.
func (g *Genome) FitnessValue() float64 {
	if g.Fitness == nil {
		return 0
	}
	return *g.Fitness
}

// SetEvaluation records the evaluator's metrics and the derived fitness
// score. After this call the genome is considered complete.
func (g *Genome) SetEvaluation(metrics *BacktestMetrics, fitness float64) {
	g.Metrics = metrics
	g.Fitness = &fitness
}

// Crossover engine for evolutionary strategy search
package crossover

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Method selects the recombination strategy.
type Method string

const (
	MethodSinglePoint Method = "single_point"
	MethodMultiPoint  Method = "multi_point"
	MethodUniform     Method = "uniform"
	MethodBlend       Method = "blend"
	// MethodAdaptive picks blend, uniform, or single-point per pair based
	// on genome similarity.
	MethodAdaptive Method = "adaptive"
)

// Methods lists every supported crossover method.
var Methods = []Method{MethodSinglePoint, MethodMultiPoint, MethodUniform, MethodBlend, MethodAdaptive}

// Config tunes the crossover engine.
type Config struct {
	Method        Method  // recombination strategy
	CrossoverRate float64 // probability a pair recombines instead of cloning
	UniformRate   float64 // per-field parent1 probability for MethodUniform
	BlendAlpha    float64 // range expansion factor for MethodBlend
}

// DefaultConfig returns the production crossover settings.
func DefaultConfig() Config {
	return Config{
		Method:        MethodAdaptive,
		CrossoverRate: 0.8,
		UniformRate:   0.5,
		BlendAlpha:    0.3,
	}
}

// Similarity thresholds for the adaptive method: near-identical parents are
// blended to explore between them, dissimilar parents swap whole groups.
const (
	blendSimilarity       = 0.8
	singlePointSimilarity = 0.4
)

// ============================================================================
// ENGINE
// ============================================================================

// Engine recombines two parents into a child genome.
type Engine struct {
	cfg    Config
	bounds genome.BoundsTable
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewEngine creates a crossover engine with an injected random source.
func NewEngine(cfg Config, bounds genome.BoundsTable, rng *rand.Rand) *Engine {
	return &Engine{
		cfg:    cfg,
		bounds: bounds,
		rng:    rng,
		logger: log.With().Str("component", "crossover").Logger(),
	}
}

// Crossover produces one child from two parents. With probability
// 1-CrossoverRate the child is a lineage-advanced clone of whichever parent
// has the higher-or-equal fitness; otherwise the configured method
// recombines them. Invariants are repaired before the child is returned,
// and the child records both parent ids with generation max(parents)+1.
func (e *Engine) Crossover(p1, p2 *genome.Genome) *genome.Genome {
	if e.rng.Float64() >= e.cfg.CrossoverRate {
		if p1.FitnessValue() >= p2.FitnessValue() {
			return genome.CloneOf(p1)
		}
		return genome.CloneOf(p2)
	}

	method := e.cfg.Method
	if method == MethodAdaptive {
		method = e.pickAdaptiveMethod(p1, p2)
	}

	var params genome.StrategyParams
	switch method {
	case MethodSinglePoint:
		params = e.singlePoint(p1, p2)
	case MethodBlend:
		params = e.blend(p1, p2)
	case MethodMultiPoint:
		params = e.fieldwise(p1, p2, 0.5)
	default:
		params = e.fieldwise(p1, p2, e.cfg.UniformRate)
	}

	genome.RepairInvariants(&params, e.bounds)
	return genome.Child(params, p1, p2)
}

// pickAdaptiveMethod chooses the recombination strategy from parent
// similarity: blend when nearly identical, single-point when far apart,
// uniform in between.
func (e *Engine) pickAdaptiveMethod(p1, p2 *genome.Genome) Method {
	sim := Similarity(p1, p2, e.bounds)
	switch {
	case sim > blendSimilarity:
		return MethodBlend
	case sim < singlePointSimilarity:
		return MethodSinglePoint
	default:
		return MethodUniform
	}
}

// Similarity is 1 minus the mean per-field absolute difference scaled by
// each bound's range, with the categorical timeframe contributing a binary
// match term. 1 means identical parameters, 0 maximally distant.
func Similarity(a, b *genome.Genome, bounds genome.BoundsTable) float64 {
	sum := 0.0
	n := 0
	for _, f := range genome.NumericFields {
		r := f.Bound(bounds).Range()
		if r <= 0 {
			continue
		}
		sum += math.Abs(f.Get(&a.Params)-f.Get(&b.Params)) / r
		n++
	}
	if a.Params.Timing.Timeframe != b.Params.Timing.Timeframe {
		sum++
	}
	n++
	return 1 - sum/float64(n)
}

// singlePoint cuts the genome at a group boundary: a point in {0,1,2,3}
// decides, per group in order (entry, risk, timing, filter), which parent
// supplies that group. The timing group follows the same direction flag as
// the numeric fields at its position.
func (e *Engine) singlePoint(p1, p2 *genome.Genome) genome.StrategyParams {
	point := genome.ParamGroup(e.rng.Intn(len(genome.Groups)))

	var params genome.StrategyParams
	for _, f := range genome.NumericFields {
		if f.Group < point {
			f.Set(&params, f.Get(&p1.Params))
		} else {
			f.Set(&params, f.Get(&p2.Params))
		}
	}
	if genome.GroupTiming < point {
		params.Timing.Timeframe = p1.Params.Timing.Timeframe
	} else {
		params.Timing.Timeframe = p2.Params.Timing.Timeframe
	}
	return params
}

// fieldwise takes each numeric field from parent1 with probability p1Rate,
// covering both the multi-point (0.5) and uniform (configured rate)
// methods. The timing group's timeframe is taken wholesale 50/50.
func (e *Engine) fieldwise(p1, p2 *genome.Genome, p1Rate float64) genome.StrategyParams {
	var params genome.StrategyParams
	for _, f := range genome.NumericFields {
		if e.rng.Float64() < p1Rate {
			f.Set(&params, f.Get(&p1.Params))
		} else {
			f.Set(&params, f.Get(&p2.Params))
		}
	}
	if e.rng.Float64() < 0.5 {
		params.Timing.Timeframe = p1.Params.Timing.Timeframe
	} else {
		params.Timing.Timeframe = p2.Params.Timing.Timeframe
	}
	return params
}

// blend samples each numeric field uniformly from the interval spanned by
// the two parent values, widened by BlendAlpha on both sides, then clamped
// and re-quantized. Timeframe is taken 50/50.
func (e *Engine) blend(p1, p2 *genome.Genome) genome.StrategyParams {
	var params genome.StrategyParams
	for _, f := range genome.NumericFields {
		a := f.Get(&p1.Params)
		b := f.Get(&p2.Params)
		lo, hi := math.Min(a, b), math.Max(a, b)
		span := hi - lo
		lo -= e.cfg.BlendAlpha * span
		hi += e.cfg.BlendAlpha * span
		f.Set(&params, f.Bound(e.bounds).Apply(lo+e.rng.Float64()*(hi-lo)))
	}
	if e.rng.Float64() < 0.5 {
		params.Timing.Timeframe = p1.Params.Timing.Timeframe
	} else {
		params.Timing.Timeframe = p2.Params.Timing.Timeframe
	}
	return params
}

// ============================================================================
// OFFSPRING BATCHES
// ============================================================================

// CreateOffspring draws parent pairs by roulette (fitness-proportionate,
// uniform fallback when total fitness is non-positive) and produces count
// children. Drawing the same genome twice yields a clone instead of a
// self-crossover.
func (e *Engine) CreateOffspring(pool []*genome.Genome, count int) []*genome.Genome {
	if len(pool) == 0 || count <= 0 {
		return nil
	}

	offspring := make([]*genome.Genome, 0, count)
	for i := 0; i < count; i++ {
		p1 := e.roulette(pool)
		p2 := e.roulette(pool)
		if p1.ID == p2.ID {
			offspring = append(offspring, genome.CloneOf(p1))
			continue
		}
		offspring = append(offspring, e.Crossover(p1, p2))
	}

	e.logger.Debug().
		Int("count", len(offspring)).
		Int("pool", len(pool)).
		Msg("Offspring batch created")

	return offspring
}

// roulette performs fitness-proportionate selection, falling back to a
// uniform draw when the pool carries no positive fitness mass.
func (e *Engine) roulette(pool []*genome.Genome) *genome.Genome {
	total := 0.0
	for _, g := range pool {
		total += g.FitnessValue()
	}
	if total <= 0 {
		return pool[e.rng.Intn(len(pool))]
	}

	target := e.rng.Float64() * total
	acc := 0.0
	for _, g := range pool {
		acc += g.FitnessValue()
		if acc >= target {
			return g
		}
	}
	return pool[len(pool)-1]
}

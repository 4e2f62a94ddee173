// Mutation engine for evolutionary strategy search
package mutation

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config tunes the mutation engine.
type Config struct {
	BaseRate       float64 // per-field mutation probability before adaptation
	Strength       float64 // perturbation magnitude as a fraction of the bound range
	EliteCount     int     // offspring slots reserved for elite clones
	TournamentSize int     // parents drawn per tournament
}

// DefaultConfig returns the production mutation settings.
func DefaultConfig() Config {
	return Config{
		BaseRate:       0.1,
		Strength:       0.2,
		EliteCount:     2,
		TournamentSize: 3,
	}
}

// Adaptive rate control thresholds: low fitness spread pushes the rate up
// to escape convergence, high spread pulls it down to exploit.
const (
	lowDiversityCV  = 0.1
	highDiversityCV = 0.5
	maxRate         = 0.8
	minRate         = 0.1
	raiseFactor     = 1.5
	lowerFactor     = 0.8
)

// ============================================================================
// ENGINE
// ============================================================================

// Engine perturbs single genomes. The current rate is session state,
// adapted from population fitness spread and reset to the base rate at the
// start of every batch call.
type Engine struct {
	cfg    Config
	bounds genome.BoundsTable
	rng    *rand.Rand
	rate   float64
	logger zerolog.Logger
}

// NewEngine creates a mutation engine with an injected random source so
// evolution runs replay deterministically for a given seed.
func NewEngine(cfg Config, bounds genome.BoundsTable, rng *rand.Rand) *Engine {
	return &Engine{
		cfg:    cfg,
		bounds: bounds,
		rng:    rng,
		rate:   cfg.BaseRate,
		logger: log.With().Str("component", "mutation").Logger(),
	}
}

// Rate returns the current adaptive mutation rate.
func (e *Engine) Rate() float64 {
	return e.rate
}

// Mutate produces a lineage-advanced offspring of g. Elite genomes are
// cloned with unchanged parameters; otherwise every numeric field
// independently mutates with probability equal to the current rate, and the
// timeframe shifts one step along the ordered list with half that
// probability. Cross-field invariants are repaired before returning.
func (e *Engine) Mutate(g *genome.Genome, isElite bool) *genome.Genome {
	if isElite {
		return genome.CloneOf(g)
	}

	params := g.Params
	for _, f := range genome.NumericFields {
		if e.rng.Float64() >= e.rate {
			continue
		}
		b := f.Bound(e.bounds)
		v := f.Get(&params) + (e.rng.Float64()*2-1)*b.Range()*e.cfg.Strength
		f.Set(&params, b.Apply(v))
	}

	if e.rng.Float64() < e.rate/2 {
		params.Timing.Timeframe = shiftTimeframe(params.Timing.Timeframe, e.rng)
	}

	genome.RepairInvariants(&params, e.bounds)
	return genome.Child(params, g)
}

// shiftTimeframe moves one step up or down the ordered timeframe list.
// The ends do not wrap around.
func shiftTimeframe(tf genome.Timeframe, rng *rand.Rand) genome.Timeframe {
	idx := genome.TimeframeIndex(tf)
	if idx < 0 {
		return genome.Timeframes[0]
	}
	if rng.Intn(2) == 0 {
		idx--
	} else {
		idx++
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(genome.Timeframes)-1 {
		idx = len(genome.Timeframes) - 1
	}
	return genome.Timeframes[idx]
}

// UpdateAdaptiveRate recomputes the current rate from the population's
// fitness coefficient of variation: a tightly converged population raises
// the rate, a widely spread one lowers it, anything in between resets to
// the base rate.
func (e *Engine) UpdateAdaptiveRate(population []*genome.Genome) {
	cv := genome.FitnessCV(population)

	prev := e.rate
	switch {
	case cv < lowDiversityCV:
		e.rate = math.Min(maxRate, e.cfg.BaseRate*raiseFactor)
	case cv > highDiversityCV:
		e.rate = math.Max(minRate, e.cfg.BaseRate*lowerFactor)
	default:
		e.rate = e.cfg.BaseRate
	}

	if e.rate != prev {
		e.logger.Debug().
			Float64("fitness_cv", cv).
			Float64("rate", e.rate).
			Msg("Adaptive mutation rate updated")
	}
}

// MutatePopulation produces count offspring from the population. The rate
// resets to base and re-adapts to the current fitness spread first. The
// first EliteCount slots are elite clones of the top-fitness genomes; the
// remaining parents come from k-way tournaments.
func (e *Engine) MutatePopulation(population []*genome.Genome, count int) []*genome.Genome {
	if len(population) == 0 || count <= 0 {
		return nil
	}

	e.rate = e.cfg.BaseRate
	e.UpdateAdaptiveRate(population)

	ranked := make([]*genome.Genome, len(population))
	copy(ranked, population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FitnessValue() > ranked[j].FitnessValue()
	})

	offspring := make([]*genome.Genome, 0, count)
	for i := 0; i < count; i++ {
		if i < e.cfg.EliteCount && i < len(ranked) {
			offspring = append(offspring, e.Mutate(ranked[i], true))
			continue
		}
		offspring = append(offspring, e.Mutate(e.tournament(population), false))
	}

	return offspring
}

// tournament draws TournamentSize genomes uniformly and keeps the fittest.
func (e *Engine) tournament(population []*genome.Genome) *genome.Genome {
	best := population[e.rng.Intn(len(population))]
	for i := 1; i < e.cfg.TournamentSize; i++ {
		contestant := population[e.rng.Intn(len(population))]
		if contestant.FitnessValue() > best.FitnessValue() {
			best = contestant
		}
	}
	return best
}

// Population manager: the generational loop of the evolutionary search
package population

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/evofunk/internal/crossover"
	"github.com/ajitpratap0/evofunk/internal/evaluator"
	"github.com/ajitpratap0/evofunk/internal/genome"
	"github.com/ajitpratap0/evofunk/internal/mutation"
	"github.com/ajitpratap0/evofunk/internal/selection"
)

// ============================================================================
// STATES AND RESULTS
// ============================================================================

// State is the lifecycle state of a population manager. Terminal states
// exit only through re-initialization.
type State string

const (
	StateUninitialized  State = "UNINITIALIZED"
	StateRunning        State = "RUNNING"
	StateConverged      State = "CONVERGED"
	StateStagnated      State = "STAGNATED"
	StateMaxGenerations State = "MAX_GENERATIONS"
	StateError          State = "ERROR"
)

// Reason tags why an evolution run terminated.
type Reason string

const (
	ReasonConvergence    Reason = "convergence"
	ReasonStagnation     Reason = "stagnation"
	ReasonMaxGenerations Reason = "max_generations"
	ReasonError          Reason = "error"
)

// GenerationStats summarizes one completed generation. Computed once,
// never mutated.
type GenerationStats struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	AverageFitness float64 `json:"average_fitness"`
	WorstFitness   float64 `json:"worst_fitness"`
	BestSharpe     float64 `json:"best_sharpe"`
	BestReturn     float64 `json:"best_return"`
	BestDrawdown   float64 `json:"best_drawdown"`
	BestWinRate    float64 `json:"best_win_rate"`
	Diversity      float64 `json:"diversity"`
	Converged      bool    `json:"converged"`
	Improved       bool    `json:"improved"`
}

// EvolutionResult is the outcome of a drive-to-completion run. Every
// outcome, including internal failure, is data: Run never panics through
// to the caller.
type EvolutionResult struct {
	Reason      Reason            `json:"reason"`
	Generations int               `json:"generations"`
	BestGenome  *genome.Genome    `json:"best_genome,omitempty"`
	Population  []*genome.Genome  `json:"population"`
	History     []GenerationStats `json:"history"`
	Err         error             `json:"-"`
}

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config tunes the generational loop.
type Config struct {
	PopulationSize       int     // survivors per generation
	SeedSize             int     // genomes in the initial population
	OffspringCount       int     // offspring produced per generation
	CrossoverShare       float64 // fraction of offspring from crossover, rest from mutation
	MaxGenerations       int     // hard generation cap
	ConvergenceThreshold float64 // convergence and improvement threshold
	StagnationLimit      int     // generations without improvement before stopping
	EvalWorkers          int     // bounded worker pool for offspring evaluation
}

// DefaultConfig returns the production loop settings.
func DefaultConfig() Config {
	return Config{
		PopulationSize:       5,
		SeedSize:             20,
		OffspringCount:       20,
		CrossoverShare:       0.6,
		MaxGenerations:       50,
		ConvergenceThreshold: 0.05,
		StagnationLimit:      10,
		EvalWorkers:          4,
	}
}

// ============================================================================
// MANAGER
// ============================================================================

// Manager owns the population and drives the generational loop. It is the
// sole mutator of the population; callers read through copying accessors.
// A manager is not safe for concurrent use by multiple goroutines.
type Manager struct {
	cfg      Config
	bounds   genome.BoundsTable
	mutator  *mutation.Engine
	crosser  *crossover.Engine
	selector *selection.Selector
	rng      *rand.Rand
	logger   zerolog.Logger

	state       State
	generation  int
	population  []*genome.Genome
	bestEver    *genome.Genome
	bestFitness float64
	stagnation  int
	history     []GenerationStats
	cache       map[int][]*genome.Genome
}

// NewManager wires the genetic operators around a shared seeded random
// source so a run replays deterministically for a given seed.
func NewManager(cfg Config, mutCfg mutation.Config, crossCfg crossover.Config, selCfg selection.Config, bounds genome.BoundsTable, seed int64) *Manager {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- Non-cryptographic use: evolution needs reproducible randomness
	return &Manager{
		cfg:         cfg,
		bounds:      bounds,
		mutator:     mutation.NewEngine(mutCfg, bounds, rng),
		crosser:     crossover.NewEngine(crossCfg, bounds, rng),
		selector:    selection.NewSelector(selCfg, bounds, rng),
		rng:         rng,
		logger:      log.With().Str("component", "population").Logger(),
		state:       StateUninitialized,
		bestFitness: math.Inf(-1),
		cache:       make(map[int][]*genome.Genome),
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Generation returns the number of completed generations.
func (m *Manager) Generation() int {
	return m.generation
}

// Initialize resets all counters, history, and the generation cache, then
// builds the seed population: provided genomes are lineage-reset to
// generation zero and padded with random genomes up to the configured seed
// size (or fully random when none are supplied). Generation zero is cached.
func (m *Manager) Initialize(seed []*genome.Genome) {
	m.generation = 0
	m.stagnation = 0
	m.bestEver = nil
	m.bestFitness = math.Inf(-1)
	m.history = nil
	m.cache = make(map[int][]*genome.Genome)

	pop := make([]*genome.Genome, 0, m.cfg.SeedSize)
	for _, g := range seed {
		if len(pop) >= m.cfg.SeedSize {
			break
		}
		pop = append(pop, resetLineage(g))
	}
	for len(pop) < m.cfg.SeedSize {
		pop = append(pop, genome.NewRandom(m.rng, m.bounds, 0))
	}

	m.population = pop
	m.cacheGeneration(0)
	m.state = StateRunning

	m.logger.Info().
		Int("seeded", len(seed)).
		Int("population", len(pop)).
		Msg("Population initialized")
}

// resetLineage re-roots a seed genome at generation zero: fresh identity,
// no ancestry, parameters and any known evaluation preserved.
func resetLineage(g *genome.Genome) *genome.Genome {
	c := g.Copy()
	c.ID = uuid.New()
	c.ParentIDs = nil
	c.Generation = 0
	return c
}

// EvolveNextGeneration advances the loop by one generation: an offspring
// batch split between crossover and mutation, a bounded-concurrency
// evaluation pass, survivor selection over the merged pool, a cached
// snapshot, and derived statistics. A failed evaluation substitutes the
// worst-case metric record; it never aborts the generation.
func (m *Manager) EvolveNextGeneration(ctx context.Context, evaluate evaluator.Func) (*GenerationStats, error) {
	if m.state != StateRunning {
		return nil, fmt.Errorf("population manager is %s, not %s", m.state, StateRunning)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evolution cancelled: %w", err)
	}

	m.generation++

	ranked := make([]*genome.Genome, len(m.population))
	copy(ranked, m.population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FitnessValue() > ranked[j].FitnessValue()
	})

	crossCount := int(float64(m.cfg.OffspringCount) * m.cfg.CrossoverShare)
	mutCount := m.cfg.OffspringCount - crossCount

	offspring := m.crosser.CreateOffspring(ranked, crossCount)
	offspring = append(offspring, m.mutator.MutatePopulation(ranked, mutCount)...)

	m.evaluateOffspring(ctx, offspring, evaluate)

	merged := make([]*genome.Genome, 0, len(m.population)+len(offspring))
	merged = append(merged, m.population...)
	merged = append(merged, offspring...)
	m.population = m.selector.SelectNextGeneration(merged, m.cfg.PopulationSize)

	m.cacheGeneration(m.generation)

	stats := m.computeStats()
	m.history = append(m.history, stats)

	m.logger.Info().
		Int("generation", m.generation).
		Float64("best_fitness", stats.BestFitness).
		Float64("avg_fitness", stats.AverageFitness).
		Float64("diversity", stats.Diversity).
		Bool("improved", stats.Improved).
		Msg("Generation complete")

	return &stats, nil
}

// evaluateOffspring runs the external evaluator over the batch through a
// bounded worker pool. Offspring are mutually independent, so evaluation
// order does not matter; all results are collected before selection runs.
func (m *Manager) evaluateOffspring(ctx context.Context, offspring []*genome.Genome, evaluate evaluator.Func) {
	var g errgroup.Group
	workers := m.cfg.EvalWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, child := range offspring {
		g.Go(func() error {
			metrics, err := evaluate(ctx, child)
			if err != nil || metrics == nil {
				m.logger.Warn().
					Err(err).
					Str("genome_id", child.ID.String()).
					Msg("Evaluation failed, substituting worst-case metrics")
				metrics = evaluator.WorstCase()
			}
			child.SetEvaluation(metrics, selection.CalculateFitness(metrics))
			return nil
		})
	}

	// Workers never return errors; failures degrade to worst-case metrics.
	_ = g.Wait()
}

// computeStats derives the generation's statistics and updates the
// best-ever/stagnation bookkeeping.
func (m *Manager) computeStats() GenerationStats {
	stats := GenerationStats{
		Generation:   m.generation,
		WorstFitness: math.Inf(1),
	}

	var best *genome.Genome
	sum := 0.0
	for _, g := range m.population {
		f := g.FitnessValue()
		sum += f
		if f < stats.WorstFitness {
			stats.WorstFitness = f
		}
		if best == nil || f > best.FitnessValue() {
			best = g
		}
	}
	if len(m.population) > 0 {
		stats.AverageFitness = sum / float64(len(m.population))
	} else {
		stats.WorstFitness = 0
	}

	if best != nil {
		stats.BestFitness = best.FitnessValue()
		if best.Metrics != nil {
			stats.BestSharpe = best.Metrics.SharpeRatio
			stats.BestReturn = best.Metrics.TotalReturn
			stats.BestDrawdown = best.Metrics.MaxDrawdown
			stats.BestWinRate = best.Metrics.WinRate
		}
	}

	stats.Diversity = m.selector.Diversity(m.population)
	stats.Converged = m.selector.CheckConvergence(m.population, m.cfg.ConvergenceThreshold)

	if best != nil && best.FitnessValue() > m.bestFitness+m.cfg.ConvergenceThreshold {
		m.bestEver = best.Copy()
		m.bestFitness = best.FitnessValue()
		m.stagnation = 0
		stats.Improved = true
	} else {
		m.stagnation++
	}

	return stats
}

// Run drives the loop to completion: it stops on convergence, on the
// stagnation limit, or on the hard generation cap, invoking the optional
// observer after every generation. Any panic inside the loop is recovered
// and surfaced as an error-reason result carrying the partial history;
// nothing propagates to the caller.
func (m *Manager) Run(ctx context.Context, evaluate evaluator.Func, onGeneration func(GenerationStats)) (result *EvolutionResult) {
	defer func() {
		if r := recover(); r != nil {
			m.state = StateError
			m.logger.Error().
				Interface("panic", r).
				Int("generation", m.generation).
				Msg("Evolution loop panicked")
			result = m.result(ReasonError, fmt.Errorf("evolution loop panic: %v", r))
		}
	}()

	if m.state != StateRunning {
		return m.result(ReasonError, fmt.Errorf("population manager is %s, not %s", m.state, StateRunning))
	}

	for {
		stats, err := m.EvolveNextGeneration(ctx, evaluate)
		if err != nil {
			m.state = StateError
			return m.result(ReasonError, err)
		}
		if onGeneration != nil {
			onGeneration(*stats)
		}

		switch {
		case stats.Converged:
			m.state = StateConverged
			return m.result(ReasonConvergence, nil)
		case m.stagnation >= m.cfg.StagnationLimit:
			m.state = StateStagnated
			return m.result(ReasonStagnation, nil)
		case m.generation >= m.cfg.MaxGenerations:
			m.state = StateMaxGenerations
			return m.result(ReasonMaxGenerations, nil)
		}
	}
}

func (m *Manager) result(reason Reason, err error) *EvolutionResult {
	res := &EvolutionResult{
		Reason:      reason,
		Generations: m.generation,
		BestGenome:  m.BestGenome(),
		Population:  m.Population(),
		History:     m.History(),
		Err:         err,
	}

	m.logger.Info().
		Str("reason", string(reason)).
		Int("generations", m.generation).
		Msg("Evolution run finished")

	return res
}

// ============================================================================
// ACCESSORS
// ============================================================================

// BestGenome returns the best genome seen across the whole run, falling
// back to the fittest member of the current population.
func (m *Manager) BestGenome() *genome.Genome {
	if m.bestEver != nil {
		return m.bestEver.Copy()
	}
	var best *genome.Genome
	for _, g := range m.population {
		if best == nil || g.FitnessValue() > best.FitnessValue() {
			best = g
		}
	}
	if best == nil {
		return nil
	}
	return best.Copy()
}

// Population returns a deep copy of the current population.
func (m *Manager) Population() []*genome.Genome {
	return copyPopulation(m.population)
}

// History returns the per-generation statistics recorded so far.
func (m *Manager) History() []GenerationStats {
	out := make([]GenerationStats, len(m.history))
	copy(out, m.history)
	return out
}

// CachedGeneration returns the read-only snapshot of generation n.
func (m *Manager) CachedGeneration(n int) ([]*genome.Genome, bool) {
	snap, ok := m.cache[n]
	if !ok {
		return nil, false
	}
	return copyPopulation(snap), true
}

// ClearCache drops all cached generation snapshots.
func (m *Manager) ClearCache() {
	m.cache = make(map[int][]*genome.Genome)
}

// cacheGeneration stores a deep-copied snapshot of the current population.
// Explicit value copies, not a serialize round-trip.
func (m *Manager) cacheGeneration(n int) {
	m.cache[n] = copyPopulation(m.population)
}

func copyPopulation(pop []*genome.Genome) []*genome.Genome {
	out := make([]*genome.Genome, len(pop))
	for i, g := range pop {
		out[i] = g.Copy()
	}
	return out
}

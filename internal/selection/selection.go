// Survivor selection and fitness scoring for evolutionary strategy search
package selection

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

// Method selects the survivor-selection strategy used after elitism and
// diversity preservation.
type Method string

const (
	MethodTournament Method = "tournament"
	MethodRoulette   Method = "roulette"
	MethodRank       Method = "rank"
	MethodTruncation Method = "truncation"
)

// Methods lists every supported selection method.
var Methods = []Method{MethodTournament, MethodRoulette, MethodRank, MethodTruncation}

// Config tunes the selector.
type Config struct {
	Method            Method  // strategy for the non-elite, non-diversity slots
	EliteCount        int     // genomes preserved unconditionally
	DiversityFraction float64 // share of the target filled by max-min distance
	TournamentSize    int     // contestants per tournament draw
}

// DefaultConfig returns the production selection settings.
func DefaultConfig() Config {
	return Config{
		Method:            MethodTournament,
		EliteCount:        2,
		DiversityFraction: 0.2,
		TournamentSize:    3,
	}
}

// truncationKeepRatio is the share of the candidate pool the truncation
// method draws from.
const truncationKeepRatio = 0.5

// ============================================================================
// FITNESS
// ============================================================================

// Fitness scoring shape: Sharpe base, exponential drawdown penalty past the
// soft cap, linear scale-down for thin trade samples, small bonus for a
// profitable hit rate. Never negative.
const (
	drawdownSoftCap      = 0.2
	drawdownPenaltySlope = 5.0
	minTradeSample       = 10
	consistencyBonus     = 1.1
)

// CalculateFitness derives the scalar fitness score from raw backtest
// metrics. Drawdown is expressed as a fraction (1.0 = full loss), win rate
// as a fraction of trades won.
func CalculateFitness(m *genome.BacktestMetrics) float64 {
	if m == nil {
		return 0
	}

	fitness := m.SharpeRatio

	if m.MaxDrawdown > drawdownSoftCap {
		fitness *= math.Exp(-(m.MaxDrawdown - drawdownSoftCap) * drawdownPenaltySlope)
	}

	if m.TotalTrades < minTradeSample {
		fitness *= float64(m.TotalTrades) / float64(minTradeSample)
	}

	if m.WinRate > 0.5 && m.ProfitFactor > 1 {
		fitness *= consistencyBonus
	}

	if fitness < 0 {
		return 0
	}
	return fitness
}

// ============================================================================
// SELECTOR
// ============================================================================

// Selector scores genomes and chooses survivors.
type Selector struct {
	cfg    Config
	bounds genome.BoundsTable
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewSelector creates a selector with an injected random source.
func NewSelector(cfg Config, bounds genome.BoundsTable, rng *rand.Rand) *Selector {
	return &Selector{
		cfg:    cfg,
		bounds: bounds,
		rng:    rng,
		logger: log.With().Str("component", "selection").Logger(),
	}
}

// SelectNextGeneration trims a merged population down to targetSize. The
// top EliteCount genomes survive unconditionally; a diversity quota is
// filled by greedy max-min distance over the remaining candidates (elites
// never compete for diversity slots); the rest come from the configured
// method. Shortfalls fall back to fitness order.
func (s *Selector) SelectNextGeneration(population []*genome.Genome, targetSize int) []*genome.Genome {
	if targetSize <= 0 || len(population) == 0 {
		return nil
	}

	ranked := make([]*genome.Genome, len(population))
	copy(ranked, population)
	for _, g := range ranked {
		ensureFitness(g)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FitnessValue() > ranked[j].FitnessValue()
	})

	if targetSize >= len(ranked) {
		return ranked
	}

	selected := make([]*genome.Genome, 0, targetSize)
	eliteCount := s.cfg.EliteCount
	if eliteCount > targetSize {
		eliteCount = targetSize
	}
	selected = append(selected, ranked[:eliteCount]...)
	remaining := ranked[eliteCount:]

	diversitySlots := int(float64(targetSize) * s.cfg.DiversityFraction)
	if diversitySlots > targetSize-len(selected) {
		diversitySlots = targetSize - len(selected)
	}
	for i := 0; i < diversitySlots && len(remaining) > 0; i++ {
		idx := s.mostDistant(remaining, selected)
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	for len(selected) < targetSize && len(remaining) > 0 {
		var idx int
		switch s.cfg.Method {
		case MethodRoulette:
			idx = s.rouletteIndex(remaining)
		case MethodRank:
			idx = s.rankIndex(remaining)
		case MethodTruncation:
			idx = s.truncationIndex(remaining)
		default:
			idx = s.tournamentIndex(remaining)
		}
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	s.logger.Debug().
		Int("input", len(population)).
		Int("selected", len(selected)).
		Int("elites", eliteCount).
		Int("diversity_slots", diversitySlots).
		Msg("Next generation selected")

	return selected
}

// ensureFitness assigns a score to any genome that arrived unevaluated:
// from its metrics when present, zero otherwise.
func ensureFitness(g *genome.Genome) {
	if g.HasFitness() {
		return
	}
	g.SetEvaluation(g.Metrics, CalculateFitness(g.Metrics))
}

// mostDistant returns the index of the candidate maximizing its minimum
// distance to the already-selected set (greedy crowding preservation).
func (s *Selector) mostDistant(candidates, selected []*genome.Genome) int {
	bestIdx := 0
	bestDist := -1.0
	for i, c := range candidates {
		minDist := math.Inf(1)
		for _, g := range selected {
			d := genome.NormalizedDistance(c, g, s.bounds)
			if d < minDist {
				minDist = d
			}
		}
		if minDist > bestDist {
			bestDist = minDist
			bestIdx = i
		}
	}
	return bestIdx
}

// tournamentIndex runs a k-way tournament over the candidate pool.
func (s *Selector) tournamentIndex(pool []*genome.Genome) int {
	best := s.rng.Intn(len(pool))
	for i := 1; i < s.cfg.TournamentSize; i++ {
		contestant := s.rng.Intn(len(pool))
		if pool[contestant].FitnessValue() > pool[best].FitnessValue() {
			best = contestant
		}
	}
	return best
}

// rouletteIndex draws fitness-proportionate, uniform when the pool has no
// positive fitness mass.
func (s *Selector) rouletteIndex(pool []*genome.Genome) int {
	total := 0.0
	for _, g := range pool {
		total += g.FitnessValue()
	}
	if total <= 0 {
		return s.rng.Intn(len(pool))
	}
	target := s.rng.Float64() * total
	acc := 0.0
	for i, g := range pool {
		acc += g.FitnessValue()
		if acc >= target {
			return i
		}
	}
	return len(pool) - 1
}

// rankIndex draws with linear-rank weights: the pool is fitness-sorted on
// entry, so index i has weight n-i.
func (s *Selector) rankIndex(pool []*genome.Genome) int {
	n := len(pool)
	total := n * (n + 1) / 2
	target := s.rng.Intn(total)
	acc := 0
	for i := 0; i < n; i++ {
		acc += n - i
		if acc > target {
			return i
		}
	}
	return n - 1
}

// truncationIndex draws uniformly from the top half of the pool.
func (s *Selector) truncationIndex(pool []*genome.Genome) int {
	cut := int(math.Ceil(float64(len(pool)) * truncationKeepRatio))
	if cut < 1 {
		cut = 1
	}
	return s.rng.Intn(cut)
}

// ============================================================================
// DIVERSITY AND CONVERGENCE
// ============================================================================

// Diversity is the mean pairwise normalized distance across the population.
func (s *Selector) Diversity(population []*genome.Genome) float64 {
	return meanPairwiseDistance(population, s.bounds)
}

// CheckConvergence reports whether the population has converged: both the
// mean pairwise parameter distance and the fitness coefficient of variation
// must fall below the threshold.
func (s *Selector) CheckConvergence(population []*genome.Genome, threshold float64) bool {
	if len(population) < 2 {
		return false
	}
	if meanPairwiseDistance(population, s.bounds) >= threshold {
		return false
	}
	return genome.FitnessCV(population) < threshold
}

func meanPairwiseDistance(population []*genome.Genome, bounds genome.BoundsTable) float64 {
	n := len(population)
	if n < 2 {
		return 0
	}
	sum := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += genome.NormalizedDistance(population[i], population[j], bounds)
			pairs++
		}
	}
	return sum / float64(pairs)
}

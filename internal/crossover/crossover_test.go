package crossover

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/evofunk/internal/genome"
)

func newTestEngine(cfg Config, seed int64) *Engine {
	return NewEngine(cfg, genome.DefaultBounds, rand.New(rand.NewSource(seed)))
}

func withFitness(rng *rand.Rand, f float64) *genome.Genome {
	g := genome.NewRandom(rng, genome.DefaultBounds, 0)
	g.SetEvaluation(&genome.BacktestMetrics{}, f)
	return g
}

func assertValidChild(t *testing.T, child *genome.Genome) {
	t.Helper()
	for _, f := range genome.NumericFields {
		b := f.Bound(genome.DefaultBounds)
		v := f.Get(&child.Params)
		assert.True(t, b.Contains(v), "%s.%s out of bounds: %v", f.Group, f.Name, v)
	}
	assert.True(t, genome.TimeframeIndex(child.Params.Timing.Timeframe) >= 0)
	assert.Less(t, child.Params.Entry.FastMAPeriod, child.Params.Entry.SlowMAPeriod)
	assert.GreaterOrEqual(t, child.Params.Entry.Overbought-child.Params.Entry.Oversold, 30.0)
	assert.Less(t, child.Params.Filter.MinVolatility, child.Params.Filter.MaxVolatility)
	assert.Less(t, child.Params.Timing.MinHoldMinutes, child.Params.Timing.MaxHoldMinutes)
}

// ============================================================================
// PAIRWISE CROSSOVER
// ============================================================================

func TestEngine_Crossover(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("zero rate clones the fitter parent", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrossoverRate = 0
		e := newTestEngine(cfg, 1)

		weak := withFitness(rng, 0.5)
		strong := withFitness(rng, 2.0)

		child := e.Crossover(weak, strong)

		assert.Equal(t, strong.Params, child.Params)
		require.Len(t, child.ParentIDs, 1)
		assert.Equal(t, strong.ID, child.ParentIDs[0])
	})

	t.Run("tie goes to the first parent", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrossoverRate = 0
		e := newTestEngine(cfg, 1)

		p1 := withFitness(rng, 1.0)
		p2 := withFitness(rng, 1.0)

		child := e.Crossover(p1, p2)

		assert.Equal(t, p1.Params, child.Params)
	})

	t.Run("recombined child records both parents", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrossoverRate = 1.0
		e := newTestEngine(cfg, 2)

		p1 := genome.NewRandom(rng, genome.DefaultBounds, 3)
		p2 := genome.NewRandom(rng, genome.DefaultBounds, 7)

		child := e.Crossover(p1, p2)

		assert.Equal(t, 8, child.Generation)
		require.Len(t, child.ParentIDs, 2)
		assert.Contains(t, child.ParentIDs, p1.ID)
		assert.Contains(t, child.ParentIDs, p2.ID)
	})

	t.Run("every method produces valid children", func(t *testing.T) {
		for _, method := range Methods {
			t.Run(string(method), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Method = method
				cfg.CrossoverRate = 1.0
				e := newTestEngine(cfg, 3)

				for i := 0; i < 200; i++ {
					p1 := genome.NewRandom(rng, genome.DefaultBounds, 0)
					p2 := genome.NewRandom(rng, genome.DefaultBounds, 0)
					assertValidChild(t, e.Crossover(p1, p2))
				}
			})
		}
	})

	t.Run("parents are never mutated", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrossoverRate = 1.0
		e := newTestEngine(cfg, 4)

		p1 := genome.NewRandom(rng, genome.DefaultBounds, 0)
		p2 := genome.NewRandom(rng, genome.DefaultBounds, 0)
		b1, b2 := p1.Copy(), p2.Copy()

		_ = e.Crossover(p1, p2)

		assert.Equal(t, b1, p1)
		assert.Equal(t, b2, p2)
	})
}

// ============================================================================
// SIMILARITY
// ============================================================================

func TestSimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("identical genomes score one", func(t *testing.T) {
		g := genome.NewRandom(rng, genome.DefaultBounds, 0)
		assert.InDelta(t, 1.0, Similarity(g, g, genome.DefaultBounds), 1e-12)
	})

	t.Run("timeframe mismatch lowers similarity", func(t *testing.T) {
		g := genome.NewRandom(rng, genome.DefaultBounds, 0)
		other := g.Copy()
		if other.Params.Timing.Timeframe == genome.Timeframes[0] {
			other.Params.Timing.Timeframe = genome.Timeframes[1]
		} else {
			other.Params.Timing.Timeframe = genome.Timeframes[0]
		}
		assert.Less(t, Similarity(g, other, genome.DefaultBounds), 1.0)
	})

	t.Run("bounded in [0, 1]", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			a := genome.NewRandom(rng, genome.DefaultBounds, 0)
			b := genome.NewRandom(rng, genome.DefaultBounds, 0)
			sim := Similarity(a, b, genome.DefaultBounds)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := genome.NewRandom(rng, genome.DefaultBounds, 0)
		b := genome.NewRandom(rng, genome.DefaultBounds, 0)
		assert.InDelta(t, Similarity(a, b, genome.DefaultBounds), Similarity(b, a, genome.DefaultBounds), 1e-12)
	})
}

// ============================================================================
// OFFSPRING BATCHES
// ============================================================================

func TestEngine_CreateOffspring(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("produces the requested count", func(t *testing.T) {
		e := newTestEngine(DefaultConfig(), 1)
		pool := []*genome.Genome{
			withFitness(rng, 3), withFitness(rng, 2), withFitness(rng, 1),
		}

		offspring := e.CreateOffspring(pool, 12)

		assert.Len(t, offspring, 12)
		for _, c := range offspring {
			assertValidChild(t, c)
		}
	})

	t.Run("single genome pool yields clones", func(t *testing.T) {
		e := newTestEngine(DefaultConfig(), 2)
		only := withFitness(rng, 1)

		offspring := e.CreateOffspring([]*genome.Genome{only}, 3)

		require.Len(t, offspring, 3)
		for _, c := range offspring {
			assert.Equal(t, only.Params, c.Params)
			require.Len(t, c.ParentIDs, 1)
			assert.Equal(t, only.ID, c.ParentIDs[0])
		}
	})

	t.Run("zero-fitness pool still produces offspring", func(t *testing.T) {
		e := newTestEngine(DefaultConfig(), 3)
		pool := []*genome.Genome{
			withFitness(rng, 0), withFitness(rng, 0), withFitness(rng, 0),
		}

		offspring := e.CreateOffspring(pool, 5)

		assert.Len(t, offspring, 5)
	})

	t.Run("empty inputs", func(t *testing.T) {
		e := newTestEngine(DefaultConfig(), 4)
		assert.Nil(t, e.CreateOffspring(nil, 5))
		assert.Nil(t, e.CreateOffspring([]*genome.Genome{withFitness(rng, 1)}, 0))
	})
}

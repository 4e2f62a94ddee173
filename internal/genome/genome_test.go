package genome

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	g := NewRandom(rng, DefaultBounds, 3)

	assert.NotEqual(t, uuid.Nil, g.ID)
	assert.Empty(t, g.ParentIDs)
	assert.Equal(t, 3, g.Generation)
	assert.False(t, g.HasFitness())
	assert.False(t, g.CreatedAt.IsZero())
	assertValidParams(t, g.Params)
}

func TestChild(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	t.Run("records all parents", func(t *testing.T) {
		p1 := NewRandom(rng, DefaultBounds, 2)
		p2 := NewRandom(rng, DefaultBounds, 5)

		c := Child(p1.Params, p1, p2)

		assert.Equal(t, 6, c.Generation)
		require.Len(t, c.ParentIDs, 2)
		assert.Contains(t, c.ParentIDs, p1.ID)
		assert.Contains(t, c.ParentIDs, p2.ID)
		assert.NotEqual(t, p1.ID, c.ID)
	})

	t.Run("clone advances lineage without touching params", func(t *testing.T) {
		p := NewRandom(rng, DefaultBounds, 4)
		p.SetEvaluation(&BacktestMetrics{SharpeRatio: 1.2, TotalTrades: 20}, 1.2)

		c := CloneOf(p)

		assert.Equal(t, p.Params, c.Params)
		assert.Equal(t, 5, c.Generation)
		require.Len(t, c.ParentIDs, 1)
		assert.Equal(t, p.ID, c.ParentIDs[0])
		// Fitness does not carry over: the clone is a new candidate.
		assert.False(t, c.HasFitness())
	})
}

func TestGenome_Copy(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	g := NewRandom(rng, DefaultBounds, 1)
	g.ParentIDs = []uuid.UUID{uuid.New()}
	g.SetEvaluation(&BacktestMetrics{SharpeRatio: 2.0, TotalTrades: 30}, 2.0)
	g.Result = json.RawMessage(`{"trades":30}`)

	c := g.Copy()

	require.Equal(t, g, c)

	// Mutating the copy must not reach the original.
	c.ParentIDs[0] = uuid.New()
	*c.Fitness = 9
	c.Metrics.SharpeRatio = 9
	c.Result[0] = 'X'

	assert.NotEqual(t, g.ParentIDs[0], c.ParentIDs[0])
	assert.Equal(t, 2.0, *g.Fitness)
	assert.Equal(t, 2.0, g.Metrics.SharpeRatio)
	assert.Equal(t, byte('{'), g.Result[0])
}

func TestGenome_JSONRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	g := NewRandom(rng, DefaultBounds, 7)
	g.ParentIDs = []uuid.UUID{uuid.New(), uuid.New()}
	g.SetEvaluation(&BacktestMetrics{
		SharpeRatio:  1.8,
		TotalReturn:  0.42,
		MaxDrawdown:  0.12,
		WinRate:      0.55,
		ProfitFactor: 1.6,
		TotalTrades:  87,
	}, 1.98)
	g.Result = json.RawMessage(`{"equity_curve":[1,2,3]}`)

	payload, err := json.Marshal(g)
	require.NoError(t, err)

	var restored Genome
	require.NoError(t, json.Unmarshal(payload, &restored))

	assert.Equal(t, g.ID, restored.ID)
	assert.Equal(t, g.ParentIDs, restored.ParentIDs)
	assert.Equal(t, g.Generation, restored.Generation)
	assert.Equal(t, g.Params, restored.Params)
	assert.Equal(t, *g.Fitness, *restored.Fitness)
	assert.Equal(t, *g.Metrics, *restored.Metrics)
	assert.JSONEq(t, string(g.Result), string(restored.Result))
	assert.True(t, g.CreatedAt.Equal(restored.CreatedAt))
}

func TestGenome_Fitness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := NewRandom(rng, DefaultBounds, 0)

	assert.False(t, g.HasFitness())
	assert.Equal(t, 0.0, g.FitnessValue())

	g.SetEvaluation(&BacktestMetrics{SharpeRatio: 1.0}, 1.0)
	assert.True(t, g.HasFitness())
	assert.Equal(t, 1.0, g.FitnessValue())
}

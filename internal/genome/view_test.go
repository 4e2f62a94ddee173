package genome

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenome_ToStrategyView(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := NewRandom(rng, DefaultBounds, 12)

	view := g.ToStrategyView()

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, ViewSchemaVersion, view.Metadata.SchemaVersion)
		assert.Equal(t, g.ID.String(), view.Metadata.ID)
		assert.Equal(t, "evolution", view.Metadata.Source)
		assert.Equal(t, 12, view.Metadata.Generation)
		assert.Equal(t, fmt.Sprintf("evolved-gen12-%s", g.ID.String()[:8]), view.Metadata.Name)
		assert.True(t, view.Metadata.CreatedAt.Equal(g.CreatedAt))
	})

	t.Run("indicators", func(t *testing.T) {
		assert.Equal(t, g.Params.Entry.Overbought, view.Indicators.RSIOverbought)
		assert.Equal(t, g.Params.Entry.Oversold, view.Indicators.RSIOversold)
		assert.Equal(t, int(g.Params.Entry.FastMAPeriod), view.Indicators.FastMAPeriod)
		assert.Equal(t, int(g.Params.Entry.SlowMAPeriod), view.Indicators.SlowMAPeriod)
		assert.Equal(t, g.Params.Entry.VolumeSurge, view.Indicators.VolumeSurge)
		assert.Equal(t, g.Params.Entry.SignalThreshold, view.Indicators.SignalThreshold)
	})

	t.Run("risk", func(t *testing.T) {
		assert.Equal(t, g.Params.Risk.StopLossPct, view.Risk.StopLossPct)
		assert.Equal(t, g.Params.Risk.TakeProfitPct, view.Risk.TakeProfitPct)
		assert.Equal(t, g.Params.Risk.MaxPositionSize, view.Risk.MaxPositionSize)
		assert.Equal(t, int(g.Params.Risk.MaxLeverage), view.Risk.MaxLeverage)
		assert.Equal(t, g.Params.Risk.TrailingStopPct, view.Risk.TrailingStopPct)
	})

	t.Run("execution and filters", func(t *testing.T) {
		assert.Equal(t, string(g.Params.Timing.Timeframe), view.Execution.Timeframe)
		assert.Equal(t, int(g.Params.Timing.MinHoldMinutes), view.Execution.MinHoldMinutes)
		assert.Equal(t, int(g.Params.Timing.MaxHoldMinutes), view.Execution.MaxHoldMinutes)
		assert.Equal(t, g.Params.Filter.MinVolatility, view.Filters.MinVolatility)
		assert.Equal(t, g.Params.Filter.MaxVolatility, view.Filters.MaxVolatility)
		assert.Equal(t, g.Params.Filter.TrendStrength, view.Filters.TrendStrength)
		assert.Equal(t, g.Params.Filter.CorrelationThreshold, view.Filters.CorrelationThreshold)
	})

	t.Run("projection does not mutate the genome", func(t *testing.T) {
		before := g.Copy()
		_ = g.ToStrategyView()
		require.Equal(t, before, g)
	})
}

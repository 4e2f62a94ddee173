package genome

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertValidParams checks bounds closure and every cross-field invariant.
func assertValidParams(t *testing.T, p StrategyParams) {
	t.Helper()

	for _, f := range NumericFields {
		b := f.Bound(DefaultBounds)
		v := f.Get(&p)
		assert.True(t, b.Contains(v), "%s.%s out of bounds: %v", f.Group, f.Name, v)
	}
	assert.True(t, TimeframeIndex(p.Timing.Timeframe) >= 0, "unknown timeframe %q", p.Timing.Timeframe)

	assert.Less(t, p.Entry.FastMAPeriod, p.Entry.SlowMAPeriod)
	assert.GreaterOrEqual(t, p.Entry.Overbought-p.Entry.Oversold, float64(minOscillatorSeparation))
	assert.Less(t, p.Filter.MinVolatility, p.Filter.MaxVolatility)
	assert.Less(t, p.Timing.MinHoldMinutes, p.Timing.MaxHoldMinutes)
}

func TestRandomParams(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		p := RandomParams(rng, DefaultBounds)
		assertValidParams(t, p)
	}
}

func TestRepairInvariants(t *testing.T) {
	base := func() StrategyParams {
		rng := rand.New(rand.NewSource(7))
		return RandomParams(rng, DefaultBounds)
	}

	t.Run("fast MA pulled below slow MA", func(t *testing.T) {
		p := base()
		p.Entry.FastMAPeriod = 45
		p.Entry.SlowMAPeriod = 40
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
		assert.Equal(t, 39.0, p.Entry.FastMAPeriod)
	})

	t.Run("slow MA pushed up when fast cannot drop", func(t *testing.T) {
		p := base()
		p.Entry.FastMAPeriod = 20
		p.Entry.SlowMAPeriod = 20
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
	})

	t.Run("oscillator levels recentered", func(t *testing.T) {
		p := base()
		p.Entry.Oversold = 50
		p.Entry.Overbought = 55
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
		// Recentering keeps the midpoint.
		mid := (p.Entry.Oversold + p.Entry.Overbought) / 2
		assert.InDelta(t, 52.5, mid, 1.0)
	})

	t.Run("oscillator recentering clamps at the edges", func(t *testing.T) {
		p := base()
		p.Entry.Oversold = 58
		p.Entry.Overbought = 60
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
	})

	t.Run("volatility band reordered", func(t *testing.T) {
		p := base()
		p.Filter.MinVolatility = 0.04
		p.Filter.MaxVolatility = 0.02
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
		assert.InDelta(t, 0.06, p.Filter.MaxVolatility, 1e-9)
	})

	t.Run("hold window reordered", func(t *testing.T) {
		p := base()
		p.Timing.MinHoldMinutes = 240
		p.Timing.MaxHoldMinutes = 120
		RepairInvariants(&p, DefaultBounds)
		assertValidParams(t, p)
		assert.Equal(t, 270.0, p.Timing.MaxHoldMinutes)
	})

	t.Run("valid params untouched", func(t *testing.T) {
		p := base()
		before := p
		RepairInvariants(&p, DefaultBounds)
		assert.Equal(t, before, p)
	})
}

func TestTimeframes(t *testing.T) {
	require.Equal(t, []Timeframe{"1m", "5m", "15m", "1h", "4h"}, Timeframes)

	for i, tf := range Timeframes {
		assert.Equal(t, i, TimeframeIndex(tf))
	}
	assert.Equal(t, -1, TimeframeIndex("2h"))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		assert.True(t, TimeframeIndex(RandomTimeframe(rng)) >= 0)
	}
}

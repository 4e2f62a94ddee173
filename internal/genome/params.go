package genome

// ============================================================================
// STRATEGY PARAMETERS
// ============================================================================

// EntryThresholds controls when a strategy opens a position. MA periods are
// integer-bounded but stored as float64 so all numeric fields share one
// representation in the genetic operators; the strategy view exports ints.
type EntryThresholds struct {
	Oversold        float64 `json:"oversold"`
	Overbought      float64 `json:"overbought"`
	FastMAPeriod    float64 `json:"fast_ma_period"`
	SlowMAPeriod    float64 `json:"slow_ma_period"`
	VolumeSurge     float64 `json:"volume_surge"`
	SignalThreshold float64 `json:"signal_threshold"`
}

// RiskParams controls position sizing and exit protection.
type RiskParams struct {
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	MaxPositionSize float64 `json:"max_position_size"`
	MaxLeverage     float64 `json:"max_leverage"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`
}

// TimingParams controls the candle timeframe and holding window.
type TimingParams struct {
	Timeframe      Timeframe `json:"timeframe"`
	MinHoldMinutes float64   `json:"min_hold_minutes"`
	MaxHoldMinutes float64   `json:"max_hold_minutes"`
}

// FilterParams gates entries on market regime.
type FilterParams struct {
	MinVolatility        float64 `json:"min_volatility"`
	MaxVolatility        float64 `json:"max_volatility"`
	TrendStrength        float64 `json:"trend_strength"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
}

// StrategyParams is the full four-group parameter record carried by a genome.
type StrategyParams struct {
	Entry  EntryThresholds `json:"entry"`
	Risk   RiskParams      `json:"risk"`
	Timing TimingParams    `json:"timing"`
	Filter FilterParams    `json:"filter"`
}

// ============================================================================
// TIMEFRAME
// ============================================================================

// Timeframe is the candle interval a strategy trades on.
type Timeframe string

// Timeframes is the fixed ordered set of legal timeframes. Mutation shifts
// along this list one step at a time, without wraparound.
var Timeframes = []Timeframe{"1m", "5m", "15m", "1h", "4h"}

// TimeframeIndex returns the position of tf in Timeframes, or -1.
func TimeframeIndex(tf Timeframe) int {
	for i, t := range Timeframes {
		if t == tf {
			return i
		}
	}
	return -1
}

// RandomTimeframe draws a uniform timeframe.
func RandomTimeframe(rng Rand) Timeframe {
	return Timeframes[rng.Intn(len(Timeframes))]
}

// ============================================================================
// ENUMERATED FIELD LIST
// ============================================================================

// FieldSpec ties one numeric parameter to its group, its bound in the
// bounds table, and typed accessors. The fixed NumericFields list replaces
// reflective field iteration: adding a parameter without a bounds entry
// fails to compile instead of failing at runtime.
type FieldSpec struct {
	Group ParamGroup
	Name  string
	Bound func(BoundsTable) Bound
	Get   func(*StrategyParams) float64
	Set   func(*StrategyParams, float64)
}

// NumericFields enumerates every numeric parameter in group order. The
// categorical timeframe is handled separately by each operator.
var NumericFields = [17]FieldSpec{
	{GroupEntry, "oversold",
		func(t BoundsTable) Bound { return t.Entry.Oversold },
		func(p *StrategyParams) float64 { return p.Entry.Oversold },
		func(p *StrategyParams, v float64) { p.Entry.Oversold = v }},
	{GroupEntry, "overbought",
		func(t BoundsTable) Bound { return t.Entry.Overbought },
		func(p *StrategyParams) float64 { return p.Entry.Overbought },
		func(p *StrategyParams, v float64) { p.Entry.Overbought = v }},
	{GroupEntry, "fast_ma_period",
		func(t BoundsTable) Bound { return t.Entry.FastMAPeriod },
		func(p *StrategyParams) float64 { return p.Entry.FastMAPeriod },
		func(p *StrategyParams, v float64) { p.Entry.FastMAPeriod = v }},
	{GroupEntry, "slow_ma_period",
		func(t BoundsTable) Bound { return t.Entry.SlowMAPeriod },
		func(p *StrategyParams) float64 { return p.Entry.SlowMAPeriod },
		func(p *StrategyParams, v float64) { p.Entry.SlowMAPeriod = v }},
	{GroupEntry, "volume_surge",
		func(t BoundsTable) Bound { return t.Entry.VolumeSurge },
		func(p *StrategyParams) float64 { return p.Entry.VolumeSurge },
		func(p *StrategyParams, v float64) { p.Entry.VolumeSurge = v }},
	{GroupEntry, "signal_threshold",
		func(t BoundsTable) Bound { return t.Entry.SignalThreshold },
		func(p *StrategyParams) float64 { return p.Entry.SignalThreshold },
		func(p *StrategyParams, v float64) { p.Entry.SignalThreshold = v }},

	{GroupRisk, "stop_loss_pct",
		func(t BoundsTable) Bound { return t.Risk.StopLossPct },
		func(p *StrategyParams) float64 { return p.Risk.StopLossPct },
		func(p *StrategyParams, v float64) { p.Risk.StopLossPct = v }},
	{GroupRisk, "take_profit_pct",
		func(t BoundsTable) Bound { return t.Risk.TakeProfitPct },
		func(p *StrategyParams) float64 { return p.Risk.TakeProfitPct },
		func(p *StrategyParams, v float64) { p.Risk.TakeProfitPct = v }},
	{GroupRisk, "max_position_size",
		func(t BoundsTable) Bound { return t.Risk.MaxPositionSize },
		func(p *StrategyParams) float64 { return p.Risk.MaxPositionSize },
		func(p *StrategyParams, v float64) { p.Risk.MaxPositionSize = v }},
	{GroupRisk, "max_leverage",
		func(t BoundsTable) Bound { return t.Risk.MaxLeverage },
		func(p *StrategyParams) float64 { return p.Risk.MaxLeverage },
		func(p *StrategyParams, v float64) { p.Risk.MaxLeverage = v }},
	{GroupRisk, "trailing_stop_pct",
		func(t BoundsTable) Bound { return t.Risk.TrailingStopPct },
		func(p *StrategyParams) float64 { return p.Risk.TrailingStopPct },
		func(p *StrategyParams, v float64) { p.Risk.TrailingStopPct = v }},

	{GroupTiming, "min_hold_minutes",
		func(t BoundsTable) Bound { return t.Timing.MinHoldMinutes },
		func(p *StrategyParams) float64 { return p.Timing.MinHoldMinutes },
		func(p *StrategyParams, v float64) { p.Timing.MinHoldMinutes = v }},
	{GroupTiming, "max_hold_minutes",
		func(t BoundsTable) Bound { return t.Timing.MaxHoldMinutes },
		func(p *StrategyParams) float64 { return p.Timing.MaxHoldMinutes },
		func(p *StrategyParams, v float64) { p.Timing.MaxHoldMinutes = v }},

	{GroupFilter, "min_volatility",
		func(t BoundsTable) Bound { return t.Filter.MinVolatility },
		func(p *StrategyParams) float64 { return p.Filter.MinVolatility },
		func(p *StrategyParams, v float64) { p.Filter.MinVolatility = v }},
	{GroupFilter, "max_volatility",
		func(t BoundsTable) Bound { return t.Filter.MaxVolatility },
		func(p *StrategyParams) float64 { return p.Filter.MaxVolatility },
		func(p *StrategyParams, v float64) { p.Filter.MaxVolatility = v }},
	{GroupFilter, "trend_strength",
		func(t BoundsTable) Bound { return t.Filter.TrendStrength },
		func(p *StrategyParams) float64 { return p.Filter.TrendStrength },
		func(p *StrategyParams, v float64) { p.Filter.TrendStrength = v }},
	{GroupFilter, "correlation_threshold",
		func(t BoundsTable) Bound { return t.Filter.CorrelationThreshold },
		func(p *StrategyParams) float64 { return p.Filter.CorrelationThreshold },
		func(p *StrategyParams, v float64) { p.Filter.CorrelationThreshold = v }},
}

// ============================================================================
// RANDOM GENERATION AND INVARIANT REPAIR
// ============================================================================

// RandomParams draws every field uniformly within its bound and repairs the
// cross-field invariants before returning.
func RandomParams(rng Rand, bounds BoundsTable) StrategyParams {
	var p StrategyParams
	for _, f := range NumericFields {
		f.Set(&p, f.Bound(bounds).Random(rng))
	}
	p.Timing.Timeframe = RandomTimeframe(rng)
	RepairInvariants(&p, bounds)
	return p
}

// minOscillatorSeparation is the smallest legal gap between the oversold
// and overbought oscillator levels.
const minOscillatorSeparation = 30

// RepairInvariants deterministically fixes the cross-field consistency
// rules in place. The operator that produced the parameters owns the
// obligation to call this before handing a genome out; a violation is
// never an error.
func RepairInvariants(p *StrategyParams, bounds BoundsTable) {
	// Fast MA must be strictly below slow MA.
	if p.Entry.FastMAPeriod >= p.Entry.SlowMAPeriod {
		p.Entry.FastMAPeriod = bounds.Entry.FastMAPeriod.Apply(p.Entry.SlowMAPeriod - 1)
		if p.Entry.FastMAPeriod >= p.Entry.SlowMAPeriod {
			p.Entry.SlowMAPeriod = bounds.Entry.SlowMAPeriod.Apply(p.Entry.FastMAPeriod + 5)
		}
	}

	// Oversold below overbought with a minimum separation, re-centered
	// around the midpoint and clamped to [10, 90] when violated.
	if p.Entry.Overbought-p.Entry.Oversold < minOscillatorSeparation {
		mid := (p.Entry.Overbought + p.Entry.Oversold) / 2
		half := float64(minOscillatorSeparation) / 2
		p.Entry.Oversold = bounds.Entry.Oversold.Apply(clampTo(mid-half, 10, 90))
		p.Entry.Overbought = bounds.Entry.Overbought.Apply(clampTo(mid+half, 10, 90))
	}

	// Volatility band must be ordered.
	if p.Filter.MinVolatility >= p.Filter.MaxVolatility {
		p.Filter.MaxVolatility = bounds.Filter.MaxVolatility.Apply(p.Filter.MinVolatility * 1.5)
	}

	// Hold window must be ordered.
	if p.Timing.MinHoldMinutes >= p.Timing.MaxHoldMinutes {
		p.Timing.MaxHoldMinutes = bounds.Timing.MaxHoldMinutes.Apply(p.Timing.MinHoldMinutes + 30)
	}
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

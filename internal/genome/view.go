package genome

import (
	"fmt"
	"time"
)

// ============================================================================
// STRATEGY VIEW
// ============================================================================

// StrategyView is the execution system's native description of a strategy.
// It is a pure projection of a genome: building it never mutates the genome
// and carries no engine-internal state beyond lineage metadata.
type StrategyView struct {
	Metadata   ViewMetadata  `json:"metadata"`
	Indicators IndicatorView `json:"indicators"`
	Risk       RiskView      `json:"risk"`
	Execution  ExecutionView `json:"execution"`
	Filters    MarketFilters `json:"filters"`
}

// ViewMetadata identifies the evolved strategy to the execution system.
type ViewMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Source        string    `json:"source"`
	Generation    int       `json:"generation"`
	CreatedAt     time.Time `json:"created_at"`
}

// IndicatorView carries the oscillator and moving-average settings.
type IndicatorView struct {
	RSIOverbought   float64 `json:"rsi_overbought"`
	RSIOversold     float64 `json:"rsi_oversold"`
	FastMAPeriod    int     `json:"fast_ma_period"`
	SlowMAPeriod    int     `json:"slow_ma_period"`
	VolumeSurge     float64 `json:"volume_surge"`
	SignalThreshold float64 `json:"signal_threshold"`
}

// RiskView carries position sizing and protective exits.
type RiskView struct {
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	MaxPositionSize float64 `json:"max_position_size"`
	MaxLeverage     int     `json:"max_leverage"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`
}

// ExecutionView carries the timeframe and holding window.
type ExecutionView struct {
	Timeframe      string `json:"timeframe"`
	MinHoldMinutes int    `json:"min_hold_minutes"`
	MaxHoldMinutes int    `json:"max_hold_minutes"`
}

// MarketFilters carries the regime gates.
type MarketFilters struct {
	MinVolatility        float64 `json:"min_volatility"`
	MaxVolatility        float64 `json:"max_volatility"`
	TrendStrength        float64 `json:"trend_strength"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
}

// ViewSchemaVersion is the strategy description schema this engine emits.
const ViewSchemaVersion = "1.0"

// ToStrategyView projects the genome into the execution system's format.
func (g *Genome) ToStrategyView() StrategyView {
	p := g.Params
	return StrategyView{
		Metadata: ViewMetadata{
			SchemaVersion: ViewSchemaVersion,
			ID:            g.ID.String(),
			Name:          fmt.Sprintf("evolved-gen%d-%s", g.Generation, shortID(g.ID.String())),
			Source:        "evolution",
			Generation:    g.Generation,
			CreatedAt:     g.CreatedAt,
		},
		Indicators: IndicatorView{
			RSIOverbought:   p.Entry.Overbought,
			RSIOversold:     p.Entry.Oversold,
			FastMAPeriod:    int(p.Entry.FastMAPeriod),
			SlowMAPeriod:    int(p.Entry.SlowMAPeriod),
			VolumeSurge:     p.Entry.VolumeSurge,
			SignalThreshold: p.Entry.SignalThreshold,
		},
		Risk: RiskView{
			StopLossPct:     p.Risk.StopLossPct,
			TakeProfitPct:   p.Risk.TakeProfitPct,
			MaxPositionSize: p.Risk.MaxPositionSize,
			MaxLeverage:     int(p.Risk.MaxLeverage),
			TrailingStopPct: p.Risk.TrailingStopPct,
		},
		Execution: ExecutionView{
			Timeframe:      string(p.Timing.Timeframe),
			MinHoldMinutes: int(p.Timing.MinHoldMinutes),
			MaxHoldMinutes: int(p.Timing.MaxHoldMinutes),
		},
		Filters: MarketFilters{
			MinVolatility:        p.Filter.MinVolatility,
			MaxVolatility:        p.Filter.MaxVolatility,
			TrendStrength:        p.Filter.TrendStrength,
			CorrelationThreshold: p.Filter.CorrelationThreshold,
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

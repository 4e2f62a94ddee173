// Parameter bounds for evolutionary strategy search
package genome

import (
	"fmt"
	"math"
)

// ============================================================================
// BOUND DESCRIPTOR
// ============================================================================

// Bound describes the legal range of a single numeric strategy parameter.
// Step, when non-zero, quantizes values onto a grid anchored at Min and must
// evenly divide Max-Min. Integer bounds round to whole numbers.
type Bound struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step,omitempty"`
	Integer bool    `json:"integer,omitempty"`
}

// Clamp forces v into [Min, Max].
func (b Bound) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// Apply clamps v into the bound and snaps it onto the step/integer grid.
// Every value written into a genome passes through here.
func (b Bound) Apply(v float64) float64 {
	v = b.Clamp(v)
	if b.Step > 0 {
		v = b.Min + math.Round((v-b.Min)/b.Step)*b.Step
		v = b.Clamp(v)
	}
	if b.Integer {
		v = b.Clamp(math.Round(v))
	}
	return v
}

// Range returns the width of the bound.
func (b Bound) Range() float64 {
	return b.Max - b.Min
}

// Random draws a uniform value within the bound, quantized.
func (b Bound) Random(rng Rand) float64 {
	return b.Apply(b.Min + rng.Float64()*b.Range())
}

// Contains reports whether v lies within the bound and honors the
// step/integer grid (up to floating point tolerance).
func (b Bound) Contains(v float64) bool {
	const eps = 1e-9
	if v < b.Min-eps || v > b.Max+eps {
		return false
	}
	if b.Step > 0 {
		steps := (v - b.Min) / b.Step
		if math.Abs(steps-math.Round(steps)) > 1e-6 {
			return false
		}
	}
	if b.Integer && math.Abs(v-math.Round(v)) > eps {
		return false
	}
	return true
}

// Rand is the minimal random source the genome model needs. *math/rand.Rand
// satisfies it; operators inject a seeded instance for reproducible runs.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// ============================================================================
// PARAMETER GROUPS
// ============================================================================

// ParamGroup identifies one of the four strategy parameter groups. The
// numeric order matters: single-point crossover cuts the genome along it.
type ParamGroup int

const (
	GroupEntry ParamGroup = iota
	GroupRisk
	GroupTiming
	GroupFilter
)

// Groups lists all parameter groups in crossover order.
var Groups = [4]ParamGroup{GroupEntry, GroupRisk, GroupTiming, GroupFilter}

func (g ParamGroup) String() string {
	switch g {
	case GroupEntry:
		return "entry"
	case GroupRisk:
		return "risk"
	case GroupTiming:
		return "timing"
	case GroupFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// ============================================================================
// BOUNDS TABLE
// ============================================================================

// EntryBounds holds the bounds for the entry threshold group.
type EntryBounds struct {
	Oversold        Bound
	Overbought      Bound
	FastMAPeriod    Bound
	SlowMAPeriod    Bound
	VolumeSurge     Bound
	SignalThreshold Bound
}

// RiskBounds holds the bounds for the risk parameter group.
type RiskBounds struct {
	StopLossPct     Bound
	TakeProfitPct   Bound
	MaxPositionSize Bound
	MaxLeverage     Bound
	TrailingStopPct Bound
}

// TimingBounds holds the bounds for the timing parameter group. The
// timeframe itself is categorical (see Timeframes) and has no Bound.
type TimingBounds struct {
	MinHoldMinutes Bound
	MaxHoldMinutes Bound
}

// FilterBounds holds the bounds for the market filter group.
type FilterBounds struct {
	MinVolatility        Bound
	MaxVolatility        Bound
	TrendStrength        Bound
	CorrelationThreshold Bound
}

// BoundsTable is the single source of truth for parameter legality. Every
// random-generation, mutation, and crossover path must consult it.
type BoundsTable struct {
	Entry  EntryBounds
	Risk   RiskBounds
	Timing TimingBounds
	Filter FilterBounds
}

// DefaultBounds is the production bounds table. The oscillator bounds are
// chosen so the oversold/overbought re-centering repair always lands back
// inside the per-field range.
var DefaultBounds = BoundsTable{
	Entry: EntryBounds{
		Oversold:        Bound{Min: 10, Max: 60, Step: 1, Integer: true},
		Overbought:      Bound{Min: 40, Max: 90, Step: 1, Integer: true},
		FastMAPeriod:    Bound{Min: 5, Max: 50, Step: 1, Integer: true},
		SlowMAPeriod:    Bound{Min: 20, Max: 200, Step: 5, Integer: true},
		VolumeSurge:     Bound{Min: 1.0, Max: 5.0, Step: 0.1},
		SignalThreshold: Bound{Min: 0.1, Max: 1.0, Step: 0.05},
	},
	Risk: RiskBounds{
		StopLossPct:     Bound{Min: 0.005, Max: 0.1},
		TakeProfitPct:   Bound{Min: 0.01, Max: 0.2},
		MaxPositionSize: Bound{Min: 0.01, Max: 0.5},
		MaxLeverage:     Bound{Min: 1, Max: 10, Step: 1, Integer: true},
		TrailingStopPct: Bound{Min: 0.005, Max: 0.05},
	},
	Timing: TimingBounds{
		MinHoldMinutes: Bound{Min: 5, Max: 240, Step: 5, Integer: true},
		MaxHoldMinutes: Bound{Min: 30, Max: 2880, Step: 30, Integer: true},
	},
	Filter: FilterBounds{
		MinVolatility:        Bound{Min: 0.001, Max: 0.05},
		MaxVolatility:        Bound{Min: 0.01, Max: 0.2},
		TrendStrength:        Bound{Min: 0, Max: 1},
		CorrelationThreshold: Bound{Min: 0, Max: 1},
	},
}

// Validate checks the structural invariants of the bounds table. A failure
// here is a programming error, not a runtime condition.
func (t BoundsTable) Validate() error {
	for _, f := range NumericFields {
		b := f.Bound(t)
		if b.Min > b.Max {
			return fmt.Errorf("bounds table: %s.%s: min %v > max %v", f.Group, f.Name, b.Min, b.Max)
		}
		if b.Step < 0 {
			return fmt.Errorf("bounds table: %s.%s: negative step %v", f.Group, f.Name, b.Step)
		}
		if b.Step > 0 {
			steps := b.Range() / b.Step
			if math.Abs(steps-math.Round(steps)) > 1e-6 {
				return fmt.Errorf("bounds table: %s.%s: step %v does not divide range %v", f.Group, f.Name, b.Step, b.Range())
			}
		}
	}
	return nil
}

// Lookup returns the bound for a group/field pair, for callers outside the
// enumerated-field fast path (persistence, reporting).
func (t BoundsTable) Lookup(group ParamGroup, field string) (Bound, bool) {
	for _, f := range NumericFields {
		if f.Group == group && f.Name == field {
			return f.Bound(t), true
		}
	}
	return Bound{}, false
}

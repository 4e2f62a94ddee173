package genome

import "math"

// NormalizedDistance is the Euclidean distance between two genomes in
// parameter space, with every field scaled by its bound range so no single
// parameter dominates. The result is normalized by the field count to stay
// comparable across bounds-table revisions.
func NormalizedDistance(a, b *Genome, bounds BoundsTable) float64 {
	sum := 0.0
	for _, f := range NumericFields {
		r := f.Bound(bounds).Range()
		if r <= 0 {
			continue
		}
		d := (f.Get(&a.Params) - f.Get(&b.Params)) / r
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(NumericFields)))
}

// FitnessCV returns the coefficient of variation of fitness across the
// genomes that have been evaluated. Populations with fewer than two
// evaluated genomes, or a zero mean, report zero spread.
func FitnessCV(genomes []*Genome) float64 {
	var values []float64
	for _, g := range genomes {
		if g.HasFitness() {
			values = append(values, g.FitnessValue())
		}
	}
	if len(values) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / math.Abs(mean)
}

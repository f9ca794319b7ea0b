package search

// Rand is the source of uniform draws in [0, 1). *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Pick draws one index with probability proportional to its weight.
// It consumes exactly one draw. Negative weights count as zero; when every
// weight is zero the draw picks uniformly. It returns -1 for no weights.
func Pick(r Rand, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	u := r.Float64()

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return min(int(u*float64(len(weights))), len(weights)-1)
	}
	return Select(weights, u*total)
}

// Select walks the weights subtracting each from sample and returns the first
// index whose weight exceeds what is left. Rounding leftovers land on the last
// positive weight.
func Select(weights []float64, sample float64) int {
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if sample < w {
			return i
		}
		sample -= w
		last = i
	}
	return last
}

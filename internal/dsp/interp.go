package dsp

import (
	"math"
	"sort"
)

// DefaultDiscreteStep is the anchor spacing, in wavenumbers, used when a
// baseline is resampled onto movable points.
const DefaultDiscreteStep = 25.0

// Interp evaluates the piecewise-linear curve through (xs, ys) at each
// query point. Queries outside the domain clamp to the boundary values.
// xs must be ascending.
func Interp(query, xs, ys []float64) []float64 {
	out := make([]float64, len(query))
	for i, q := range query {
		out[i] = interpAt(q, xs, ys)
	}
	return out
}

func interpAt(q float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	if q <= xs[0] {
		return ys[0]
	}
	if q >= xs[n-1] {
		return ys[n-1]
	}
	hi := sort.SearchFloat64s(xs, q)
	lo := hi - 1
	t := (q - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo] + t*(ys[hi]-ys[lo])
}

package dsp

import (
	"errors"
	"math"
)

// Baseline estimation defaults. Lambda controls smoothness, asymmetry
// controls how strongly points above the baseline are ignored.
const (
	DefaultLambda    = 1e5
	DefaultAsymmetry = 0.05
	DefaultMaxIters  = 1000
)

// Baseline estimates the fluorescence baseline of a spectrum with
// asymmetric least squares smoothing. Each iteration solves
// (W + lambda D D^T) z = W y for a second-difference operator D, then
// reweights: points above the current baseline get weight p, points below
// get 1-p. Iteration stops early once the weights stabilize.
//
// NaN entries mark cropped samples; they are excluded from the solve and
// come back as NaN in the returned baseline.
func Baseline(y []float64, lam, p float64, maxIters int) ([]float64, error) {
	if lam <= 0 || p <= 0 || p >= 1 {
		return nil, errors.New("baseline: lambda must be positive and asymmetry in (0, 1)")
	}
	if maxIters < 1 {
		maxIters = 1
	}

	idx := make([]int, 0, len(y))
	vals := make([]float64, 0, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		idx = append(idx, i)
		vals = append(vals, v)
	}
	m := len(vals)
	if m < 3 {
		return nil, errors.New("baseline: need at least 3 valid samples")
	}

	w := make([]float64, m)
	for i := range w {
		w[i] = 1
	}

	d0 := make([]float64, m)
	d1 := make([]float64, m-1)
	d2 := make([]float64, m-2)
	rhs := make([]float64, m)

	var z []float64
	for iter := 0; iter < maxIters; iter++ {
		for i := range d0 {
			d0[i] = w[i]
		}
		for i := range d1 {
			d1[i] = 0
		}
		for i := range d2 {
			d2[i] = 0
		}
		// Accumulate lambda D D^T one second-difference row at a time.
		for j := 0; j < m-2; j++ {
			d0[j] += lam
			d0[j+1] += 4 * lam
			d0[j+2] += lam
			d1[j] -= 2 * lam
			d1[j+1] -= 2 * lam
			d2[j] += lam
		}
		for i := range rhs {
			rhs[i] = w[i] * vals[i]
		}

		var err error
		z, err = solvePentadiagonal(d0, d1, d2, rhs)
		if err != nil {
			return nil, err
		}

		changed := false
		for i := range w {
			next := 1 - p
			if vals[i] > z[i] {
				next = p
			}
			if next != w[i] {
				w[i] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	out := make([]float64, len(y))
	for i := range out {
		out[i] = math.NaN()
	}
	for k, i := range idx {
		out[i] = z[k]
	}
	return out, nil
}

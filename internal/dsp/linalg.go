package dsp

import (
	"errors"
	"math"
)

// solvePentadiagonal solves A z = b for a symmetric positive definite
// pentadiagonal matrix given by its diagonal d0, first sub-diagonal d1 and
// second sub-diagonal d2, using an LDL^T factorization. The baseline solve
// produces exactly this structure, so the O(n) path avoids materializing
// the full matrix.
func solvePentadiagonal(d0, d1, d2, b []float64) ([]float64, error) {
	n := len(d0)
	if len(b) != n || len(d1) != n-1 || len(d2) != n-2 {
		return nil, errors.New("pentadiagonal solve: band lengths do not match")
	}
	if n < 3 {
		return nil, errors.New("pentadiagonal solve: system too small")
	}

	dd := make([]float64, n)
	l1 := make([]float64, n)
	l2 := make([]float64, n)

	dd[0] = d0[0]
	if dd[0] <= 0 {
		return nil, errors.New("pentadiagonal solve: matrix not positive definite")
	}
	l1[1] = d1[0] / dd[0]
	dd[1] = d0[1] - l1[1]*l1[1]*dd[0]
	if dd[1] <= 0 {
		return nil, errors.New("pentadiagonal solve: matrix not positive definite")
	}
	for i := 2; i < n; i++ {
		l2[i] = d2[i-2] / dd[i-2]
		l1[i] = (d1[i-1] - l2[i]*dd[i-2]*l1[i-1]) / dd[i-1]
		dd[i] = d0[i] - l2[i]*l2[i]*dd[i-2] - l1[i]*l1[i]*dd[i-1]
		if dd[i] <= 0 {
			return nil, errors.New("pentadiagonal solve: matrix not positive definite")
		}
	}

	// Forward solve L w = b, then scale by D, then back solve L^T z = w.
	w := make([]float64, n)
	w[0] = b[0]
	w[1] = b[1] - l1[1]*w[0]
	for i := 2; i < n; i++ {
		w[i] = b[i] - l1[i]*w[i-1] - l2[i]*w[i-2]
	}
	for i := range w {
		w[i] /= dd[i]
	}
	z := make([]float64, n)
	z[n-1] = w[n-1]
	z[n-2] = w[n-2] - l1[n-1]*z[n-1]
	for i := n - 3; i >= 0; i-- {
		z[i] = w[i] - l1[i+1]*z[i+1] - l2[i+2]*z[i+2]
	}
	return z, nil
}

// solveLinear solves the dense system a x = b in place using Gaussian
// elimination with partial pivoting. The fit and smoothing code only ever
// builds systems of a handful of unknowns, so dense elimination is plenty.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if len(b) != n {
		return nil, errors.New("linear solve: dimensions do not match")
	}
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-14 {
			return nil, errors.New("linear solve: singular matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]
		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

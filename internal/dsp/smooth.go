package dsp

import (
	"errors"
	"math"
)

// Smoothing defaults matching the desktop application's denoise step.
const (
	DefaultSmoothWindow = 13
	DefaultSmoothOrder  = 3
)

// SavitzkyGolay smooths y with a Savitzky-Golay filter of the given odd
// window length and polynomial order. Interior samples use the standard
// least-squares convolution; the first and last half-windows are filled by
// evaluating a polynomial fit over the edge window, so the edges are not
// dragged toward zero.
func SavitzkyGolay(y []float64, window, order int) ([]float64, error) {
	if window < 3 || window%2 == 0 {
		return nil, errors.New("savgol: window must be odd and at least 3")
	}
	if order < 0 || order >= window {
		return nil, errors.New("savgol: order must be non-negative and below the window length")
	}
	if len(y) < window {
		return nil, errors.New("savgol: signal shorter than window")
	}

	half := window / 2
	coeffs, err := savgolCoefficients(window, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(y))
	for i := half; i < len(y)-half; i++ {
		var sum float64
		for j, c := range coeffs {
			sum += c * y[i-half+j]
		}
		out[i] = sum
	}

	left, err := polyfitEval(y[:window], order)
	if err != nil {
		return nil, err
	}
	copy(out[:half], left[:half])
	right, err := polyfitEval(y[len(y)-window:], order)
	if err != nil {
		return nil, err
	}
	copy(out[len(y)-half:], right[window-half:])

	return out, nil
}

// savgolCoefficients returns the convolution weights for the window center.
// With V the Vandermonde matrix of sample offsets, the weights are
// V (V^T V)^{-1} e0, computed by solving (V^T V) u = e0.
func savgolCoefficients(window, order int) ([]float64, error) {
	half := window / 2
	ata := make([][]float64, order+1)
	for r := range ata {
		ata[r] = make([]float64, order+1)
	}
	for j := -half; j <= half; j++ {
		pow := 1.0
		powers := make([]float64, order+1)
		for k := 0; k <= order; k++ {
			powers[k] = pow
			pow *= float64(j)
		}
		for r := 0; r <= order; r++ {
			for c := 0; c <= order; c++ {
				ata[r][c] += powers[r] * powers[c]
			}
		}
	}
	e0 := make([]float64, order+1)
	e0[0] = 1
	u, err := solveLinear(ata, e0)
	if err != nil {
		return nil, err
	}

	coeffs := make([]float64, window)
	for j := -half; j <= half; j++ {
		var c, pow float64
		pow = 1
		for k := 0; k <= order; k++ {
			c += u[k] * pow
			pow *= float64(j)
		}
		coeffs[j+half] = c
	}
	return coeffs, nil
}

// polyfitEval least-squares fits a polynomial of the given order to the
// samples (taken at positions 0..len-1) and returns the fitted values at
// every position. Used to patch the filter edges.
func polyfitEval(samples []float64, order int) ([]float64, error) {
	n := len(samples)
	ata := make([][]float64, order+1)
	for r := range ata {
		ata[r] = make([]float64, order+1)
	}
	atb := make([]float64, order+1)
	for j := 0; j < n; j++ {
		powers := make([]float64, order+1)
		pow := 1.0
		for k := 0; k <= order; k++ {
			powers[k] = pow
			pow *= float64(j)
		}
		for r := 0; r <= order; r++ {
			for c := 0; c <= order; c++ {
				ata[r][c] += powers[r] * powers[c]
			}
			atb[r] += powers[r] * samples[j]
		}
	}
	beta, err := solveLinear(ata, atb)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for j := 0; j < n; j++ {
		var v, pow float64
		pow = 1
		for k := 0; k <= order; k++ {
			v += beta[k] * pow
			pow *= float64(j)
		}
		out[j] = v
	}
	return out, nil
}

// GaussianSmooth convolves y with a Gaussian kernel of the given standard
// deviation, truncated at four sigma, with reflected edges.
func GaussianSmooth(y []float64, sigma float64) []float64 {
	if sigma <= 0 || len(y) == 0 {
		out := make([]float64, len(y))
		copy(out, y)
		return out
	}
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var total float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		total += v
	}
	for i := range kernel {
		kernel[i] /= total
	}

	out := make([]float64, len(y))
	for i := range y {
		var sum float64
		for k := -radius; k <= radius; k++ {
			sum += kernel[k+radius] * y[reflectIndex(i+k, len(y))]
		}
		out[i] = sum
	}
	return out
}

// reflectIndex maps an out-of-range index into [0, n) by mirroring at the
// edges without repeating the edge sample twice in a row.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

package dsp

import (
	"errors"
	"math"
)

// fwhmFactor converts a Gaussian sigma to full width at half maximum.
const fwhmFactor = 2.35482

// PeakStat summarizes one fitted Gaussian component.
type PeakStat struct {
	Center float64
	Sigma  float64
	Height float64
	FWHM   float64
	Area   float64
}

// FitGaussians fits a sum of Gaussian components to (x, y), one component
// per entry in centers, with Levenberg-Marquardt. Initial heights come from
// the sample nearest each center. NaN intensities are treated as zero so a
// cropped spectrum can still be fitted. The returned stats are ordered like
// the input centers.
func FitGaussians(x, y []float64, centers []float64) ([]PeakStat, error) {
	if len(x) != len(y) {
		return nil, errors.New("fit: x and y lengths differ")
	}
	if len(centers) == 0 {
		return nil, errors.New("fit: no peak centers given")
	}
	n := len(x)
	if n < 3*len(centers) {
		return nil, errors.New("fit: not enough samples for the number of peaks")
	}

	yc := make([]float64, n)
	for i, v := range y {
		if math.IsNaN(v) {
			yc[i] = 0
		} else {
			yc[i] = v
		}
	}

	// Parameter vector is [h, mu, sigma] per component.
	params := make([]float64, 0, 3*len(centers))
	for _, c := range centers {
		h := valueNearest(x, yc, c)
		if h <= 0 {
			h = 1e-3
		}
		params = append(params, h, c, initialSigma(x))
	}

	nParams := len(params)
	resid := make([]float64, n)
	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, nParams)
	}

	cost := evaluate(x, yc, params, resid, jac)
	lambda := 1e-3
	for iter := 0; iter < 200; iter++ {
		// Normal equations with Marquardt damping on the diagonal.
		jtj := make([][]float64, nParams)
		jtr := make([]float64, nParams)
		for r := 0; r < nParams; r++ {
			jtj[r] = make([]float64, nParams)
			for c := 0; c < nParams; c++ {
				var sum float64
				for i := 0; i < n; i++ {
					sum += jac[i][r] * jac[i][c]
				}
				jtj[r][c] = sum
			}
			var sum float64
			for i := 0; i < n; i++ {
				sum += jac[i][r] * resid[i]
			}
			jtr[r] = -sum
		}
		for r := 0; r < nParams; r++ {
			jtj[r][r] *= 1 + lambda
			if jtj[r][r] == 0 {
				jtj[r][r] = lambda
			}
		}

		delta, err := solveLinear(jtj, jtr)
		if err != nil {
			lambda *= 10
			if lambda > 1e10 {
				return nil, errors.New("fit: failed to converge")
			}
			continue
		}

		trial := make([]float64, nParams)
		var step float64
		for i := range params {
			trial[i] = params[i] + delta[i]
			step += delta[i] * delta[i]
		}
		trialCost := evaluate(x, yc, trial, resid, jac)
		if trialCost < cost {
			copy(params, trial)
			cost = trialCost
			lambda /= 10
			if lambda < 1e-12 {
				lambda = 1e-12
			}
			if math.Sqrt(step) < 1e-10 {
				break
			}
		} else {
			lambda *= 10
			if lambda > 1e10 {
				break
			}
			// Restore residuals and Jacobian for the accepted parameters.
			cost = evaluate(x, yc, params, resid, jac)
		}
	}

	stats := make([]PeakStat, 0, len(centers))
	for i := 0; i < nParams; i += 3 {
		h, mu, s := params[i], params[i+1], math.Abs(params[i+2])
		stats = append(stats, PeakStat{
			Center: mu,
			Sigma:  s,
			Height: h,
			FWHM:   fwhmFactor * s,
			Area:   h * s * math.Sqrt(2*math.Pi),
		})
	}
	return stats, nil
}

// evaluate fills the residual vector and analytic Jacobian for the current
// parameters and returns the sum of squared residuals.
func evaluate(x, y, params []float64, resid []float64, jac [][]float64) float64 {
	var cost float64
	for i := range x {
		var model float64
		for p := 0; p < len(params); p += 3 {
			h, mu, s := params[p], params[p+1], params[p+2]
			if s == 0 {
				s = 1e-9
			}
			d := x[i] - mu
			g := math.Exp(-d * d / (2 * s * s))
			model += h * g
			jac[i][p] = g
			jac[i][p+1] = h * g * d / (s * s)
			jac[i][p+2] = h * g * d * d / (s * s * s)
		}
		resid[i] = model - y[i]
		cost += resid[i] * resid[i]
	}
	return cost
}

func valueNearest(x, y []float64, at float64) float64 {
	best := 0
	bestDist := math.Abs(x[0] - at)
	for i := 1; i < len(x); i++ {
		if d := math.Abs(x[i] - at); d < bestDist {
			best, bestDist = i, d
		}
	}
	return y[best]
}

// initialSigma guesses a starting width from the sample spacing. Raman
// bands are usually a few samples wide, so five median steps is close
// enough for the optimizer to take over.
func initialSigma(x []float64) float64 {
	if len(x) < 2 {
		return 1
	}
	span := math.Abs(x[len(x)-1]-x[0]) / float64(len(x)-1)
	s := 5 * span
	if s <= 0 {
		return 1
	}
	return s
}

package dsp

import (
	"errors"
	"math"
)

// PeakOptions filters candidate maxima. Zero values disable the
// corresponding criterion, except RelHeight which falls back to its
// default of 0.5 (width measured at half prominence).
type PeakOptions struct {
	MinHeight     float64
	MinProminence float64
	MinWidth      float64
	RelHeight     float64
}

// Peak describes a detected local maximum.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
	Width      float64
}

// FindPeaks locates local maxima in y and filters them by height,
// prominence and width, in that order. Plateaus count as a single peak at
// their midpoint. Widths are measured in samples at the height
// y[peak] - prominence*RelHeight, with linear interpolation at the
// crossings.
func FindPeaks(y []float64, opts PeakOptions) ([]Peak, error) {
	if len(y) < 3 {
		return nil, errors.New("find peaks: need at least 3 samples")
	}
	relHeight := opts.RelHeight
	if relHeight == 0 {
		relHeight = 0.5
	}
	if relHeight < 0 {
		return nil, errors.New("find peaks: rel height must be positive")
	}

	var peaks []Peak
	i := 1
	for i < len(y)-1 {
		if y[i-1] < y[i] {
			// Scan across a possible plateau.
			ahead := i + 1
			for ahead < len(y)-1 && y[ahead] == y[i] {
				ahead++
			}
			if y[ahead] < y[i] {
				mid := (i + ahead - 1) / 2
				peaks = append(peaks, Peak{Index: mid, Height: y[mid]})
				i = ahead
				continue
			}
			i = ahead
			continue
		}
		i++
	}

	if opts.MinHeight > 0 {
		peaks = filterPeaks(peaks, func(p Peak) bool { return p.Height >= opts.MinHeight })
	}

	for k := range peaks {
		prom, lbase, rbase := prominence(y, peaks[k].Index)
		peaks[k].Prominence = prom
		peaks[k].Width = widthAt(y, peaks[k].Index, lbase, rbase, prom*relHeight)
	}
	if opts.MinProminence > 0 {
		peaks = filterPeaks(peaks, func(p Peak) bool { return p.Prominence >= opts.MinProminence })
	}
	if opts.MinWidth > 0 {
		peaks = filterPeaks(peaks, func(p Peak) bool { return p.Width >= opts.MinWidth })
	}
	return peaks, nil
}

func filterPeaks(peaks []Peak, keep func(Peak) bool) []Peak {
	out := peaks[:0]
	for _, p := range peaks {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// prominence walks outward from the peak until a higher sample or the
// signal edge, recording the minimum on each side. The prominence is the
// peak height above the higher of the two minima. The indices of the side
// minima are returned as the peak's bases.
func prominence(y []float64, peak int) (prom float64, leftBase, rightBase int) {
	h := y[peak]

	leftMin := h
	leftBase = peak
	for i := peak - 1; i >= 0 && y[i] <= h; i-- {
		if y[i] < leftMin {
			leftMin = y[i]
			leftBase = i
		}
	}
	rightMin := h
	rightBase = peak
	for i := peak + 1; i < len(y) && y[i] <= h; i++ {
		if y[i] < rightMin {
			rightMin = y[i]
			rightBase = i
		}
	}
	return h - math.Max(leftMin, rightMin), leftBase, rightBase
}

// widthAt measures the peak width in samples at an absolute evaluation
// height, searching only between the peak's bases.
func widthAt(y []float64, peak, leftBase, rightBase int, drop float64) float64 {
	level := y[peak] - drop

	left := float64(leftBase)
	for i := peak; i > leftBase; i-- {
		if y[i-1] < level {
			left = float64(i-1) + (level-y[i-1])/(y[i]-y[i-1])
			break
		}
	}
	right := float64(rightBase)
	for i := peak; i < rightBase; i++ {
		if y[i+1] < level {
			right = float64(i+1) - (level-y[i+1])/(y[i]-y[i+1])
			break
		}
	}
	return right - left
}

// CropSuggestion proposes how many leading samples to drop to remove the
// filter edge at the start of a capture. It smooths the signal with a
// sigma-2 Gaussian, takes the second difference, and returns the position
// of its minimum within the first 55 samples, nudged forward by two.
func CropSuggestion(y []float64) int {
	if len(y) < 5 {
		return 0
	}
	g := GaussianSmooth(y, 2)

	limit := len(g) - 2
	if limit > 55 {
		limit = 55
	}
	best := 0
	bestVal := math.Inf(1)
	for i := 0; i < limit; i++ {
		d2 := g[i] - 2*g[i+1] + g[i+2]
		if d2 < bestVal {
			bestVal = d2
			best = i
		}
	}
	return best + 2
}

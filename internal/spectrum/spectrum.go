package spectrum

import (
	"errors"
	"fmt"
	"math"
)

// Spectrum holds a Raman spectrum as parallel wavenumber/intensity vectors.
// Cropped regions are represented as NaN intensities so the x axis keeps its
// original sampling.
type Spectrum struct {
	X []float64
	Y []float64
}

// New builds a spectrum after checking the vectors line up.
func New(x, y []float64) (*Spectrum, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("mismatched lengths: %d x values, %d y values", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("empty spectrum")
	}
	return &Spectrum{X: x, Y: y}, nil
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() *Spectrum {
	if s == nil {
		return nil
	}
	x := make([]float64, len(s.X))
	y := make([]float64, len(s.Y))
	copy(x, s.X)
	copy(y, s.Y)
	return &Spectrum{X: x, Y: y}
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return len(s.X)
}

// Normalize scales intensities so the maximum (ignoring NaN) becomes 1.
func (s *Spectrum) Normalize() {
	max := math.Inf(-1)
	for _, v := range s.Y {
		if !math.IsNaN(v) && v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) || max == 0 {
		return
	}
	for i := range s.Y {
		s.Y[i] /= max
	}
}

// CropRange blanks the intensities with x in [start, end] to NaN,
// removing that region from further processing without resampling.
func (s *Spectrum) CropRange(start, end float64) {
	if start > end {
		start, end = end, start
	}
	for i, x := range s.X {
		if x >= start && x <= end {
			s.Y[i] = math.NaN()
		}
	}
}

// CropHead blanks the first n samples. Used with the automatic crop
// suggestion to drop the noisy filter edge at the start of a capture.
func (s *Spectrum) CropHead(n int) {
	if n > len(s.Y) {
		n = len(s.Y)
	}
	for i := 0; i < n; i++ {
		s.Y[i] = math.NaN()
	}
}

// Valid returns copies of x and y with NaN intensities removed.
func (s *Spectrum) Valid() (xs, ys []float64) {
	for i, v := range s.Y {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, s.X[i])
		ys = append(ys, v)
	}
	return xs, ys
}

// SubtractBaseline subtracts a baseline vector in place. Baseline entries
// that are NaN leave the corresponding sample untouched.
func (s *Spectrum) SubtractBaseline(baseline []float64) error {
	if len(baseline) != len(s.Y) {
		return fmt.Errorf("baseline length %d does not match spectrum length %d", len(baseline), len(s.Y))
	}
	for i := range s.Y {
		if math.IsNaN(baseline[i]) {
			continue
		}
		s.Y[i] -= baseline[i]
	}
	return nil
}

// ValueAt returns the intensity at the sample nearest to x.
func (s *Spectrum) ValueAt(x float64) float64 {
	if s.Len() == 0 {
		return math.NaN()
	}
	best := 0
	bestDist := math.Abs(s.X[0] - x)
	for i := 1; i < len(s.X); i++ {
		if d := math.Abs(s.X[i] - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.Y[best]
}

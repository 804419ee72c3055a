package session

import (
	"fmt"
	"math"

	"ramandpid/internal/dsp"
	"ramandpid/internal/spectrum"
)

// snapshot captures the mutable processing state a command may touch.
type snapshot struct {
	spec     *spectrum.Spectrum
	baseline []float64
	peaksX   []float64
	peaksY   []float64
	stats    []dsp.PeakStat
	anchorsX []float64
	anchorsY []float64
}

func (s *Session) take() snapshot {
	return snapshot{
		spec:     s.Spectrum.Clone(),
		baseline: append([]float64(nil), s.Baseline...),
		peaksX:   append([]float64(nil), s.PeaksX...),
		peaksY:   append([]float64(nil), s.PeaksY...),
		stats:    append([]dsp.PeakStat(nil), s.FitStats...),
		anchorsX: append([]float64(nil), s.AnchorsX...),
		anchorsY: append([]float64(nil), s.AnchorsY...),
	}
}

func (s *Session) restore(snap snapshot) {
	s.Spectrum = snap.spec
	s.Baseline = snap.baseline
	s.PeaksX = snap.peaksX
	s.PeaksY = snap.peaksY
	s.FitStats = snap.stats
	s.AnchorsX = snap.anchorsX
	s.AnchorsY = snap.anchorsY
}

// LoadSpectrum replaces the session spectrum with a file on disk.
type LoadSpectrum struct {
	Path string

	prev       snapshot
	prevSource string
}

func (c *LoadSpectrum) Name() string { return "load spectrum" }

func (c *LoadSpectrum) Execute(s *Session) error {
	spec, err := spectrum.Load(c.Path)
	if err != nil {
		return err
	}
	c.prev = s.take()
	c.prevSource = s.SourcePath
	s.restore(snapshot{spec: spec})
	s.SourcePath = c.Path
	s.logf("loaded %s (%d samples)", c.Path, spec.Len())
	return nil
}

func (c *LoadSpectrum) Undo(s *Session) {
	s.restore(c.prev)
	s.SourcePath = c.prevSource
}

// Crop blanks the intensities between two wavenumbers.
type Crop struct {
	Start, End float64

	prevY []float64
}

func (c *Crop) Name() string { return "crop" }

func (c *Crop) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	c.prevY = append([]float64(nil), s.Spectrum.Y...)
	s.Spectrum.CropRange(c.Start, c.End)
	s.logf("cropped %g to %g", c.Start, c.End)
	return nil
}

func (c *Crop) Undo(s *Session) {
	s.Spectrum.Y = append([]float64(nil), c.prevY...)
}

// CropHead blanks a number of leading samples. N <= 0 asks for the
// automatic suggestion.
type CropHead struct {
	N int

	prevY []float64
}

func (c *CropHead) Name() string { return "crop head" }

func (c *CropHead) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	n := c.N
	if n <= 0 {
		n = dsp.CropSuggestion(s.Spectrum.Y)
	}
	c.prevY = append([]float64(nil), s.Spectrum.Y...)
	s.Spectrum.CropHead(n)
	s.logf("cropped first %d samples", n)
	return nil
}

func (c *CropHead) Undo(s *Session) {
	s.Spectrum.Y = append([]float64(nil), c.prevY...)
}

// EstimateBaseline computes a baseline without modifying the spectrum.
type EstimateBaseline struct {
	Lambda    float64
	Asymmetry float64
	MaxIters  int

	prev []float64
}

func (c *EstimateBaseline) Name() string { return "estimate baseline" }

func (c *EstimateBaseline) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	lam, p, iters := c.Lambda, c.Asymmetry, c.MaxIters
	if lam == 0 {
		lam = dsp.DefaultLambda
	}
	if p == 0 {
		p = dsp.DefaultAsymmetry
	}
	if iters == 0 {
		iters = dsp.DefaultMaxIters
	}
	base, err := dsp.Baseline(s.Spectrum.Y, lam, p, iters)
	if err != nil {
		return err
	}
	c.prev = s.Baseline
	s.Baseline = base
	s.logf("estimated baseline (lambda=%g asymmetry=%g)", lam, p)
	return nil
}

func (c *EstimateBaseline) Undo(s *Session) {
	s.Baseline = c.prev
}

// CorrectBaseline subtracts the estimated baseline from the spectrum and
// clears it, along with any discretized anchor points. EstimateBaseline
// must have run first.
type CorrectBaseline struct {
	prevY        []float64
	prevBaseline []float64
	prevAX       []float64
	prevAY       []float64
}

func (c *CorrectBaseline) Name() string { return "correct baseline" }

func (c *CorrectBaseline) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	if s.Baseline == nil {
		return fmt.Errorf("no baseline estimated")
	}
	c.prevY = append([]float64(nil), s.Spectrum.Y...)
	c.prevBaseline = s.Baseline
	c.prevAX, c.prevAY = s.AnchorsX, s.AnchorsY
	if err := s.Spectrum.SubtractBaseline(s.Baseline); err != nil {
		return err
	}
	s.Baseline = nil
	s.AnchorsX, s.AnchorsY = nil, nil
	s.logf("subtracted baseline")
	return nil
}

func (c *CorrectBaseline) Undo(s *Session) {
	s.Spectrum.Y = append([]float64(nil), c.prevY...)
	s.Baseline = c.prevBaseline
	s.AnchorsX, s.AnchorsY = c.prevAX, c.prevAY
}

// DiscretizeBaseline resamples the estimated baseline onto anchor points
// spaced Step wavenumbers apart and replaces it with the piecewise-linear
// curve through them. Anchors can then be repositioned one at a time with
// MoveBaselinePoint. EstimateBaseline must have run first.
type DiscretizeBaseline struct {
	Step float64

	prevBaseline []float64
	prevAX       []float64
	prevAY       []float64
}

func (c *DiscretizeBaseline) Name() string { return "discretize baseline" }

func (c *DiscretizeBaseline) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	if s.Baseline == nil {
		return fmt.Errorf("no baseline estimated")
	}
	step := c.Step
	if step <= 0 {
		step = dsp.DefaultDiscreteStep
	}

	xs := make([]float64, 0, len(s.Baseline))
	base := make([]float64, 0, len(s.Baseline))
	for i, v := range s.Baseline {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, s.Spectrum.X[i])
		base = append(base, v)
	}
	if len(xs) < 2 {
		return fmt.Errorf("baseline too short to discretize")
	}

	var ax []float64
	for x := xs[0]; x < xs[len(xs)-1]; x += step {
		ax = append(ax, x)
	}
	ay := dsp.Interp(ax, xs, base)

	c.prevBaseline = s.Baseline
	c.prevAX, c.prevAY = s.AnchorsX, s.AnchorsY
	s.AnchorsX, s.AnchorsY = ax, ay
	s.Baseline = rebuildFromAnchors(s, c.prevBaseline)
	s.logf("discretized baseline into %d points (step=%g)", len(ax), step)
	return nil
}

func (c *DiscretizeBaseline) Undo(s *Session) {
	s.Baseline = c.prevBaseline
	s.AnchorsX, s.AnchorsY = c.prevAX, c.prevAY
}

// MoveBaselinePoint repositions one anchor of a discretized baseline, the
// way dragging the point in the plot does, and rebuilds the baseline. The
// anchor must stay between its neighbors so the curve remains a function
// of wavenumber.
type MoveBaselinePoint struct {
	Index int
	X     float64
	Y     float64

	prevX        float64
	prevY        float64
	prevBaseline []float64
}

func (c *MoveBaselinePoint) Name() string { return "move baseline point" }

func (c *MoveBaselinePoint) Execute(s *Session) error {
	if len(s.AnchorsX) == 0 {
		return fmt.Errorf("baseline is not discretized")
	}
	if c.Index < 0 || c.Index >= len(s.AnchorsX) {
		return fmt.Errorf("no baseline point %d", c.Index)
	}
	if c.Index > 0 && c.X <= s.AnchorsX[c.Index-1] {
		return fmt.Errorf("point %d cannot cross its left neighbor", c.Index)
	}
	if c.Index < len(s.AnchorsX)-1 && c.X >= s.AnchorsX[c.Index+1] {
		return fmt.Errorf("point %d cannot cross its right neighbor", c.Index)
	}

	c.prevX, c.prevY = s.AnchorsX[c.Index], s.AnchorsY[c.Index]
	c.prevBaseline = s.Baseline
	s.AnchorsX[c.Index] = c.X
	s.AnchorsY[c.Index] = c.Y
	s.Baseline = rebuildFromAnchors(s, c.prevBaseline)
	s.logf("moved baseline point %d to (%g, %g)", c.Index, c.X, c.Y)
	return nil
}

func (c *MoveBaselinePoint) Undo(s *Session) {
	s.AnchorsX[c.Index] = c.prevX
	s.AnchorsY[c.Index] = c.prevY
	s.Baseline = c.prevBaseline
}

// rebuildFromAnchors interpolates the anchor curve back onto the full x
// grid, keeping cropped samples blanked.
func rebuildFromAnchors(s *Session, mask []float64) []float64 {
	rebuilt := dsp.Interp(s.Spectrum.X, s.AnchorsX, s.AnchorsY)
	for i, v := range mask {
		if math.IsNaN(v) {
			rebuilt[i] = math.NaN()
		}
	}
	return rebuilt
}

// Smooth applies a Savitzky-Golay filter over the valid samples, leaving
// cropped regions untouched.
type Smooth struct {
	Window int
	Order  int

	prevY []float64
}

func (c *Smooth) Name() string { return "smooth" }

func (c *Smooth) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	window, order := c.Window, c.Order
	if window == 0 {
		window = dsp.DefaultSmoothWindow
	}
	if order == 0 {
		order = dsp.DefaultSmoothOrder
	}

	idx := make([]int, 0, s.Spectrum.Len())
	vals := make([]float64, 0, s.Spectrum.Len())
	for i, v := range s.Spectrum.Y {
		if math.IsNaN(v) {
			continue
		}
		idx = append(idx, i)
		vals = append(vals, v)
	}
	smoothed, err := dsp.SavitzkyGolay(vals, window, order)
	if err != nil {
		return err
	}

	c.prevY = append([]float64(nil), s.Spectrum.Y...)
	for k, i := range idx {
		s.Spectrum.Y[i] = smoothed[k]
	}
	s.logf("smoothed (window=%d order=%d)", window, order)
	return nil
}

func (c *Smooth) Undo(s *Session) {
	s.Spectrum.Y = append([]float64(nil), c.prevY...)
}

// DetectPeaks finds peaks in the current spectrum and replaces the marked
// peak list.
type DetectPeaks struct {
	Options dsp.PeakOptions

	prevX []float64
	prevY []float64
}

func (c *DetectPeaks) Name() string { return "detect peaks" }

func (c *DetectPeaks) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	xs, ys := s.Spectrum.Valid()
	peaks, err := dsp.FindPeaks(ys, c.Options)
	if err != nil {
		return err
	}
	c.prevX, c.prevY = s.PeaksX, s.PeaksY
	s.PeaksX = make([]float64, 0, len(peaks))
	s.PeaksY = make([]float64, 0, len(peaks))
	for _, p := range peaks {
		s.PeaksX = append(s.PeaksX, xs[p.Index])
		s.PeaksY = append(s.PeaksY, ys[p.Index])
	}
	s.logf("detected %d peaks", len(peaks))
	return nil
}

func (c *DetectPeaks) Undo(s *Session) {
	s.PeaksX, s.PeaksY = c.prevX, c.prevY
}

// AddPeak marks a peak at the sample nearest to X.
type AddPeak struct {
	X float64
}

func (c *AddPeak) Name() string { return "add peak" }

func (c *AddPeak) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	y := s.Spectrum.ValueAt(c.X)
	if math.IsNaN(y) {
		return fmt.Errorf("no sample near %g", c.X)
	}
	s.PeaksX = append(s.PeaksX, c.X)
	s.PeaksY = append(s.PeaksY, y)
	s.logf("marked peak at %g", c.X)
	return nil
}

func (c *AddPeak) Undo(s *Session) {
	if len(s.PeaksX) > 0 {
		s.PeaksX = s.PeaksX[:len(s.PeaksX)-1]
		s.PeaksY = s.PeaksY[:len(s.PeaksY)-1]
	}
}

// RemovePeak unmarks the peak closest to X.
type RemovePeak struct {
	X float64

	removedX float64
	removedY float64
	index    int
}

func (c *RemovePeak) Name() string { return "remove peak" }

func (c *RemovePeak) Execute(s *Session) error {
	if len(s.PeaksX) == 0 {
		return fmt.Errorf("no peaks marked")
	}
	best := 0
	bestDist := math.Abs(s.PeaksX[0] - c.X)
	for i := 1; i < len(s.PeaksX); i++ {
		if d := math.Abs(s.PeaksX[i] - c.X); d < bestDist {
			best, bestDist = i, d
		}
	}
	c.index = best
	c.removedX = s.PeaksX[best]
	c.removedY = s.PeaksY[best]
	s.PeaksX = append(s.PeaksX[:best], s.PeaksX[best+1:]...)
	s.PeaksY = append(s.PeaksY[:best], s.PeaksY[best+1:]...)
	s.logf("removed peak at %g", c.removedX)
	return nil
}

func (c *RemovePeak) Undo(s *Session) {
	s.PeaksX = append(s.PeaksX[:c.index], append([]float64{c.removedX}, s.PeaksX[c.index:]...)...)
	s.PeaksY = append(s.PeaksY[:c.index], append([]float64{c.removedY}, s.PeaksY[c.index:]...)...)
}

// FitPeaks fits Gaussians at the marked peak positions and stores the
// per-peak statistics.
type FitPeaks struct {
	prev []dsp.PeakStat
}

func (c *FitPeaks) Name() string { return "fit peaks" }

func (c *FitPeaks) Execute(s *Session) error {
	if s.Spectrum == nil {
		return ErrNoSpectrum
	}
	if len(s.PeaksX) == 0 {
		return fmt.Errorf("no peaks marked")
	}
	stats, err := dsp.FitGaussians(s.Spectrum.X, s.Spectrum.Y, s.PeaksX)
	if err != nil {
		return err
	}
	c.prev = s.FitStats
	s.FitStats = stats
	s.logf("fitted %d gaussians", len(stats))
	return nil
}

func (c *FitPeaks) Undo(s *Session) {
	s.FitStats = c.prev
}

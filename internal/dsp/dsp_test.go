package dsp_test

import (
	"math"
	"testing"

	"ramandpid/internal/dsp"
)

func gaussian(x, h, mu, sigma float64) float64 {
	d := x - mu
	return h * math.Exp(-d*d/(2*sigma*sigma))
}

func TestBaselineRecoversLinearSignal(t *testing.T) {
	// A straight line has zero second difference, so the smoother should
	// reproduce it almost exactly.
	y := make([]float64, 200)
	for i := range y {
		y[i] = 3 + 0.5*float64(i)
	}
	base, err := dsp.Baseline(y, dsp.DefaultLambda, dsp.DefaultAsymmetry, 50)
	if err != nil {
		t.Fatalf("Baseline returned error: %v", err)
	}
	for i := range y {
		if math.Abs(base[i]-y[i]) > 0.05 {
			t.Fatalf("baseline diverges at %d: got %v want %v", i, base[i], y[i])
		}
	}
}

func TestBaselineStaysUnderPeaks(t *testing.T) {
	y := make([]float64, 300)
	for i := range y {
		x := float64(i)
		y[i] = 10 + 0.02*x + gaussian(x, 50, 150, 5)
	}
	base, err := dsp.Baseline(y, dsp.DefaultLambda, dsp.DefaultAsymmetry, dsp.DefaultMaxIters)
	if err != nil {
		t.Fatalf("Baseline returned error: %v", err)
	}
	// Under the peak the baseline must sit far below the signal.
	if y[150]-base[150] < 30 {
		t.Fatalf("baseline swallowed the peak: y=%v base=%v", y[150], base[150])
	}
	// Away from the peak it should track the slow trend.
	if math.Abs(base[30]-y[30]) > 2 {
		t.Fatalf("baseline off trend at 30: got %v want about %v", base[30], y[30])
	}
}

func TestBaselinePreservesNaNPositions(t *testing.T) {
	y := make([]float64, 100)
	for i := range y {
		y[i] = float64(i)
	}
	y[10] = math.NaN()
	y[11] = math.NaN()
	base, err := dsp.Baseline(y, dsp.DefaultLambda, dsp.DefaultAsymmetry, 10)
	if err != nil {
		t.Fatalf("Baseline returned error: %v", err)
	}
	if !math.IsNaN(base[10]) || !math.IsNaN(base[11]) {
		t.Fatal("cropped samples should stay NaN in the baseline")
	}
	if math.IsNaN(base[12]) {
		t.Fatal("valid samples must get a baseline value")
	}
}

func TestSavitzkyGolayExactOnCubic(t *testing.T) {
	// A degree-3 filter reproduces a cubic exactly, edges included.
	y := make([]float64, 40)
	for i := range y {
		x := float64(i)
		y[i] = 2 + x - 0.3*x*x + 0.01*x*x*x
	}
	out, err := dsp.SavitzkyGolay(y, 7, 3)
	if err != nil {
		t.Fatalf("SavitzkyGolay returned error: %v", err)
	}
	for i := range y {
		if math.Abs(out[i]-y[i]) > 1e-6 {
			t.Fatalf("sample %d: got %v want %v", i, out[i], y[i])
		}
	}
}

func TestSavitzkyGolayRejectsBadWindow(t *testing.T) {
	y := make([]float64, 20)
	if _, err := dsp.SavitzkyGolay(y, 4, 2); err == nil {
		t.Fatal("expected error for even window")
	}
	if _, err := dsp.SavitzkyGolay(y, 5, 5); err == nil {
		t.Fatal("expected error for order >= window")
	}
}

func TestGaussianSmoothPreservesConstant(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = 7.5
	}
	out := dsp.GaussianSmooth(y, 2)
	for i, v := range out {
		if math.Abs(v-7.5) > 1e-9 {
			t.Fatalf("sample %d drifted: %v", i, v)
		}
	}
}

func TestFindPeaksHeightAndProminence(t *testing.T) {
	y := make([]float64, 200)
	for i := range y {
		x := float64(i)
		y[i] = gaussian(x, 1.0, 50, 4) + gaussian(x, 0.3, 120, 4) + gaussian(x, 0.05, 170, 4)
	}
	peaks, err := dsp.FindPeaks(y, dsp.PeakOptions{MinHeight: 0.1, MinProminence: 0.1})
	if err != nil {
		t.Fatalf("FindPeaks returned error: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 50 || peaks[1].Index != 120 {
		t.Fatalf("unexpected peak positions: %+v", peaks)
	}
	if math.Abs(peaks[0].Prominence-1.0) > 0.05 {
		t.Fatalf("unexpected prominence for isolated peak: %v", peaks[0].Prominence)
	}
}

func TestFindPeaksPlateau(t *testing.T) {
	y := []float64{0, 1, 2, 2, 2, 1, 0}
	peaks, err := dsp.FindPeaks(y, dsp.PeakOptions{})
	if err != nil {
		t.Fatalf("FindPeaks returned error: %v", err)
	}
	if len(peaks) != 1 || peaks[0].Index != 3 {
		t.Fatalf("expected single plateau peak at 3, got %+v", peaks)
	}
}

func TestFindPeaksWidthFilter(t *testing.T) {
	y := make([]float64, 200)
	for i := range y {
		x := float64(i)
		y[i] = gaussian(x, 1.0, 60, 8) + gaussian(x, 1.0, 140, 1)
	}
	peaks, err := dsp.FindPeaks(y, dsp.PeakOptions{MinWidth: 6})
	if err != nil {
		t.Fatalf("FindPeaks returned error: %v", err)
	}
	if len(peaks) != 1 || peaks[0].Index != 60 {
		t.Fatalf("expected only the broad peak, got %+v", peaks)
	}
}

func TestCropSuggestionFindsEdge(t *testing.T) {
	// Flat tail after a sharp falling edge near the start.
	y := make([]float64, 120)
	for i := range y {
		switch {
		case i < 20:
			y[i] = 5
		case i < 30:
			y[i] = 5 - 0.5*float64(i-20)
		default:
			y[i] = 0
		}
	}
	n := dsp.CropSuggestion(y)
	if n < 15 || n > 35 {
		t.Fatalf("crop suggestion %d outside the falling edge", n)
	}
}

func TestFitGaussiansRecoversSinglePeak(t *testing.T) {
	x := make([]float64, 200)
	y := make([]float64, 200)
	for i := range x {
		x[i] = 400 + float64(i)
		y[i] = gaussian(x[i], 0.8, 500, 6)
	}
	stats, err := dsp.FitGaussians(x, y, []float64{498})
	if err != nil {
		t.Fatalf("FitGaussians returned error: %v", err)
	}
	s := stats[0]
	if math.Abs(s.Center-500) > 0.1 {
		t.Fatalf("center off: %v", s.Center)
	}
	if math.Abs(s.Height-0.8) > 0.01 {
		t.Fatalf("height off: %v", s.Height)
	}
	if math.Abs(s.Sigma-6) > 0.1 {
		t.Fatalf("sigma off: %v", s.Sigma)
	}
	wantFWHM := 2.35482 * 6
	if math.Abs(s.FWHM-wantFWHM) > 0.3 {
		t.Fatalf("fwhm off: %v want %v", s.FWHM, wantFWHM)
	}
	wantArea := 0.8 * 6 * math.Sqrt(2*math.Pi)
	if math.Abs(s.Area-wantArea) > 0.2 {
		t.Fatalf("area off: %v want %v", s.Area, wantArea)
	}
}

func TestFitGaussiansTwoPeaks(t *testing.T) {
	x := make([]float64, 300)
	y := make([]float64, 300)
	for i := range x {
		x[i] = float64(i)
		y[i] = gaussian(x[i], 1.0, 100, 5) + gaussian(x[i], 0.5, 200, 8)
	}
	stats, err := dsp.FitGaussians(x, y, []float64{102, 197})
	if err != nil {
		t.Fatalf("FitGaussians returned error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 components, got %d", len(stats))
	}
	if math.Abs(stats[0].Center-100) > 0.5 || math.Abs(stats[1].Center-200) > 0.5 {
		t.Fatalf("centers off: %+v", stats)
	}
}

func TestInterpLinearSegments(t *testing.T) {
	xs := []float64{0, 10, 20}
	ys := []float64{0, 100, 0}

	got := dsp.Interp([]float64{-5, 0, 5, 10, 15, 20, 25}, xs, ys)
	want := []float64{0, 0, 50, 100, 50, 0, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("interp[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

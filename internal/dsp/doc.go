// Package dsp implements the numeric routines behind spectrum processing:
// asymmetric least squares baseline estimation, Savitzky-Golay and Gaussian
// smoothing, peak detection with prominence and width filtering, and
// multi-Gaussian peak fitting. Everything operates on plain float64 slices
// so the routines compose without allocation-heavy abstractions.
package dsp

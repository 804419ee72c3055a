// Package spectrum represents Raman spectra and reads the RRUFF text and
// CSV formats the desktop application accepts. Intensities are
// max-normalized on load; cropping blanks samples to NaN instead of
// resampling so downstream processing keeps the original x axis.
package spectrum

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ramandpid/internal/config"
	"ramandpid/internal/dsp"
	"ramandpid/internal/session"
)

// peakOptionsFromConfig maps the configured detection thresholds onto the
// detector's options.
func peakOptionsFromConfig(cfg *config.Config) dsp.PeakOptions {
	return dsp.PeakOptions{
		MinHeight:     cfg.Peaks.MinHeight,
		MinProminence: cfg.Peaks.MinProminence,
		MinWidth:      cfg.Peaks.MinWidth,
		RelHeight:     cfg.Peaks.RelHeight,
	}
}

type processResult struct {
	Source string     `json:"source"`
	Peaks  []peakJSON `json:"peaks,omitempty"`
	Fits   []fitJSON  `json:"fits,omitempty"`
	Log    []string   `json:"log"`
	Output string     `json:"output,omitempty"`
	X      []float64  `json:"x,omitempty"`
	Y      []float64  `json:"y,omitempty"`
}

type peakJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type fitJSON struct {
	Center float64 `json:"center"`
	Sigma  float64 `json:"sigma"`
	Height float64 `json:"height"`
	FWHM   float64 `json:"fwhm"`
	Area   float64 `json:"area"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		cropRange   string
		autoCrop    bool
		baseline    bool
		discretize  bool
		smooth      bool
		detectPeaks bool
		output      string
		jsonOut     bool
		includeData bool
	)

	cmd := &cobra.Command{
		Use:   "process <spectrum>",
		Short: "Run a processing pipeline over a spectrum file",
		Long: `Process loads a spectrum (.txt RRUFF or .csv), applies the requested
steps in a fixed order (crop, baseline correction, smoothing, peak
detection), and optionally writes the processed spectrum back out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			s := session.New()
			if err := s.Apply(&session.LoadSpectrum{Path: args[0]}); err != nil {
				return err
			}

			if autoCrop {
				if err := s.Apply(&session.CropHead{}); err != nil {
					return err
				}
			}
			if cropRange != "" {
				lo, hi, err := parseRange(cropRange)
				if err != nil {
					return err
				}
				if err := s.Apply(&session.Crop{Start: lo, End: hi}); err != nil {
					return err
				}
			}
			if baseline {
				if err := s.Apply(&session.EstimateBaseline{
					Lambda:    cfg.Baseline.Lambda,
					Asymmetry: cfg.Baseline.Asymmetry,
					MaxIters:  cfg.Baseline.MaxIters,
				}); err != nil {
					return err
				}
				if discretize {
					if err := s.Apply(&session.DiscretizeBaseline{Step: cfg.Baseline.DiscreteStep}); err != nil {
						return err
					}
				}
				if err := s.Apply(&session.CorrectBaseline{}); err != nil {
					return err
				}
			}
			if smooth {
				if err := s.Apply(&session.Smooth{
					Window: cfg.Smoothing.WindowLength,
					Order:  cfg.Smoothing.PolyOrder,
				}); err != nil {
					return err
				}
			}
			if detectPeaks {
				if err := s.Apply(&session.DetectPeaks{Options: peakOptionsFromConfig(cfg)}); err != nil {
					return err
				}
			}
			if output != "" {
				if err := s.Spectrum.Save(output); err != nil {
					return err
				}
			}

			if jsonOut {
				result := processResult{Source: args[0], Log: s.Log, Output: output}
				for i := range s.PeaksX {
					result.Peaks = append(result.Peaks, peakJSON{X: s.PeaksX[i], Y: s.PeaksY[i]})
				}
				if includeData {
					result.X, result.Y = s.Spectrum.Valid()
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			for _, line := range s.Log {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if len(s.PeaksX) > 0 {
				rows := make([][]string, 0, len(s.PeaksX))
				for i := range s.PeaksX {
					rows = append(rows, []string{
						fmt.Sprintf("%.1f", s.PeaksX[i]),
						fmt.Sprintf("%.4f", s.PeaksY[i]),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Peak (cm^-1)", "Intensity"},
					rows,
					[]columnAlignment{alignRight, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cropRange, "crop", "", "Blank a wavenumber range, e.g. 250:600")
	cmd.Flags().BoolVar(&autoCrop, "auto-crop", false, "Automatically trim the noisy capture edge")
	cmd.Flags().BoolVar(&baseline, "baseline", false, "Estimate and subtract the fluorescence baseline")
	cmd.Flags().BoolVar(&discretize, "discretize", false, "Simplify the baseline to evenly spaced points before subtracting")
	cmd.Flags().BoolVar(&smooth, "smooth", false, "Apply Savitzky-Golay smoothing")
	cmd.Flags().BoolVar(&detectPeaks, "peaks", false, "Detect peaks after processing")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the processed spectrum to a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	cmd.Flags().BoolVar(&includeData, "data", false, "Include the processed samples in JSON output")

	return cmd
}

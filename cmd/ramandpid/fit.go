package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ramandpid/internal/dsp"
	"ramandpid/internal/session"
	"ramandpid/internal/spectrum"
)

func newFitCommand(ctx *commandContext) *cobra.Command {
	var (
		centersFlag string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "fit <spectrum>",
		Short: "Fit Gaussian components at given peak positions",
		Long: `Fit models the spectrum as a sum of Gaussians, one per listed center,
and reports center, sigma, height, FWHM, and area for each component.
Without --centers, peaks are detected first and used as centers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			spec, err := spectrum.Load(args[0])
			if err != nil {
				return err
			}
			s := session.New()
			s.Spectrum = spec

			if centersFlag != "" {
				centers, err := parseFloatList(centersFlag)
				if err != nil {
					return err
				}
				for _, c := range centers {
					if err := s.Apply(&session.AddPeak{X: c}); err != nil {
						return err
					}
				}
			} else {
				if err := s.Apply(&session.DetectPeaks{Options: peakOptionsFromConfig(cfg)}); err != nil {
					return err
				}
				if len(s.PeaksX) == 0 {
					return fmt.Errorf("no peaks detected in %s; pass --centers explicitly", args[0])
				}
			}

			if err := s.Apply(&session.FitPeaks{}); err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), fitResults(s.FitStats))
			}
			rows := make([][]string, 0, len(s.FitStats))
			for _, stat := range s.FitStats {
				rows = append(rows, []string{
					fmt.Sprintf("%.1f", stat.Center),
					fmt.Sprintf("%.2f", stat.Sigma),
					fmt.Sprintf("%.4f", stat.Height),
					fmt.Sprintf("%.2f", stat.FWHM),
					fmt.Sprintf("%.4f", stat.Area),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Center (cm^-1)", "Sigma", "Height", "FWHM", "Area"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&centersFlag, "centers", "", "Comma-separated peak centers, e.g. 465,1086")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit fit results as JSON")

	return cmd
}

func fitResults(stats []dsp.PeakStat) []fitJSON {
	out := make([]fitJSON, 0, len(stats))
	for _, s := range stats {
		out = append(out, fitJSON{
			Center: s.Center,
			Sigma:  s.Sigma,
			Height: s.Height,
			FWHM:   s.FWHM,
			Area:   s.Area,
		})
	}
	return out
}

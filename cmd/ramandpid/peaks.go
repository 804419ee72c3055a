package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ramandpid/internal/session"
	"ramandpid/internal/spectrum"
)

func newPeaksCommand(ctx *commandContext) *cobra.Command {
	var (
		minHeight     float64
		minProminence float64
		minWidth      float64
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "peaks <spectrum>",
		Short: "Detect peaks in a spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := peakOptionsFromConfig(cfg)
			if cmd.Flags().Changed("min-height") {
				opts.MinHeight = minHeight
			}
			if cmd.Flags().Changed("min-prominence") {
				opts.MinProminence = minProminence
			}
			if cmd.Flags().Changed("min-width") {
				opts.MinWidth = minWidth
			}

			spec, err := spectrum.Load(args[0])
			if err != nil {
				return err
			}
			s := session.New()
			s.Spectrum = spec
			if err := s.Apply(&session.DetectPeaks{Options: opts}); err != nil {
				return err
			}

			if jsonOut {
				result := processResult{Source: args[0], Log: s.Log}
				for i := range s.PeaksX {
					result.Peaks = append(result.Peaks, peakJSON{X: s.PeaksX[i], Y: s.PeaksY[i]})
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			if len(s.PeaksX) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No peaks found with the current thresholds.")
				return nil
			}
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
			return nil
		},
	}

	cmd.Flags().Float64Var(&minHeight, "min-height", 0, "Minimum normalized peak height")
	cmd.Flags().Float64Var(&minProminence, "min-prominence", 0, "Minimum peak prominence")
	cmd.Flags().Float64Var(&minWidth, "min-width", 0, "Minimum peak width in samples")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit peaks as JSON")

	return cmd
}

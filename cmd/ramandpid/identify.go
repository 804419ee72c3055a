package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ramandpid/internal/identify"
	"ramandpid/internal/refdb"
	"ramandpid/internal/session"
	"ramandpid/internal/spectrum"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var (
		peaksFlag string
		tolerance float64
		maxCombo  int
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "identify [spectrum]",
		Short: "Match peaks against the reference database",
		Long: `Identify searches the reference database for minerals, and small
mixtures of minerals, whose combined reference peaks explain every
measured peak within the tolerance. Peaks come from --peaks or are
detected from the given spectrum file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var peaks []float64
			switch {
			case peaksFlag != "":
				peaks, err = parseFloatList(peaksFlag)
				if err != nil {
					return err
				}
			case len(args) == 1:
				spec, err := spectrum.Load(args[0])
				if err != nil {
					return err
				}
				s := session.New()
				s.Spectrum = spec
				if err := s.Apply(&session.DetectPeaks{Options: peakOptionsFromConfig(cfg)}); err != nil {
					return err
				}
				peaks = s.PeaksX
			default:
				return fmt.Errorf("pass a spectrum file or --peaks")
			}
			if len(peaks) == 0 {
				return fmt.Errorf("no peaks to search with")
			}

			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.Search.Tolerance
			}
			if !cmd.Flags().Changed("max-combo") {
				maxCombo = cfg.Search.MaxCombination
			}

			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := identify.Run(cmd.Context(), store, peaks, tolerance, maxCombo)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Searched %d candidate spectra for %d peaks (tolerance %.1f cm^-1).\n",
				result.Candidates, len(peaks), tolerance)
			labels := map[int]string{1: "Single minerals", 2: "Mineral pairs", 3: "Mineral triples", 4: "Four-mineral mixtures"}
			found := false
			for size := 1; size <= maxCombo; size++ {
				matches := result.Matches[size]
				if len(matches) == 0 {
					continue
				}
				found = true
				fmt.Fprintf(out, "%s:\n", labels[size])
				for _, m := range matches {
					fmt.Fprintf(out, "  %s\n", strings.Join(m.Minerals, " + "))
				}
			}
			if !found {
				fmt.Fprintln(out, "No matches. Try a larger tolerance or import more reference spectra.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&peaksFlag, "peaks", "", "Comma-separated peak positions, e.g. 465,1086")
	cmd.Flags().Float64Var(&tolerance, "tolerance", identify.DefaultTolerance, "Matching tolerance in wavenumbers")
	cmd.Flags().IntVar(&maxCombo, "max-combo", 3, "Largest mixture size to test")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit matches as JSON")

	return cmd
}

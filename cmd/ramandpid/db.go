package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"ramandpid/internal/fileutil"
	"ramandpid/internal/refdb"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the reference spectrum database",
	}
	cmd.AddCommand(newDBInitCommand(ctx))
	cmd.AddCommand(newDBImportCommand(ctx))
	cmd.AddCommand(newDBStatsCommand(ctx))
	cmd.AddCommand(newDBLookupCommand(ctx))
	cmd.AddCommand(newDBBackupCommand(ctx))
	return cmd
}

func newDBBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <destination>",
		Short: "Copy the reference database with integrity verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Open and close first so WAL contents are checkpointed into
			// the main database file before it is copied.
			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}
			if err := fileutil.CopyFileVerified(cfg.Paths.ReferenceDB, args[0]); err != nil {
				return fmt.Errorf("backup reference database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s\n", cfg.Paths.ReferenceDB, args[0])
			return nil
		},
	}
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty reference database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Reference database ready at %s\n", store.Path())
			return nil
		},
	}
}

func newDBImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <directory>",
		Short: "Import RRUFF .txt spectra into the reference database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			defer store.Close()

			var spin *spinner.Spinner
			var processed int
			progress := func(name string) {
				processed++
				if spin != nil {
					spin.Suffix = fmt.Sprintf(" importing (%d files): %s", processed, name)
				}
			}
			if stdoutIsTerminal() {
				spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				spin.Suffix = " importing"
				spin.Start()
			}
			result, err := store.ImportDir(cmd.Context(), args[0], peakOptionsFromConfig(cfg), progress)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d already present.\n",
				result.Imported, result.Skipped)
			if len(result.Failed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Failed to parse %d files:\n  %s\n",
					len(result.Failed), strings.Join(result.Failed, "\n  "))
			}
			return nil
		},
	}
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reference database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Path", store.Path()},
				{"Spectra", strconv.Itoa(stats.Spectra)},
				{"Minerals", strconv.Itoa(stats.Minerals)},
				{"With peaks", strconv.Itoa(stats.WithPeaks)},
				{"Wavelengths", strings.Join(stats.Wavelengths, ", ")},
				{"Schema version", strconv.Itoa(stats.SchemaVersion)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newDBLookupCommand(ctx *commandContext) *cobra.Command {
	var wavelength string

	cmd := &cobra.Command{
		Use:   "lookup <mineral>",
		Short: "Show reference spectra for a mineral",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := refdb.Open(cmd.Context(), cfg.Paths.ReferenceDB)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.LookupByName(cmd.Context(), args[0], wavelength)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No reference spectra for %q.\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				peaks := make([]string, 0, len(rec.Peaks))
				for _, p := range rec.Peaks {
					peaks = append(peaks, fmt.Sprintf("%.0f", p))
				}
				rows = append(rows, []string{
					rec.Filename,
					rec.Wavelength,
					fmt.Sprintf("%.1f", rec.StrongestPeak),
					strings.Join(peaks, " "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Laser", "Strongest", "Peaks (cm^-1)"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&wavelength, "wavelength", "", "Restrict to one laser wavelength, e.g. 532")
	return cmd
}

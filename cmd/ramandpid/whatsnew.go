package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ramandpid/internal/updater"
	"ramandpid/internal/whatsnew"
)

func newWhatsNewCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "whats-new",
		Short: "Show the release notes for the installed version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if showAll {
				for _, note := range whatsnew.All() {
					printNote(out, note)
				}
				return nil
			}

			client := updater.New(cfg.Updater.ManifestURL, cfg.Paths.InstallRoot,
				cfg.VersionFilePath(), time.Duration(cfg.Updater.DownloadTimeout)*time.Second, nil)
			local, err := client.LocalVersion()
			if err != nil {
				return err
			}
			if local == nil {
				fmt.Fprintln(out, "No release installed yet.")
				return nil
			}

			note := whatsnew.For(local.String())
			if note == nil {
				fmt.Fprintf(out, "No release notes for %s.\n", local)
				return nil
			}
			printNote(out, *note)

			tracker := whatsnew.NewTracker(cfg.Paths.DataDir)
			return tracker.MarkSeen(note.Version)
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Show notes for every release")
	return cmd
}

func printNote(out io.Writer, note whatsnew.Note) {
	fmt.Fprintf(out, "What's new in %s:\n", note.Version)
	for _, item := range note.Items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"ramandpid/internal/updater"
	"ramandpid/internal/whatsnew"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and install a newer application release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := updater.New(cfg.Updater.ManifestURL, cfg.Paths.InstallRoot,
				cfg.VersionFilePath(), time.Duration(cfg.Updater.DownloadTimeout)*time.Second, logger)

			manifest, err := client.Check(cmd.Context())
			if errors.Is(err, updater.ErrUpToDate) {
				fmt.Fprintln(cmd.OutOrStdout(), err)
				return nil
			}
			if err != nil {
				return err
			}

			local, err := client.LocalVersion()
			if err != nil {
				return err
			}
			if local == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No release installed; %s is available.\n", manifest.Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Update available: %s -> %s\n", local, manifest.Version)
			}
			if manifest.Notes != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Notes: %s\n", manifest.Notes)
			}
			if checkOnly {
				return nil
			}

			if !assumeYes {
				if !stdoutIsTerminal() {
					return errors.New("refusing to install without --yes on a non-interactive terminal")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Install %s? [y/N] ", manifest.Version)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Update cancelled.")
					return nil
				}
			}

			var spin *spinner.Spinner
			progress := func(done, total int64) {}
			if stdoutIsTerminal() {
				spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				spin.Suffix = " downloading release"
				spin.Start()
				progress = func(done, total int64) {
					if total > 0 {
						spin.Suffix = fmt.Sprintf(" downloading release (%d/%d KiB)", done/1024, total/1024)
					} else {
						spin.Suffix = fmt.Sprintf(" downloading release (%d KiB)", done/1024)
					}
				}
			}
			dir, err := client.Apply(cmd.Context(), manifest, progress)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s to %s\n", manifest.Version, dir)
			if cfg.WhatsNew.Show {
				remote, err := manifest.SemVersion()
				if err == nil {
					if note := whatsnew.For(remote.String()); note != nil {
						tracker := whatsnew.NewTracker(cfg.Paths.DataDir)
						if !tracker.Seen(note.Version) {
							printNote(cmd.OutOrStdout(), *note)
							return tracker.MarkSeen(note.Version)
						}
					}
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run `ramandpid whats-new` to see what changed.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Install without asking for confirmation")

	return cmd
}

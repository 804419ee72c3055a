package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ramandpid/internal/semver"
	"ramandpid/internal/updater"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List installed releases and which one a launch would pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs, err := semver.List(cfg.Paths.InstallRoot)
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No releases installed. Run `ramandpid update` to install one.")
				return nil
			}

			client := updater.New(cfg.Updater.ManifestURL, cfg.Paths.InstallRoot,
				cfg.VersionFilePath(), time.Duration(cfg.Updater.DownloadTimeout)*time.Second, nil)
			recorded, err := client.LocalVersion()
			if err != nil {
				// A corrupt version file should not hide the folder listing.
				recorded = nil
			}

			latest, err := semver.SelectLatest(cfg.Paths.InstallRoot)
			if errors.Is(err, semver.ErrNoVersionDirs) {
				latest = semver.VersionDir{}
			} else if err != nil {
				return err
			}

			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				selected := ""
				if dir.Name == latest.Name {
					selected = "yes"
				}
				rows = append(rows, []string{dir.Name, selected, dir.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Version", "Selected", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if recorded != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded installed version: %s\n", recorded)
			}
			return nil
		},
	}
}

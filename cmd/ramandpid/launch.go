package main

import (
	"github.com/spf13/cobra"

	"ramandpid/internal/launcher"
)

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	var noUpdate bool
	var execHandoff bool

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Update, prepare, and start the Raman D&ID application",
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
			l := launcher.New(cfg, launcher.Options{
				NoUpdate:    noUpdate,
				ExecHandoff: execHandoff,
			}, logger)
			return l.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&noUpdate, "no-update", false, "Skip the update check for this launch")
	cmd.Flags().BoolVar(&execHandoff, "exec", false, "Replace the launcher process with the application")

	return cmd
}

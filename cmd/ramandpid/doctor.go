package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ramandpid/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that a launch would succeed on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := deps.Run(cmd.Context(), cfg)
			rows := make([][]string, 0, len(checks))
			for _, check := range checks {
				rows = append(rows, []string{
					check.Name,
					strings.ToUpper(check.Status.String()),
					check.Detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if deps.Failed(checks) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

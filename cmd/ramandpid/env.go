package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"ramandpid/internal/pyenv"
	"ramandpid/internal/semver"
)

func newEnvCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect and provision the managed Python environment",
	}
	cmd.AddCommand(newEnvStatusCommand(ctx))
	cmd.AddCommand(newEnvEnsureCommand(ctx))
	return cmd
}

func (c *commandContext) envManager() (*pyenv.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	// The pinned requirements live inside the selected release folder.
	requirements := ""
	if release, err := semver.SelectLatest(cfg.Paths.InstallRoot); err == nil {
		reqs := cfg.Launcher.RequirementsFile
		if reqs != "" && !filepath.IsAbs(reqs) {
			reqs = filepath.Join(release.Path, reqs)
		}
		requirements = reqs
	}
	return pyenv.NewManager(cfg.Paths.EnvDir, cfg.Launcher.PythonBinary, requirements, logger), nil
}

func newEnvStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the virtual environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.envManager()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Directory", manager.Dir},
				{"Interpreter", manager.Interpreter()},
				{"Status", manager.Status().String()},
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

func newEnvEnsureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create or finish provisioning the virtual environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.envManager()
			if err != nil {
				return err
			}

			var spin *spinner.Spinner
			if stdoutIsTerminal() && manager.Status() != pyenv.StatusReady {
				spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				spin.Suffix = " provisioning environment"
				spin.Start()
			}
			err = manager.Ensure(cmd.Context())
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Environment %s is %s.\n", manager.Dir, manager.Status())
			return nil
		},
	}
}

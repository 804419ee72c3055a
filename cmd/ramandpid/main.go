package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps a command error to the process exit code. When the
// launched application itself failed, its status passes through so wrapper
// scripts see what the GUI reported. Cancellation stays quiet.
func exitStatus(err error) int {
	if errors.Is(err, context.Canceled) {
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}

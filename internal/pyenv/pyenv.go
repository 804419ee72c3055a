package pyenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"ramandpid/internal/logging"
)

// markerName flags a fully provisioned environment. It is written only
// after every install step succeeds, so a crash mid-setup leaves the
// environment Incomplete and a later run finishes the job.
const markerName = ".ramandpid-env-ok"

// commandContext is swapped in tests to avoid running real subprocesses.
var commandContext = exec.CommandContext

// Status describes the state of a managed virtual environment.
type Status int

const (
	StatusMissing Status = iota
	StatusIncomplete
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusIncomplete:
		return "incomplete"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Manager provisions and inspects one Python virtual environment.
type Manager struct {
	// Dir is the virtual environment directory.
	Dir string
	// Python is the interpreter used to create the environment.
	Python string
	// Requirements optionally points at a pinned requirements file
	// installed on first provisioning.
	Requirements string

	logger *slog.Logger
}

// NewManager returns a manager for the environment at dir.
func NewManager(dir, python, requirements string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		Dir:          dir,
		Python:       python,
		Requirements: requirements,
		logger:       logging.WithComponent(logger, "pyenv"),
	}
}

// Interpreter returns the path of the environment's own Python binary.
func (m *Manager) Interpreter() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(m.Dir, "Scripts", "python.exe")
	}
	return filepath.Join(m.Dir, "bin", "python")
}

// Status reports whether the environment exists and finished provisioning.
func (m *Manager) Status() Status {
	if _, err := os.Stat(m.Dir); errors.Is(err, os.ErrNotExist) {
		return StatusMissing
	}
	if _, err := os.Stat(m.Interpreter()); err != nil {
		return StatusIncomplete
	}
	if _, err := os.Stat(filepath.Join(m.Dir, markerName)); err != nil {
		return StatusIncomplete
	}
	return StatusReady
}

// Ensure brings the environment to StatusReady: create the venv if needed,
// upgrade pip, install the pinned requirements, and write the completion
// marker. A ready environment is left untouched.
func (m *Manager) Ensure(ctx context.Context) error {
	status := m.Status()
	if status == StatusReady {
		m.logger.Debug("environment ready", slog.String(logging.FieldPath, m.Dir))
		return nil
	}

	if status == StatusMissing {
		m.logger.Info("creating virtual environment", slog.String(logging.FieldPath, m.Dir))
	} else {
		m.logger.Info("completing interrupted environment setup", slog.String(logging.FieldPath, m.Dir))
	}
	if err := m.run(ctx, m.Python, "-m", "venv", m.Dir); err != nil {
		return fmt.Errorf("create virtual environment: %w", err)
	}

	interp := m.Interpreter()
	if err := m.run(ctx, interp, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("upgrade pip: %w", err)
	}
	if m.Requirements != "" {
		if _, err := os.Stat(m.Requirements); err != nil {
			return fmt.Errorf("requirements file: %w", err)
		}
		m.logger.Info("installing pinned dependencies", slog.String(logging.FieldPath, m.Requirements))
		if err := m.run(ctx, interp, "-m", "pip", "install", "-r", m.Requirements); err != nil {
			return fmt.Errorf("install requirements: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(m.Dir, markerName), []byte("ok\n"), 0o644); err != nil {
		return fmt.Errorf("write environment marker: %w", err)
	}
	m.logger.Info("environment provisioned", slog.String(logging.FieldPath, m.Dir))
	return nil
}

func (m *Manager) run(ctx context.Context, name string, args ...string) error {
	cmd := commandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, string(output))
	}
	return nil
}

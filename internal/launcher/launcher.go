package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"ramandpid/internal/config"
	"ramandpid/internal/deps"
	"ramandpid/internal/logging"
	"ramandpid/internal/pyenv"
	"ramandpid/internal/semver"
	"ramandpid/internal/updater"
)

// ErrAlreadyRunning means another launcher holds the instance lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Swapped in tests.
var (
	commandContext = exec.CommandContext
	execHandoff    = func(dir, binary string, argv []string) error {
		if err := os.Chdir(dir); err != nil {
			return err
		}
		return unix.Exec(binary, argv, os.Environ())
	}
)

// Options tweak a single launch.
type Options struct {
	// NoUpdate skips the update check even when the updater is enabled.
	NoUpdate bool
	// ExecHandoff replaces the launcher process with the application
	// instead of running it as a child. Overrides the config when set.
	ExecHandoff bool
}

// Launcher bootstraps the application: single-instance lock, preflight,
// optional update, environment provisioning, release selection, hand-off.
type Launcher struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
}

// New builds a launcher.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Launcher{
		cfg:    cfg,
		opts:   opts,
		logger: logging.WithComponent(logger, "launcher"),
	}
}

// Run performs a full launch. It returns once the application exits, or
// never when exec hand-off is active and succeeds.
func (l *Launcher) Run(ctx context.Context) error {
	lock := flock.New(filepath.Join(l.cfg.Paths.DataDir, "launcher.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer lock.Unlock()

	checks := deps.Run(ctx, l.cfg)
	for _, check := range checks {
		switch check.Status {
		case deps.StatusFail:
			l.logger.Error("preflight check failed",
				slog.String("check", check.Name), slog.String("detail", check.Detail))
		case deps.StatusWarn:
			l.logger.Warn("preflight check degraded",
				slog.String("check", check.Name), slog.String("detail", check.Detail))
		}
	}
	if deps.Failed(checks) {
		return errors.New("preflight checks failed")
	}

	if l.cfg.Updater.Enabled && !l.opts.NoUpdate {
		l.tryUpdate(ctx)
	}

	release, err := semver.SelectLatest(l.cfg.Paths.InstallRoot)
	if err != nil {
		return fmt.Errorf("select release: %w", err)
	}
	l.logger.Info("selected release",
		slog.String(logging.FieldVersion, release.Name),
		slog.String(logging.FieldPath, release.Path))

	manager := pyenv.NewManager(l.cfg.Paths.EnvDir, l.cfg.Launcher.PythonBinary,
		l.requirementsPath(release.Path), l.logger)
	if err := manager.Ensure(ctx); err != nil {
		return fmt.Errorf("prepare environment: %w", err)
	}

	return l.handoff(ctx, manager.Interpreter(), release.Path)
}

// tryUpdate checks for and applies a newer release. Update problems are
// logged but never block the launch; the installed release still works.
func (l *Launcher) tryUpdate(ctx context.Context) {
	timeout := time.Duration(l.cfg.Launcher.UpdateTimeout) * time.Second
	updateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := updater.New(l.cfg.Updater.ManifestURL, l.cfg.Paths.InstallRoot,
		l.cfg.VersionFilePath(), time.Duration(l.cfg.Updater.DownloadTimeout)*time.Second, l.logger)

	manifest, err := client.Check(updateCtx)
	if errors.Is(err, updater.ErrUpToDate) {
		l.logger.Debug("release up to date")
		return
	}
	if err != nil {
		l.logger.Warn("update check failed; launching installed release", logging.Error(err))
		return
	}
	if _, err := client.Apply(updateCtx, manifest, nil); err != nil {
		l.logger.Warn("update failed; launching installed release", logging.Error(err))
	}
}

// requirementsPath resolves the pinned requirements file against the
// selected release folder. A missing file disables the install step rather
// than failing the launch.
func (l *Launcher) requirementsPath(releaseDir string) string {
	reqs := l.cfg.Launcher.RequirementsFile
	if reqs == "" {
		return ""
	}
	if !filepath.IsAbs(reqs) {
		reqs = filepath.Join(releaseDir, reqs)
	}
	if _, err := os.Stat(reqs); err != nil {
		l.logger.Warn("requirements file not found; skipping dependency install",
			slog.String(logging.FieldPath, reqs))
		return ""
	}
	return reqs
}

// handoff starts the GUI entry point from the release folder. With exec
// hand-off the launcher process is replaced entirely; otherwise the
// application runs as a child with inherited stdio and its exit status is
// passed through.
func (l *Launcher) handoff(ctx context.Context, interpreter, releaseDir string) error {
	argv := []string{interpreter, "-m", l.cfg.Launcher.Entrypoint}
	l.logger.Info("starting application",
		slog.String("command", strings.Join(argv, " ")),
		slog.String(logging.FieldPath, releaseDir))

	if l.opts.ExecHandoff || l.cfg.Launcher.ExecHandoff {
		if err := execHandoff(releaseDir, interpreter, argv); err != nil {
			return fmt.Errorf("exec hand-off: %w", err)
		}
		return nil
	}

	cmd := commandContext(ctx, interpreter, "-m", l.cfg.Launcher.Entrypoint)
	cmd.Dir = releaseDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("application exited: %w", err)
	}
	return nil
}

package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"ramandpid/internal/config"
	"ramandpid/internal/pyenv"
	"ramandpid/internal/refdb"
	"ramandpid/internal/semver"
)

// Swapped in tests so checks run without a real Python install.
var (
	lookPath       = exec.LookPath
	commandContext = exec.CommandContext
)

// Status classifies a single preflight check.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Check is one preflight result.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// Run executes every preflight check against the configuration. Failures
// that would stop a launch report StatusFail; degraded-but-launchable
// conditions report StatusWarn.
func Run(ctx context.Context, cfg *config.Config) []Check {
	checks := []Check{
		checkPython(ctx, cfg),
		checkInstallRoot(cfg),
		checkReleases(cfg),
		checkEnvironment(cfg),
		checkReferenceDB(ctx, cfg),
	}
	if cfg.Updater.Enabled {
		checks = append(checks, checkManifestURL(cfg))
	}
	return checks
}

// Failed reports whether any check would block a launch.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

func checkPython(ctx context.Context, cfg *config.Config) Check {
	check := Check{Name: "python"}
	path, err := lookPath(cfg.Launcher.PythonBinary)
	if err != nil {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s not found in PATH", cfg.Launcher.PythonBinary)
		return check
	}
	output, err := commandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("%s found but --version failed: %v", path, err)
		return check
	}
	check.Detail = fmt.Sprintf("%s (%s)", path, strings.TrimSpace(string(output)))
	return check
}

func checkInstallRoot(cfg *config.Config) Check {
	check := Check{Name: "install root"}
	info, err := os.Stat(cfg.Paths.InstallRoot)
	switch {
	case os.IsNotExist(err):
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("%s does not exist yet; run update to install a release", cfg.Paths.InstallRoot)
	case err != nil:
		check.Status = StatusFail
		check.Detail = err.Error()
	case !info.IsDir():
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s is not a directory", cfg.Paths.InstallRoot)
	default:
		check.Detail = cfg.Paths.InstallRoot
	}
	return check
}

func checkReleases(cfg *config.Config) Check {
	check := Check{Name: "installed releases"}
	latest, err := semver.SelectLatest(cfg.Paths.InstallRoot)
	if err != nil {
		check.Status = StatusWarn
		check.Detail = "no version folders installed"
		return check
	}
	dirs, _ := semver.List(cfg.Paths.InstallRoot)
	check.Detail = fmt.Sprintf("%d installed, latest %s", len(dirs), latest.Name)
	return check
}

func checkEnvironment(cfg *config.Config) Check {
	check := Check{Name: "python environment"}
	manager := pyenv.NewManager(cfg.Paths.EnvDir, cfg.Launcher.PythonBinary, "", nil)
	status := manager.Status()
	check.Detail = status.String()
	if status != pyenv.StatusReady {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("%s; launch will provision it", status)
	}
	return check
}

func checkReferenceDB(ctx context.Context, cfg *config.Config) Check {
	check := Check{Name: "reference database"}
	if _, err := os.Stat(cfg.Paths.ReferenceDB); os.IsNotExist(err) {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("%s missing; run db init", cfg.Paths.ReferenceDB)
		return check
	}
	store, err := refdb.Open(ctx, cfg.Paths.ReferenceDB)
	if err != nil {
		check.Status = StatusWarn
		check.Detail = err.Error()
		return check
	}
	defer store.Close()
	stats, err := store.Summary(ctx)
	if err != nil {
		check.Status = StatusWarn
		check.Detail = err.Error()
		return check
	}
	check.Detail = fmt.Sprintf("%d spectra, %d minerals", stats.Spectra, stats.Minerals)
	return check
}

func checkManifestURL(cfg *config.Config) Check {
	check := Check{Name: "update manifest"}
	if cfg.Updater.ManifestURL == "" {
		check.Status = StatusWarn
		check.Detail = "updater enabled but no manifest_url configured"
		return check
	}
	check.Detail = cfg.Updater.ManifestURL
	return check
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InstallRoot string `toml:"install_root"`
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	EnvDir      string `toml:"env_dir"`
	ReferenceDB string `toml:"reference_db"`
}

// Launcher contains configuration for the environment bootstrap and the
// hand-off to the GUI entry point.
type Launcher struct {
	Entrypoint       string `toml:"entrypoint"`
	PythonBinary     string `toml:"python_binary"`
	RequirementsFile string `toml:"requirements_file"`
	ExecHandoff      bool   `toml:"exec_handoff"`
	UpdateTimeout    int    `toml:"update_timeout"`
}

// Updater contains configuration for the release manifest check.
type Updater struct {
	Enabled         bool   `toml:"enabled"`
	ManifestURL     string `toml:"manifest_url"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Baseline contains asymmetric-least-squares baseline estimation settings.
type Baseline struct {
	Lambda       float64 `toml:"lambda"`
	Asymmetry    float64 `toml:"asymmetry"`
	MaxIters     int     `toml:"max_iters"`
	DiscreteStep float64 `toml:"discrete_step"`
}

// Peaks contains peak detection thresholds. Zero values disable a criterion.
type Peaks struct {
	MinHeight     float64 `toml:"min_height"`
	MinProminence float64 `toml:"min_prominence"`
	MinWidth      float64 `toml:"min_width"`
	RelHeight     float64 `toml:"rel_height"`
}

// Smoothing contains Savitzky-Golay filter settings.
type Smoothing struct {
	WindowLength int `toml:"window_length"`
	PolyOrder    int `toml:"poly_order"`
}

// Search contains reference database search settings.
type Search struct {
	Tolerance      float64 `toml:"tolerance"`
	MaxCombination int     `toml:"max_combination"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// WhatsNew controls the one-time release notes display after an update.
type WhatsNew struct {
	Show bool `toml:"show"`
}

// Config encapsulates all configuration values for ramandpid.
//
// Configuration sections by subsystem:
//   - Paths: install root, data/log directories, environment dir, reference DB
//   - Launcher: GUI entry point, interpreter, requirements manifest, hand-off
//   - Updater: release manifest URL and download limits
//   - Baseline / Peaks / Smoothing: spectrum processing parameters
//   - Search: tolerance matching against the reference database
//   - Logging: log format and level
//   - WhatsNew: post-update release notes flag
type Config struct {
	Paths     Paths     `toml:"paths"`
	Launcher  Launcher  `toml:"launcher"`
	Updater   Updater   `toml:"updater"`
	Baseline  Baseline  `toml:"baseline"`
	Peaks     Peaks     `toml:"peaks"`
	Smoothing Smoothing `toml:"smoothing"`
	Search    Search    `toml:"search"`
	Logging   Logging   `toml:"logging"`
	WhatsNew  WhatsNew  `toml:"whats_new"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ramandpid/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ramandpid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the launcher and CLI write to.
// The install root is created too so a fresh machine can run `update` before
// any release has ever been installed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InstallRoot, c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// VersionFilePath returns the path of the version.txt marker the updater
// maintains inside the install root.
func (c *Config) VersionFilePath() string {
	return filepath.Join(c.Paths.InstallRoot, "version.txt")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

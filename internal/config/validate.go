package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLauncher(); err != nil {
		return err
	}
	if err := c.validateUpdater(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InstallRoot == "" {
		return errors.New("paths.install_root must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateLauncher() error {
	if c.Launcher.Entrypoint == "" {
		return errors.New("launcher.entrypoint must be set")
	}
	if c.Launcher.PythonBinary == "" {
		return errors.New("launcher.python_binary must be set")
	}
	if c.Launcher.UpdateTimeout < 0 {
		return errors.New("launcher.update_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateUpdater() error {
	if !c.Updater.Enabled {
		return nil
	}
	if c.Updater.ManifestURL == "" {
		return errors.New("updater.manifest_url must be set when updater.enabled is true")
	}
	if c.Updater.DownloadTimeout <= 0 {
		return errors.New("updater.download_timeout must be positive")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Baseline.Lambda <= 0 {
		return errors.New("baseline.lambda must be positive")
	}
	if c.Baseline.Asymmetry <= 0 || c.Baseline.Asymmetry >= 1 {
		return errors.New("baseline.asymmetry must be between 0 and 1 exclusive")
	}
	if c.Baseline.MaxIters <= 0 {
		return errors.New("baseline.max_iters must be positive")
	}
	if c.Smoothing.WindowLength < 3 || c.Smoothing.WindowLength%2 == 0 {
		return fmt.Errorf("smoothing.window_length must be an odd number >= 3, got %d", c.Smoothing.WindowLength)
	}
	if c.Smoothing.PolyOrder < 1 || c.Smoothing.PolyOrder >= c.Smoothing.WindowLength {
		return fmt.Errorf("smoothing.poly_order must be >= 1 and smaller than the window length, got %d", c.Smoothing.PolyOrder)
	}
	if c.Peaks.RelHeight <= 0 || c.Peaks.RelHeight > 1 {
		return errors.New("peaks.rel_height must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Tolerance <= 0 {
		return errors.New("search.tolerance must be positive")
	}
	if c.Search.MaxCombination < 1 || c.Search.MaxCombination > 4 {
		return errors.New("search.max_combination must be between 1 and 4")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

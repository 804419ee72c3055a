package config

import (
	"strings"
)

// normalize expands user paths and canonicalizes string values after decode.
func (c *Config) normalize() error {
	var err error
	if c.Paths.InstallRoot, err = expandPath(c.Paths.InstallRoot); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.EnvDir, err = expandPath(c.Paths.EnvDir); err != nil {
		return err
	}
	if c.Paths.ReferenceDB, err = expandPath(c.Paths.ReferenceDB); err != nil {
		return err
	}

	c.Launcher.Entrypoint = strings.TrimSpace(c.Launcher.Entrypoint)
	c.Launcher.PythonBinary = strings.TrimSpace(c.Launcher.PythonBinary)
	c.Launcher.RequirementsFile = strings.TrimSpace(c.Launcher.RequirementsFile)
	c.Updater.ManifestURL = strings.TrimSpace(c.Updater.ManifestURL)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Peaks.RelHeight == 0 {
		c.Peaks.RelHeight = defaultPeakRelHeight
	}
	if c.Search.MaxCombination == 0 {
		c.Search.MaxCombination = defaultMaxCombination
	}
	return nil
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ramandpid/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd returned error: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origWD); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "ramandpid", "releases")
	if cfg.Paths.InstallRoot != wantRoot {
		t.Fatalf("unexpected install root: got %q want %q", cfg.Paths.InstallRoot, wantRoot)
	}
	if cfg.Launcher.Entrypoint != "raman_dpid" {
		t.Fatalf("unexpected entrypoint: %q", cfg.Launcher.Entrypoint)
	}
	if !cfg.Updater.Enabled {
		t.Fatal("expected updater enabled by default")
	}
	if cfg.Baseline.Lambda != 1e5 {
		t.Fatalf("unexpected baseline lambda: %v", cfg.Baseline.Lambda)
	}
	if cfg.Baseline.MaxIters != 1000 {
		t.Fatalf("unexpected baseline max iters: %d", cfg.Baseline.MaxIters)
	}
	if cfg.Smoothing.WindowLength != 13 || cfg.Smoothing.PolyOrder != 3 {
		t.Fatalf("unexpected smoothing defaults: %d/%d", cfg.Smoothing.WindowLength, cfg.Smoothing.PolyOrder)
	}
	if cfg.Search.Tolerance != 5.0 || cfg.Search.MaxCombination != 3 {
		t.Fatalf("unexpected search defaults: %v/%d", cfg.Search.Tolerance, cfg.Search.MaxCombination)
	}
	if !cfg.WhatsNew.Show {
		t.Fatal("expected whats_new.show enabled by default")
	}
	if cfg.VersionFilePath() != filepath.Join(wantRoot, "version.txt") {
		t.Fatalf("unexpected version file path: %q", cfg.VersionFilePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InstallRoot, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist", dir)
		}
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`install_root = "` + filepath.ToSlash(filepath.Join(dir, "releases")) + `"`,
		"[launcher]",
		`entrypoint = "raman_dpid.main"`,
		"[search]",
		"tolerance = 10.0",
		"max_combination = 2",
		"[logging]",
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Launcher.Entrypoint != "raman_dpid.main" {
		t.Fatalf("unexpected entrypoint: %q", cfg.Launcher.Entrypoint)
	}
	if cfg.Search.Tolerance != 10.0 || cfg.Search.MaxCombination != 2 {
		t.Fatalf("unexpected search settings: %v/%d", cfg.Search.Tolerance, cfg.Search.MaxCombination)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Baseline.Asymmetry != 0.05 {
		t.Fatalf("unexpected baseline asymmetry: %v", cfg.Baseline.Asymmetry)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"even smoothing window", func(c *config.Config) { c.Smoothing.WindowLength = 12 }},
		{"asymmetry out of range", func(c *config.Config) { c.Baseline.Asymmetry = 1.5 }},
		{"zero tolerance", func(c *config.Config) { c.Search.Tolerance = 0 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "yaml" }},
		{"missing entrypoint", func(c *config.Config) { c.Launcher.Entrypoint = "" }},
		{"combination too large", func(c *config.Config) { c.Search.MaxCombination = 9 }},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config failed validation: %v", err)
	}
}

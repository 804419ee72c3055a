package deps

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"ramandpid/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InstallRoot = filepath.Join(root, "releases")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.EnvDir = filepath.Join(root, "env")
	cfg.Paths.ReferenceDB = filepath.Join(root, "reference.sqlite")
	return &cfg
}

func stubPython(t *testing.T, found bool) {
	t.Helper()
	origLook, origCmd := lookPath, commandContext
	t.Cleanup(func() { lookPath, commandContext = origLook, origCmd })
	lookPath = func(name string) (string, error) {
		if !found {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	commandContext = func(_ context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.Command("true")
	}
}

func TestRunOnFreshMachineWarnsButDoesNotFail(t *testing.T) {
	stubPython(t, true)
	cfg := testConfig(t)

	checks := Run(context.Background(), cfg)
	if Failed(checks) {
		t.Fatalf("fresh machine should warn, not fail: %+v", checks)
	}

	byName := map[string]Check{}
	for _, c := range checks {
		byName[c.Name] = c
	}
	if byName["python"].Status != StatusOK {
		t.Fatalf("python check should pass: %+v", byName["python"])
	}
	if byName["install root"].Status != StatusWarn {
		t.Fatalf("missing install root should warn: %+v", byName["install root"])
	}
	if byName["reference database"].Status != StatusWarn {
		t.Fatalf("missing reference database should warn: %+v", byName["reference database"])
	}
}

func TestRunFailsWithoutPython(t *testing.T) {
	stubPython(t, false)
	cfg := testConfig(t)

	checks := Run(context.Background(), cfg)
	if !Failed(checks) {
		t.Fatalf("missing python must fail the preflight: %+v", checks)
	}
}

func TestRunReportsInstalledReleases(t *testing.T) {
	stubPython(t, true)
	cfg := testConfig(t)
	for _, v := range []string{"v1.2.3", "v1.10.0"} {
		if err := os.MkdirAll(filepath.Join(cfg.Paths.InstallRoot, v), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	checks := Run(context.Background(), cfg)
	for _, c := range checks {
		if c.Name == "installed releases" {
			if c.Status != StatusOK {
				t.Fatalf("releases check should pass: %+v", c)
			}
			if c.Detail != "2 installed, latest v1.10.0" {
				t.Fatalf("unexpected detail: %q", c.Detail)
			}
			return
		}
	}
	t.Fatal("installed releases check missing")
}

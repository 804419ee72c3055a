package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"ramandpid/internal/refdb"
	"ramandpid/internal/whatsnew"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	installDir string
	dbPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		installDir: filepath.Join(base, "releases"),
		dbPath:     filepath.Join(base, "reference.sqlite"),
	}

	content := fmt.Sprintf(`[paths]
install_root = %q
data_dir = %q
log_dir = %q
env_dir = %q
reference_db = %q

[launcher]
python_binary = "true"

[updater]
enabled = false
`,
		env.installDir,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "venv"),
		env.dbPath,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// writeSpectrum writes a plain-form spectrum with Gaussian peaks at the
// given centers. Plain form stores descending x.
func writeSpectrum(t *testing.T, path string, centers ...float64) {
	t.Helper()
	var b strings.Builder
	for i := 1999; i >= 0; i-- {
		x := 100.0 + float64(i)
		y := 0.01
		for _, c := range centers {
			d := x - c
			y += math.Exp(-d * d / (2 * 8 * 8))
		}
		fmt.Fprintf(&b, "%.1f %.6f\n", x, y)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write spectrum: %v", err)
	}
}

func TestCLIConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(env.baseDir, "sample", "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestCLIVersionsListsReleases(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "versions")
	if err != nil {
		t.Fatalf("versions on empty root: %v", err)
	}
	requireContains(t, out, "No releases installed")

	for _, v := range []string{"v1.2.3", "v1.10.0", "v1.9.9"} {
		if err := os.MkdirAll(filepath.Join(env.installDir, v), 0o755); err != nil {
			t.Fatalf("mkdir release: %v", err)
		}
	}

	out, _, err = runCLI(t, env, "versions")
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	requireContains(t, out, "v1.10.0")
	// Numeric ordering must pick v1.10.0, not v1.9.9.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "v1.9.9") && strings.Contains(line, "yes") {
			t.Fatalf("v1.9.9 marked selected: %q", line)
		}
	}
}

func TestCLIPeaksAndFit(t *testing.T) {
	env := setupCLITestEnv(t)
	specPath := filepath.Join(env.baseDir, "sample.txt")
	writeSpectrum(t, specPath, 465, 1086)

	out, _, err := runCLI(t, env, "peaks", specPath, "--min-prominence", "0.2")
	if err != nil {
		t.Fatalf("peaks: %v", err)
	}
	requireContains(t, out, "465.0")
	requireContains(t, out, "1086.0")

	out, _, err = runCLI(t, env, "fit", specPath, "--centers", "465,1086")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	requireContains(t, out, "465.0")
	requireContains(t, out, "FWHM")
}

func TestCLIProcessWritesOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	specPath := filepath.Join(env.baseDir, "sample.txt")
	writeSpectrum(t, specPath, 600)
	outPath := filepath.Join(env.baseDir, "processed.txt")

	out, _, err := runCLI(t, env, "process", specPath,
		"--baseline", "--smooth", "--peaks", "-o", outPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "loaded "+specPath)
	requireContains(t, out, "subtracted baseline")
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("processed output missing: %v", err)
	}
}

func TestCLIDBImportAndIdentify(t *testing.T) {
	env := setupCLITestEnv(t)

	refDir := filepath.Join(env.baseDir, "rruff")
	if err := os.MkdirAll(refDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSpectrum(t, filepath.Join(refDir,
		"Quartz__R040031__Broad_Scan__532__0__unoriented__Raman_Data_Processed__1.txt"), 465)
	writeSpectrum(t, filepath.Join(refDir,
		"Calcite__R040070__Broad_Scan__532__0__unoriented__Raman_Data_Processed__2.txt"), 1086)

	out, _, err := runCLI(t, env, "db", "init")
	if err != nil {
		t.Fatalf("db init: %v", err)
	}
	requireContains(t, out, "Reference database ready")

	out, _, err = runCLI(t, env, "db", "import", refDir)
	if err != nil {
		t.Fatalf("db import: %v", err)
	}
	requireContains(t, out, "Imported 2")

	out, _, err = runCLI(t, env, "db", "stats")
	if err != nil {
		t.Fatalf("db stats: %v", err)
	}
	requireContains(t, out, "2")

	out, _, err = runCLI(t, env, "db", "lookup", "quartz")
	if err != nil {
		t.Fatalf("db lookup: %v", err)
	}
	requireContains(t, out, "Quartz__R040031")

	out, _, err = runCLI(t, env, "identify", "--peaks", "465,1086")
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "Calcite + Quartz")

	// Verify the import stored sensible strongest peaks.
	store, err := refdb.Open(context.Background(), env.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	records, err := store.LookupByName(context.Background(), "Quartz", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(records) != 1 || math.Abs(records[0].StrongestPeak-465) > 1 {
		t.Fatalf("unexpected quartz record: %+v", records)
	}
}

func TestCLIWhatsNewAll(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "whats-new", "--all")
	if err != nil {
		t.Fatalf("whats-new --all: %v", err)
	}
	requireContains(t, out, "What's new in")
}

func TestCLIDoctorOnFreshMachine(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor should not fail on a fresh machine: %v\n%s", err, out)
	}
	requireContains(t, out, "python")
}

// serveRelease publishes a manifest and zip for the given version on a local
// server and points the env's config at it with the updater enabled.
func serveRelease(t *testing.T, env *cliTestEnv, version string) {
	t.Helper()

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	entry, err := zw.Create("raman_dpid/__init__.py")
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	if _, err := entry.Write([]byte("VERSION = \"" + version + "\"\n")); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	mux.HandleFunc("/release.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive.Bytes())
	})
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":%q,"download_url":%q}`, version, server.URL+"/release.zip")
	})

	content := fmt.Sprintf(`[paths]
install_root = %q
data_dir = %q
log_dir = %q
env_dir = %q
reference_db = %q

[launcher]
python_binary = "true"

[updater]
enabled = true
manifest_url = %q
`,
		env.installDir,
		filepath.Join(env.baseDir, "data"),
		filepath.Join(env.baseDir, "logs"),
		filepath.Join(env.baseDir, "venv"),
		env.dbPath,
		server.URL+"/manifest.json",
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestCLIUpdateShowsReleaseNotesOnce(t *testing.T) {
	env := setupCLITestEnv(t)
	serveRelease(t, env, "1.4.0")

	out, _, err := runCLI(t, env, "update", "--yes")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	requireContains(t, out, "Installed 1.4.0")
	requireContains(t, out, "What's new in 1.4.0")

	tracker := whatsnew.NewTracker(filepath.Join(env.baseDir, "data"))
	if !tracker.Seen("1.4.0") {
		t.Fatal("release notes not marked seen after showing them")
	}
}

func TestCLIUpdateSkipsSeenReleaseNotes(t *testing.T) {
	env := setupCLITestEnv(t)
	serveRelease(t, env, "1.4.0")

	dataDir := filepath.Join(env.baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	if err := whatsnew.NewTracker(dataDir).MarkSeen("1.4.0"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	out, _, err := runCLI(t, env, "update", "--yes")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if strings.Contains(out, "What's new in") {
		t.Fatalf("already-seen notes were shown again:\n%s", out)
	}
	requireContains(t, out, "ramandpid whats-new")
}

func TestCLIUpdateNotesDisabledByConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	serveRelease(t, env, "1.4.0")

	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	if _, err := f.WriteString("\n[whats_new]\nshow = false\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close config: %v", err)
	}

	out, _, err := runCLI(t, env, "update", "--yes")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if strings.Contains(out, "What's new in") {
		t.Fatalf("notes shown despite show = false:\n%s", out)
	}
}

func TestExitStatusPassesChildCodeThrough(t *testing.T) {
	childErr := exec.Command("sh", "-c", "exit 3").Run()
	if childErr == nil {
		t.Fatal("expected the child to fail")
	}
	wrapped := fmt.Errorf("application exited: %w", childErr)
	if got := exitStatus(wrapped); got != 3 {
		t.Fatalf("exit status = %d, want 3", got)
	}
	if got := exitStatus(errors.New("bad config")); got != 1 {
		t.Fatalf("exit status = %d, want 1", got)
	}
	if got := exitStatus(context.Canceled); got != 1 {
		t.Fatalf("exit status for cancellation = %d, want 1", got)
	}
}

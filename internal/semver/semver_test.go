package semver_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ramandpid/internal/semver"
)

func TestSelectLatestUsesNumericComponentOrdering(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"v1.2.3", "v1.10.0", "v1.9.9"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}

	latest, err := semver.SelectLatest(root)
	if err != nil {
		t.Fatalf("SelectLatest returned error: %v", err)
	}
	if latest.Name != "v1.10.0" {
		t.Fatalf("expected v1.10.0, got %s", latest.Name)
	}
	if latest.Path != filepath.Join(root, "v1.10.0") {
		t.Fatalf("unexpected path: %s", latest.Path)
	}
}

func TestSelectLatestIgnoresNonVersionSiblings(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"v1.0.3", "docs", "venv", "v2"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "v9.9.9"), []byte("file, not a folder"), 0o644); err != nil {
		t.Fatalf("write decoy file: %v", err)
	}

	latest, err := semver.SelectLatest(root)
	if err != nil {
		t.Fatalf("SelectLatest returned error: %v", err)
	}
	if latest.Name != "v2" {
		t.Fatalf("expected v2, got %s", latest.Name)
	}
}

func TestSelectLatestFailsWhenNoVersionFolderExists(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "not-a-version"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := semver.SelectLatest(root)
	if !errors.Is(err, semver.ErrNoVersionDirs) {
		t.Fatalf("expected ErrNoVersionDirs, got %v", err)
	}
}

func TestListOrdersOldestToNewest(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"v1.1.1", "v1.0.3", "v1.1.0"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}

	dirs, err := semver.List(root)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	got := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		got = append(got, dir.Name)
	}
	want := []string{"v1.0.3", "v1.1.0", "v1.1.1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
}

func TestIsVersionDir(t *testing.T) {
	cases := map[string]bool{
		"v1.0.3":  true,
		"v1":      true,
		"v1.2":    true,
		"1.2.3":   false,
		"v1.2.3a": false,
		"venv":    false,
		"":        false,
	}
	for name, want := range cases {
		if got := semver.IsVersionDir(name); got != want {
			t.Fatalf("IsVersionDir(%q) = %v, want %v", name, got, want)
		}
	}
}

package semver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/Masterminds/semver"
)

// ErrNoVersionDirs indicates that a scan found no version folders at all.
var ErrNoVersionDirs = errors.New("no version folder found")

// versionDirPattern matches release folder names: a leading "v" followed by
// dotted numeric components, e.g. v1.0.3 or v2.1.
var versionDirPattern = regexp.MustCompile(`^v\d+(\.\d+)*$`)

// VersionDir pairs a release folder with its parsed version.
type VersionDir struct {
	Name    string
	Path    string
	Version *semver.Version
}

// Parse parses a version string, tolerating a leading "v".
func Parse(value string) (*semver.Version, error) {
	v, err := semver.NewVersion(value)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", value, err)
	}
	return v, nil
}

// IsVersionDir reports whether name looks like a release folder.
func IsVersionDir(name string) bool {
	return versionDirPattern.MatchString(name)
}

// List returns every release folder directly under root, ordered oldest to
// newest by semantic version. Non-matching siblings are ignored.
func List(root string) ([]VersionDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read install root %q: %w", root, err)
	}

	var dirs []VersionDir
	for _, entry := range entries {
		if !entry.IsDir() || !IsVersionDir(entry.Name()) {
			continue
		}
		version, err := semver.NewVersion(entry.Name())
		if err != nil {
			continue
		}
		dirs = append(dirs, VersionDir{
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
			Version: version,
		})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].Version.LessThan(dirs[j].Version)
	})
	return dirs, nil
}

// SelectLatest returns the release folder under root with the highest
// semantic version. Comparison is numeric per component, so v1.10.0 orders
// above v1.9.9. Returns ErrNoVersionDirs when nothing under root matches.
func SelectLatest(root string) (VersionDir, error) {
	dirs, err := List(root)
	if err != nil {
		return VersionDir{}, err
	}
	if len(dirs) == 0 {
		return VersionDir{}, fmt.Errorf("%w in %s", ErrNoVersionDirs, root)
	}
	return dirs[len(dirs)-1], nil
}

package whatsnew

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"ramandpid/internal/fileutil"
)

// Note lists what changed in one release, shown once after an update.
type Note struct {
	Version string
	Items   []string
}

// modifier names the platform's primary shortcut key so the notes read
// naturally on every OS.
func modifier() string {
	if runtime.GOOS == "windows" {
		return "Ctrl"
	}
	return "Cmd"
}

// All returns the release notes, newest first.
func All() []Note {
	mod := modifier()
	return []Note{
		{
			Version: "1.4.0",
			Items: []string{
				"Mixture search now tests pairs and triples of reference minerals.",
				fmt.Sprintf("Undo and redo any processing step with %s+Z and %s+Shift+Z.", mod, mod),
				fmt.Sprintf("Press %s+D to turn the estimated baseline into draggable points.", mod),
			},
		},
		{
			Version: "1.3.0",
			Items: []string{
				"Automatic crop suggestion trims the filter edge at the start of a capture.",
				"Gaussian peak fitting reports center, FWHM, and area per peak.",
			},
		},
		{
			Version: "1.2.0",
			Items: []string{
				"Baseline estimation handles cropped regions without distorting the fit.",
				fmt.Sprintf("Save the processed spectrum with %s+S.", mod),
			},
		},
	}
}

// For returns the note for one release, or nil when that release shipped
// without notes.
func For(version string) *Note {
	for _, note := range All() {
		if note.Version == version {
			return &note
		}
	}
	return nil
}

// Tracker remembers which releases' notes the user has already seen.
type Tracker struct {
	path string
}

// NewTracker stores seen-state under the data directory.
func NewTracker(dataDir string) *Tracker {
	return &Tracker{path: filepath.Join(dataDir, "whatsnew_seen.json")}
}

// Seen reports whether the notes for a release were already shown.
func (t *Tracker) Seen(version string) bool {
	seen, err := t.load()
	if err != nil {
		return false
	}
	return slices.Contains(seen, version)
}

// MarkSeen records that the notes for a release were shown.
func (t *Tracker) MarkSeen(version string) error {
	seen, err := t.load()
	if err != nil {
		return err
	}
	if slices.Contains(seen, version) {
		return nil
	}
	seen = append(seen, version)
	data, err := json.Marshal(seen)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(t.path, data, 0o644); err != nil {
		return fmt.Errorf("record seen releases: %w", err)
	}
	return nil
}

func (t *Tracker) load() ([]string, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen releases: %w", err)
	}
	var seen []string
	if err := json.Unmarshal(data, &seen); err != nil {
		return nil, fmt.Errorf("decode seen releases: %w", err)
	}
	return seen, nil
}

package refdb

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"ramandpid/internal/dsp"
	"ramandpid/internal/spectrum"
)

// importWorkers bounds concurrent file parsing. Inserts funnel through the
// store's single connection anyway.
const importWorkers = 4

// ImportResult reports what an ImportDir run did.
type ImportResult struct {
	Imported int
	Skipped  int
	Failed   []string
}

// ImportDir walks dir for RRUFF .txt spectra, detects their peaks, and
// inserts them. Files already present (by filename) count as skipped;
// files that fail to parse are recorded in Failed without aborting the
// import. The optional progress callback runs once per processed file.
func (s *Store) ImportDir(ctx context.Context, dir string, opts dsp.PeakOptions, progress func(name string)) (*ImportResult, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan import directory: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .txt spectra found under %s", dir)
	}

	result := &ImportResult{}
	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(importWorkers)

	for _, path := range paths {
		path := path
		group.Go(func() error {
			base := filepath.Base(path)
			rec, err := buildRecord(path, opts)
			if err != nil {
				// Malformed reference files are reported, not fatal.
				mu.Lock()
				result.Failed = append(result.Failed, base)
				if progress != nil {
					progress(base)
				}
				mu.Unlock()
				return nil
			}
			inserted, err := s.Insert(ctx, rec)
			if err != nil {
				return err
			}
			mu.Lock()
			if inserted {
				result.Imported++
			} else {
				result.Skipped++
			}
			if progress != nil {
				progress(base)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// buildRecord loads one reference spectrum and computes its peak list.
func buildRecord(path string, opts dsp.PeakOptions) (*Record, error) {
	spec, err := spectrum.Load(path)
	if err != nil {
		return nil, err
	}

	name, wavelength := parseRRUFFName(filepath.Base(path))
	rec := &Record{
		Filename:      filepath.Base(path),
		Name:          name,
		Wavelength:    wavelength,
		X:             spec.X,
		Y:             spec.Y,
		StrongestPeak: math.NaN(),
	}

	peaks, err := dsp.FindPeaks(spec.Y, opts)
	if err != nil {
		return nil, err
	}
	best := math.Inf(-1)
	for _, p := range peaks {
		rec.Peaks = append(rec.Peaks, spec.X[p.Index])
		if p.Height > best {
			best = p.Height
			rec.StrongestPeak = spec.X[p.Index]
		}
	}
	return rec, nil
}

// parseRRUFFName splits a RRUFF export filename into mineral name and
// laser wavelength. The convention is double-underscore separated fields:
// Name__RRUFFID__Scan__Wavelength__... Anything that does not follow it
// falls back to the filename stem as the name.
func parseRRUFFName(base string) (name, wavelength string) {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "__")
	name = parts[0]
	if len(parts) > 3 {
		wavelength = parts[3]
	}
	return name, wavelength
}

// ImportFile inserts a single spectrum file, for ad-hoc additions outside
// a bulk import.
func (s *Store) ImportFile(ctx context.Context, path string, opts dsp.PeakOptions) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, fmt.Errorf("stat spectrum: %w", err)
	}
	rec, err := buildRecord(path, opts)
	if err != nil {
		return false, err
	}
	return s.Insert(ctx, rec)
}

package spectrum

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a spectrum file (.txt RRUFF or .csv with x,y columns) and
// returns it max-normalized, matching how the GUI ingests unknown spectra.
func Load(path string) (*Spectrum, error) {
	var (
		spec *Spectrum
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		spec, err = loadTXT(path)
	case ".csv":
		spec, err = loadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spectrum format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	spec.Normalize()
	return spec, nil
}

func loadTXT(path string) (*Spectrum, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spectrum: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read spectrum: %w", err)
	}

	x, y, err := ParseTXT(lines)
	if err != nil {
		return nil, fmt.Errorf("could not extract x and y from %s: ensure format matches RRUFF .txt file format: %w", path, err)
	}
	return New(x, y)
}

// ParseTXT parses RRUFF-style text lines. Two layouts exist:
//
//   - Header form: lines starting with "##" are metadata, data lines are
//     "x, y" pairs. A stray "800, -" sentinel appears in some exports and is
//     skipped.
//   - Plain form: whitespace-separated "x y" pairs in descending x order,
//     which parse reversed to ascending.
func ParseTXT(lines []string) ([]float64, []float64, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("empty file")
	}

	var xs, ys []float64
	if strings.HasPrefix(lines[0], "#") {
		for _, line := range lines {
			if strings.HasPrefix(line, "##") || strings.TrimSpace(line) == "" || strings.HasPrefix(line, "800, -") {
				continue
			}
			fields := strings.Split(line, ", ")
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("malformed data line %q", line)
			}
			x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse x in %q: %w", line, err)
			}
			y, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse y in %q: %w", line, err)
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
	} else {
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("malformed data line %q", line)
			}
			x, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse x in %q: %w", line, err)
			}
			y, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse y in %q: %w", line, err)
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
		reverse(xs)
		reverse(ys)
	}

	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("no data lines found")
	}
	return xs, ys, nil
}

func loadCSV(path string) (*Spectrum, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spectrum: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	xCol, yCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "x":
			xCol = i
		case "y":
			yCol = i
		}
	}
	if xCol < 0 || yCol < 0 {
		return nil, fmt.Errorf("cannot find columns x,y")
	}

	var xs, ys []float64
	for _, record := range records[1:] {
		if xCol >= len(record) || yCol >= len(record) {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(record[xCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse x %q: %w", record[xCol], err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[yCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse y %q: %w", record[yCol], err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	return New(xs, ys)
}

// Save writes the spectrum as two-column whitespace text, skipping cropped
// (NaN) samples. Rows are emitted in descending x order, the plain-form
// convention, so the file reloads through ParseTXT with ascending x.
func (s *Spectrum) Save(path string) error {
	xs, ys := s.Valid()
	var b strings.Builder
	for i := len(xs) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%g %g\n", xs[i], ys[i])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write spectrum: %w", err)
	}
	return nil
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

package refdb

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch means the database was created by an incompatible
// release and must be rebuilt with db init.
var ErrSchemaMismatch = errors.New("reference database schema mismatch")

// Record is one reference spectrum row.
type Record struct {
	ID            int64
	Filename      string
	Name          string
	Wavelength    string
	Peaks         []float64
	StrongestPeak float64
	X             []float64
	Y             []float64
}

// Stats summarizes the database contents.
type Stats struct {
	Spectra       int
	Minerals      int
	WithPeaks     int
	Wavelengths   []string
	SchemaVersion int
}

// Store wraps the SQLite reference database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the reference database at path and verifies the
// schema version.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", url.PathEscape(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open reference database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: path}
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, this build expects %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Insert adds a reference spectrum. Rows with a filename already present
// are skipped; the boolean reports whether a row was written.
func (s *Store) Insert(ctx context.Context, rec *Record) (bool, error) {
	peaks, err := json.Marshal(rec.Peaks)
	if err != nil {
		return false, fmt.Errorf("encode peaks: %w", err)
	}
	dataX, err := json.Marshal(rec.X)
	if err != nil {
		return false, fmt.Errorf("encode x data: %w", err)
	}
	dataY, err := json.Marshal(rec.Y)
	if err != nil {
		return false, fmt.Errorf("encode y data: %w", err)
	}
	strongest := sql.NullFloat64{Float64: rec.StrongestPeak, Valid: !math.IsNaN(rec.StrongestPeak)}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO spectra (filename, name, wavelength, peaks, strongest_peak, data_x, data_y)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (filename) DO NOTHING`,
		rec.Filename, rec.Name, rec.Wavelength, string(peaks), strongest, string(dataX), string(dataY))
	if err != nil {
		return false, fmt.Errorf("insert spectrum %s: %w", rec.Filename, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LookupByName returns reference spectra whose mineral name matches,
// case-insensitively. A non-empty wavelength restricts the match further.
func (s *Store) LookupByName(ctx context.Context, name, wavelength string) ([]Record, error) {
	query := "SELECT id, filename, name, wavelength, peaks, strongest_peak, data_x, data_y FROM spectra WHERE name = ? COLLATE NOCASE"
	args := []any{name}
	if wavelength != "" {
		query += " AND wavelength = ?"
		args = append(args, wavelength)
	}
	query += " ORDER BY filename"
	return s.queryRecords(ctx, query, args...)
}

// CandidatesByPeaks returns reference spectra whose strongest peak lies
// within tol of any of the given peak positions.
func (s *Store) CandidatesByPeaks(ctx context.Context, peaks []float64, tol float64) ([]Record, error) {
	if len(peaks) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []any
	for _, p := range peaks {
		clauses = append(clauses, "strongest_peak BETWEEN ? AND ?")
		args = append(args, p-tol, p+tol)
	}
	query := "SELECT id, filename, name, wavelength, peaks, strongest_peak, data_x, data_y FROM spectra WHERE " +
		strings.Join(clauses, " OR ") + " ORDER BY name, filename"
	return s.queryRecords(ctx, query, args...)
}

// Names returns the distinct mineral names in the database.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT name FROM spectra ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Summary reports database statistics for the stats command.
func (s *Store) Summary(ctx context.Context) (*Stats, error) {
	stats := &Stats{SchemaVersion: schemaVersion}
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT name),
		       COUNT(strongest_peak)
		FROM spectra`)
	if err := row.Scan(&stats.Spectra, &stats.Minerals, &stats.WithPeaks); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT wavelength FROM spectra WHERE wavelength != '' ORDER BY wavelength")
	if err != nil {
		return nil, fmt.Errorf("read wavelengths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		stats.Wavelengths = append(stats.Wavelengths, w)
	}
	return stats, rows.Err()
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query spectra: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			peaks     string
			strongest sql.NullFloat64
			dataX     string
			dataY     string
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Name, &rec.Wavelength, &peaks, &strongest, &dataX, &dataY); err != nil {
			return nil, fmt.Errorf("scan spectrum row: %w", err)
		}
		if err := json.Unmarshal([]byte(peaks), &rec.Peaks); err != nil {
			return nil, fmt.Errorf("decode peaks for %s: %w", rec.Filename, err)
		}
		if err := json.Unmarshal([]byte(dataX), &rec.X); err != nil {
			return nil, fmt.Errorf("decode x data for %s: %w", rec.Filename, err)
		}
		if err := json.Unmarshal([]byte(dataY), &rec.Y); err != nil {
			return nil, fmt.Errorf("decode y data for %s: %w", rec.Filename, err)
		}
		if strongest.Valid {
			rec.StrongestPeak = strongest.Float64
		} else {
			rec.StrongestPeak = math.NaN()
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

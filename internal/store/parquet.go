package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"cppi/internal/domain"
)

// Compile-time interface checks.
var _ PathStore = (*ParquetStore)(nil)
var _ SummaryStore = (*ParquetStore)(nil)

// ParquetStore implements PathStore and SummaryStore using Parquet files on
// disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// PathRecord is the long-format Parquet schema for price paths: one record
// per (row, column) cell.
type PathRecord struct {
	Row       int64   `parquet:"row"`
	Timestamp int64   `parquet:"timestamp,timestamp(nanosecond)"` // Unix ns
	Column    int32   `parquet:"column"`
	Name      string  `parquet:"name"`
	Value     float64 `parquet:"value"`
}

// SummaryRecord is the Parquet schema for one row of a rebased run summary.
type SummaryRecord struct {
	RealizationID string  `parquet:"realization_id"`
	Strategy      string  `parquet:"strategy"`
	Path          string  `parquet:"path"`
	Timestamp     int64   `parquet:"timestamp,timestamp(nanosecond)"` // Unix ns
	CPPI          float64 `parquet:"cppi"`
	Protection    float64 `parquet:"protection"`
	Underlying    float64 `parquet:"underlying"`
}

// ---------------------------------------------------------------------------
// PathStore implementation
// ---------------------------------------------------------------------------

// WritePaths writes the path set to a single Parquet file at:
//
//	<DataDir>/paths/<name>.parquet
func (s *ParquetStore) WritePaths(_ context.Context, name string, paths *domain.Paths) error {
	records := make([]PathRecord, 0, paths.Len()*paths.Columns())
	for c, values := range paths.Values {
		if len(values) != paths.Len() {
			return fmt.Errorf("column %s has %d values for %d timestamps", paths.ColumnName(c), len(values), paths.Len())
		}
		colName := ""
		if c < len(paths.Names) {
			colName = paths.Names[c]
		}
		for i, v := range values {
			records = append(records, PathRecord{
				Row:       int64(i),
				Timestamp: paths.Times[i].UnixNano(),
				Column:    int32(c),
				Name:      colName,
				Value:     v,
			})
		}
	}

	if err := writeParquetFile(s.pathsPath(name), records); err != nil {
		return fmt.Errorf("writing paths %s: %w", name, err)
	}
	return nil
}

// ReadPaths reads the path set stored under name. Every column must carry a
// value for every row.
func (s *ParquetStore) ReadPaths(_ context.Context, name string) (*domain.Paths, error) {
	path := s.pathsPath(name)
	records, err := readParquetFile[PathRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("paths %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading paths %s: %w", name, err)
	}

	rows, cols := 0, 0
	for _, r := range records {
		rows = max(rows, int(r.Row)+1)
		cols = max(cols, int(r.Column)+1)
	}

	paths := &domain.Paths{
		Times:  make([]time.Time, rows),
		Names:  make([]string, cols),
		Values: make([][]float64, cols),
	}
	for c := range paths.Values {
		paths.Values[c] = make([]float64, rows)
	}
	seen := make([]bool, rows*cols)
	for _, r := range records {
		i, c := int(r.Row), int(r.Column)
		if i < 0 || c < 0 {
			return nil, fmt.Errorf("paths %s: negative row or column in record", name)
		}
		paths.Times[i] = time.Unix(0, r.Timestamp).UTC()
		paths.Names[c] = r.Name
		paths.Values[c][i] = r.Value
		seen[i*cols+c] = true
	}
	for k, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("paths %s: missing value at row %d column %d", name, k/cols, k%cols)
		}
	}
	return paths, nil
}

// ---------------------------------------------------------------------------
// SummaryStore implementation
// ---------------------------------------------------------------------------

// SaveSummary writes a summary to:
//
//	<DataDir>/summaries/<strategy>/<realization id>.parquet
func (s *ParquetStore) SaveSummary(_ context.Context, summary domain.Summary) error {
	if summary.RealizationID == "" || summary.Strategy == "" {
		return fmt.Errorf("summary needs a realization id and a strategy")
	}
	if !validName(summary.RealizationID) || !validName(summary.Strategy) {
		return fmt.Errorf("summary %q/%q: invalid file name", summary.Strategy, summary.RealizationID)
	}
	records := make([]SummaryRecord, len(summary.Rows))
	for i, row := range summary.Rows {
		records[i] = SummaryRecord{
			RealizationID: summary.RealizationID,
			Strategy:      summary.Strategy,
			Path:          summary.Path,
			Timestamp:     row.Time.UnixNano(),
			CPPI:          row.CPPI,
			Protection:    row.Protection,
			Underlying:    row.Underlying,
		}
	}
	path := s.summaryPath(summary.Strategy, summary.RealizationID)
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing summary %s: %w", summary.RealizationID, err)
	}
	return nil
}

// LoadSummary finds and reads the summary with the given realization ID.
// IDs that are not plain file names are never found.
func (s *ParquetStore) LoadSummary(_ context.Context, id string) (domain.Summary, error) {
	if !validName(id) {
		return domain.Summary{}, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}
	matches, err := filepath.Glob(filepath.Join(s.DataDir, "summaries", "*", id+".parquet"))
	if err != nil {
		return domain.Summary{}, err
	}
	if len(matches) == 0 {
		return domain.Summary{}, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}

	records, err := readParquetFile[SummaryRecord](matches[0])
	if err != nil {
		return domain.Summary{}, fmt.Errorf("reading summary %s: %w", id, err)
	}

	summary := domain.Summary{
		RealizationID: id,
		Strategy:      filepath.Base(filepath.Dir(matches[0])),
		Rows:          make([]domain.SummaryRow, len(records)),
	}
	for i, r := range records {
		summary.Strategy = r.Strategy
		summary.Path = r.Path
		summary.Rows[i] = domain.SummaryRow{
			Time:       time.Unix(0, r.Timestamp).UTC(),
			CPPI:       r.CPPI,
			Protection: r.Protection,
			Underlying: r.Underlying,
		}
	}
	return summary, nil
}

// ListSummaries returns the realization IDs saved for strategy, ordered by
// file modification time.
func (s *ParquetStore) ListSummaries(_ context.Context, strategy string) ([]string, error) {
	dir := "*"
	if strategy != "" {
		if !validName(strategy) {
			return nil, nil
		}
		dir = strategy
	}
	matches, err := filepath.Glob(filepath.Join(s.DataDir, "summaries", dir, "*.parquet"))
	if err != nil {
		return nil, err
	}

	type file struct {
		id      string
		modTime time.Time
	}
	files := make([]file, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, err
		}
		files = append(files, file{
			id:      strings.TrimSuffix(filepath.Base(m), ".parquet"),
			modTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.id
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// pathsPath returns the filesystem path for a path set.
// Layout: <dataDir>/paths/<name>.parquet
func (s *ParquetStore) pathsPath(name string) string {
	return filepath.Join(s.DataDir, "paths", name+".parquet")
}

// summaryPath returns the filesystem path for a summary.
// Layout: <dataDir>/summaries/<strategy>/<id>.parquet
func (s *ParquetStore) summaryPath(strategy, id string) string {
	return filepath.Join(s.DataDir, "summaries", strategy, id+".parquet")
}

// validName reports whether name can be used as a single path element
// without matching anything else in a glob.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `*?[]\/`)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cppi/internal/domain"
)

// Compile-time interface check.
var _ PathStore = (*CSVStore)(nil)

// dateColumn is the header of the time column in path CSV files.
const dateColumn = "Date"

// dateLayouts are tried in order when parsing the time column.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// CSVStore implements PathStore over CSV files laid out as
// <Dir>/<name>.csv.
type CSVStore struct {
	Dir string
}

// NewCSVStore creates a CSVStore rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

// ReadPaths opens and parses <Dir>/<name>.csv.
func (s *CSVStore) ReadPaths(_ context.Context, name string) (*domain.Paths, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("paths %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	paths, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path(name), err)
	}
	return paths, nil
}

// WritePaths writes paths to <Dir>/<name>.csv.
func (s *CSVStore) WritePaths(_ context.Context, name string, paths *domain.Paths) error {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, paths); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.Dir, name+".csv")
}

// ReadCSV parses a path table with a Date column and one numeric column per
// path. The Date column may appear anywhere in the header. Rows keep file
// order; ordering is checked when the paths are replayed.
func ReadCSV(r io.Reader) (*domain.Paths, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv")
	}
	if err != nil {
		return nil, err
	}

	dateIdx := -1
	var names []string
	var valueIdx []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, dateColumn) {
			dateIdx = i
			continue
		}
		names = append(names, h)
		valueIdx = append(valueIdx, i)
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("csv header has no %s column", dateColumn)
	}

	paths := &domain.Paths{
		Names:  names,
		Values: make([][]float64, len(names)),
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		ts, err := parseDate(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		paths.Times = append(paths.Times, ts)

		for c, idx := range valueIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, names[c], err)
			}
			paths.Values[c] = append(paths.Values[c], v)
		}
	}
	return paths, nil
}

// WriteCSV writes paths with a leading Date column in RFC 3339 format.
func WriteCSV(w io.Writer, paths *domain.Paths) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, paths.Columns()+1)
	header = append(header, dateColumn)
	for c := range paths.Values {
		header = append(header, paths.ColumnName(c))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, ts := range paths.Times {
		row[0] = ts.UTC().Format(time.RFC3339Nano)
		for c, values := range paths.Values {
			if i >= len(values) {
				return fmt.Errorf("column %s has %d values for %d timestamps", paths.ColumnName(c), len(values), paths.Len())
			}
			row[c+1] = strconv.FormatFloat(values[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

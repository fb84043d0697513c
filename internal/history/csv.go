package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVStore keeps each supplier's history as
// <dir>/<supplier>/monthly.csv, the exchange format the rest of the
// tooling (spreadsheets, notebooks) consumes directly.
type CSVStore struct {
	Dir string
}

func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{Dir: dir}
}

func (s *CSVStore) path(supplier string) string {
	return filepath.Join(s.Dir, supplier, "monthly.csv")
}

func (s *CSVStore) Load(_ context.Context, supplier string) (*Table, error) {
	f, err := os.Open(s.path(supplier))
	if os.IsNotExist(err) {
		return New(supplier, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", s.path(supplier), err)
	}
	if len(records) == 0 {
		return New(supplier, nil), nil
	}

	t := New(supplier, records[0])
	for _, rec := range records[1:] {
		if len(rec) == 0 || rec[0] == "" {
			continue
		}
		row := Row{Date: rec[0], Values: map[string]float64{}}
		for i := 1; i < len(rec) && i < len(t.Columns); i++ {
			if rec[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				continue
			}
			row.Values[t.Columns[i]] = v
		}
		t.Append(row)
	}
	return t, nil
}

func (s *CSVStore) Save(_ context.Context, t *Table) error {
	dir := filepath.Dir(s.path(t.Supplier))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	f, err := os.Create(s.path(t.Supplier))
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		rec[0] = row.Date
		for i, col := range t.Columns[1:] {
			if v, ok := row.Values[col]; ok {
				rec[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

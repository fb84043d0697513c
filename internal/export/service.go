// Package export renders a bill history table to the formats the
// downstream reporting tools consume.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ryanfobel/utility-bill-scraper/internal/history"
)

// Service renders history tables to CSV or XLSX.
type Service struct {
	logger *slog.Logger
	// IncludeCarbon adds a derived kgCO2 column next to gas consumption.
	IncludeCarbon bool
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

func (s *Service) columns(t *history.Table) []string {
	cols := append([]string(nil), t.Columns...)
	if s.IncludeCarbon && hasColumn(cols, "Gas Consumption") {
		cols = append(cols, "kgCO2")
	}
	return cols
}

func (s *Service) cell(row history.Row, col string, carbon float64) (float64, bool) {
	if col == "kgCO2" {
		return carbon, true
	}
	v, ok := row.Values[col]
	return v, ok
}

// WriteCSV streams the table as CSV.
func (s *Service) WriteCSV(t *history.Table, w io.Writer) error {
	start := time.Now()
	cols := s.columns(t)
	carbon := history.CarbonColumn(t)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for i, row := range t.Rows {
		rec := make([]string, len(cols))
		rec[0] = row.Date
		for j, col := range cols[1:] {
			if v, ok := s.cell(row, col, carbon[i]); ok {
				rec[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.logger.Info("export.csv.ok",
		"supplier", t.Supplier,
		"rows", len(t.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ExportXLSX returns an XLSX workbook (as bytes) for the history table.
func (s *Service) ExportXLSX(t *history.Table) ([]byte, error) {
	start := time.Now()
	cols := s.columns(t)
	carbon := history.CarbonColumn(t)

	f := excelize.NewFile()
	const sheet = "History"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	for r, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetCellValue(sheet, cell, row.Date); err != nil {
			return nil, err
		}
		for c, col := range cols[1:] {
			v, ok := s.cell(row, col, carbon[r])
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+2, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"supplier", t.Supplier,
		"rows", len(t.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

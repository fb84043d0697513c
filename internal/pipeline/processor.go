// Package pipeline orchestrates the per-statement flow: PDF -> positioned
// HTML -> classified extraction -> history row, plus the batch loop over a
// supplier's statement directory.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/extract"
	"github.com/ryanfobel/utility-bill-scraper/internal/history"
	"github.com/ryanfobel/utility-bill-scraper/internal/ingest"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// Processor coordinates conversion, classification, extraction and history
// updates.
type Processor struct {
	Logger    *slog.Logger
	Converter *Converter
	Registry  *extract.Registry
	Store     history.Store
	// SaveStatements renames parsed PDFs to their canonical
	// "YYYY-MM-DD - Supplier - $amount.pdf" name in place.
	SaveStatements bool
}

func NewProcessor(logger *slog.Logger, conv *Converter, reg *extract.Registry, store history.Store, saveStatements bool) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:         logger,
		Converter:      conv,
		Registry:       reg,
		Store:          store,
		SaveStatements: saveStatements,
	}
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	BatchID      uuid.UUID
	Scanned      int
	Parsed       int
	Appended     int
	Cached       int
	Failed       int
	Unrecognized int
}

// ProcessFile converts and extracts a single statement.
func (p *Processor) ProcessFile(ctx context.Context, pdfPath string) (*extract.Bill, error) {
	htmlPath, err := p.Converter.PDFToHTML(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	defer os.Remove(htmlPath)

	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := layout.ParseDocument(f)
	if err != nil {
		return nil, err
	}

	extractor, err := p.Registry.Classify(doc)
	if err != nil {
		return nil, err
	}

	bill, err := extractor.Extract(doc)
	if err != nil {
		return nil, common.WrapError(err, "extracting "+filepath.Base(pdfPath))
	}
	p.Logger.Info("pipeline.extract.ok",
		"file", filepath.Base(pdfPath),
		"supplier", bill.Supplier,
		"date", bill.Date,
	)
	return bill, nil
}

// ProcessBatch parses every statement into the supplier's history. Per-file
// failures are logged and the batch continues; the loop never aborts on a
// single bad statement. Statements whose filename-encoded date is already
// cached are skipped before conversion.
func (p *Processor) ProcessBatch(ctx context.Context, supplier string, files []string) (*history.Table, BatchResult, error) {
	res := BatchResult{BatchID: uuid.New(), Scanned: len(files)}

	table, err := p.Store.Load(ctx, supplier)
	if err != nil {
		return nil, res, common.WrapError(err, "loading history")
	}

	for _, pdfPath := range files {
		if date, ok := ingest.StatementDate(pdfPath); ok && table.Has(date) {
			res.Cached++
			continue
		}

		bill, err := p.ProcessFile(ctx, pdfPath)
		switch {
		case errors.Is(err, common.ErrUnrecognizedBillType):
			res.Unrecognized++
			p.Logger.Warn("pipeline.skip.unrecognized",
				"batch_id", res.BatchID, "file", filepath.Base(pdfPath))
			continue
		case err != nil:
			res.Failed++
			p.Logger.Error("pipeline.file.failed",
				"batch_id", res.BatchID, "file", filepath.Base(pdfPath), "err", err)
			continue
		}
		res.Parsed++

		added, err := history.AppendBill(table, bill)
		if err != nil {
			res.Failed++
			p.Logger.Error("pipeline.append.failed",
				"batch_id", res.BatchID, "file", filepath.Base(pdfPath), "err", err)
			continue
		}
		if !added {
			res.Cached++
			p.Logger.Info("pipeline.skip.cached",
				"batch_id", res.BatchID, "date", bill.Date)
			continue
		}
		res.Appended++

		if p.SaveStatements {
			p.archive(pdfPath, bill)
		}
	}

	if err := p.Store.Save(ctx, table); err != nil {
		return table, res, common.WrapError(err, "saving history")
	}
	p.Logger.Info("pipeline.batch.ok",
		"batch_id", res.BatchID,
		"supplier", supplier,
		"scanned", res.Scanned,
		"appended", res.Appended,
		"cached", res.Cached,
		"failed", res.Failed,
		"unrecognized", res.Unrecognized,
	)
	return table, res, nil
}

// archive renames a parsed statement to its canonical filename so reruns
// can skip it by date without re-parsing.
func (p *Processor) archive(pdfPath string, bill *extract.Bill) {
	name, err := bill.StatementName()
	if err != nil {
		return
	}
	target := filepath.Join(filepath.Dir(pdfPath), name)
	if target == pdfPath {
		return
	}
	if err := os.Rename(pdfPath, target); err != nil {
		p.Logger.Warn("pipeline.archive.failed", "file", pdfPath, "err", err)
		return
	}
	p.Logger.Info("pipeline.archive.ok", "file", name)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryanfobel/utility-bill-scraper/internal/extract"
	"github.com/ryanfobel/utility-bill-scraper/internal/history"
	"github.com/ryanfobel/utility-bill-scraper/internal/ingest"
)

// stubRunner plays the PDF-to-HTML converter: it writes canned HTML to the
// output path named by the -o argument. PDFs without canned HTML fail the
// way a crashed converter would.
type stubRunner struct {
	html  map[string]string // pdf base name -> html body
	calls int
}

func (r *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	r.calls++
	htmlPath := strings.TrimPrefix(args[0], "-o")
	body, ok := r.html[filepath.Base(args[1])]
	if !ok {
		return nil, []byte("crash"), errors.New("exit status 1")
	}
	if err := os.WriteFile(htmlPath, []byte(body), 0o644); err != nil {
		return nil, nil, err
	}
	return nil, nil, nil
}

func statementDiv(left, top, width, height int, lines ...string) string {
	return fmt.Sprintf(
		`<div style="position:absolute; left:%dpx; top:%dpx; width:%dpx; height:%dpx;"><span>%s</span></div>`,
		left, top, width, height, strings.Join(lines, "<br>"))
}

// kitchenerHTML is a minimal parseable Kitchener Utilities statement.
func kitchenerHTML() string {
	return "<html><body>" + strings.Join([]string{
		statementDiv(10, 20, 200, 12, "Supplier: KITCHENER UTILITIES"),
		statementDiv(30, 60, 120, 40, "Your Account Summary", "Issue Date", "Total Due"),
		statementDiv(400, 60, 80, 12, "SEQ-ID 0012345"),
		statementDiv(30, 80, 120, 28, "JAN 15 2022", "123.45"),
	}, "\n") + "</body></html>"
}

func unknownHTML() string {
	return "<html><body>" +
		statementDiv(10, 20, 200, 12, "Supplier: SOMEWHERE ELSE") +
		"</body></html>"
}

func writeStatement(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestProcessor(t *testing.T, runner Runner, dataDir string) *Processor {
	t.Helper()
	conv := NewConverter("pdf2txt.py", time.Second, runner)
	return NewProcessor(nil, conv, extract.DefaultRegistry(), history.NewCSVStore(dataDir), true)
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	const supplier = "Kitchener Utilities"

	stmtDir := filepath.Join(dataDir, supplier, "statements")
	if err := os.MkdirAll(stmtDir, 0o755); err != nil {
		t.Fatal(err)
	}
	good := writeStatement(t, stmtDir, "download123.pdf")
	other := writeStatement(t, stmtDir, "other.pdf")
	bad := writeStatement(t, stmtDir, "bad.pdf")

	runner := &stubRunner{html: map[string]string{
		"download123.pdf": kitchenerHTML(),
		"other.pdf":       unknownHTML(),
	}}
	proc := newTestProcessor(t, runner, dataDir)

	table, res, err := proc.ProcessBatch(ctx, supplier, []string{good, other, bad})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if res.Scanned != 3 || res.Parsed != 1 || res.Appended != 1 || res.Unrecognized != 1 || res.Failed != 1 {
		t.Errorf("batch result wrong: %+v", res)
	}
	if !table.Has("2022-01-15") {
		t.Errorf("history missing the parsed bill: %v", table.Dates())
	}
	if table.Rows[0].Values["Total"] != 123.45 {
		t.Errorf("Total = %v", table.Rows[0].Values["Total"])
	}

	// The parsed statement is archived under its canonical name.
	canonical := filepath.Join(stmtDir, "2022-01-15 - Kitchener Utilities - $123.45.pdf")
	if _, err := os.Stat(canonical); err != nil {
		t.Fatalf("statement not archived: %v", err)
	}
	if _, err := os.Stat(good); !os.IsNotExist(err) {
		t.Errorf("original download name should be gone")
	}
}

func TestProcessBatchSkipsCachedStatements(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	const supplier = "Kitchener Utilities"

	stmtDir := filepath.Join(dataDir, supplier, "statements")
	if err := os.MkdirAll(stmtDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pdf := writeStatement(t, stmtDir, "download123.pdf")

	runner := &stubRunner{html: map[string]string{"download123.pdf": kitchenerHTML()}}
	proc := newTestProcessor(t, runner, dataDir)

	if _, _, err := proc.ProcessBatch(ctx, supplier, []string{pdf}); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("converter ran %d times, want 1", runner.calls)
	}

	// Rerun over the archived file: the filename-encoded date short-circuits
	// before any conversion.
	files, err := ingest.ListStatements(dataDir, supplier)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d statements, want 1", len(files))
	}

	_, res, err := proc.ProcessBatch(ctx, supplier, files)
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}
	if res.Cached != 1 || res.Appended != 0 {
		t.Errorf("rerun result wrong: %+v", res)
	}
	if runner.calls != 1 {
		t.Errorf("cached rerun should not convert, calls=%d", runner.calls)
	}
}

func TestConverterFailure(t *testing.T) {
	runner := &stubRunner{html: map[string]string{}}
	conv := NewConverter("pdf2txt.py", time.Second, runner)

	if _, err := conv.PDFToHTML(context.Background(), filepath.Join(t.TempDir(), "x.pdf")); err == nil {
		t.Fatal("PDFToHTML should surface converter failure")
	}
}

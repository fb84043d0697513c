package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Converter shells out to the PDF-to-HTML tool (pdf2txt.py from pdfminer,
// or anything argument-compatible) that produces the positioned-HTML
// rendering extraction runs on.
type Converter struct {
	Command string
	Timeout time.Duration
	Runner  Runner
}

func NewConverter(command string, timeout time.Duration, runner Runner) *Converter {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Converter{Command: command, Timeout: timeout, Runner: runner}
}

// PDFToHTML converts one statement and returns the HTML path, which the
// caller owns (and should remove when done).
func (c *Converter) PDFToHTML(ctx context.Context, pdfPath string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	htmlPath := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
	_, stderr, err := c.Runner.Run(ctx, c.Command, "-o"+htmlPath, pdfPath)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w (%s)", filepath.Base(pdfPath), err, truncate(string(stderr), 256))
	}
	if _, err := os.Stat(htmlPath); err != nil {
		return "", fmt.Errorf("converter produced no output for %s: %w", filepath.Base(pdfPath), err)
	}
	return htmlPath, nil
}

// Package ingest discovers downloaded statement PDFs on disk.
package ingest

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// statementDateRe matches the leading date of a canonically named
// statement ("2022-01-15 - Kitchener Utilities - $123.45.pdf").
var statementDateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) - `)

// ListStatements walks <root>/<supplier>/statements and returns every PDF,
// skipping hidden files and directories.
func ListStatements(root, supplier string) ([]string, error) {
	dir := filepath.Join(root, supplier, "statements")

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// A missing statements dir just means nothing to parse yet.
			if path == dir {
				return filepath.SkipAll
			}
			return walkErr
		}
		if isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// StatementDate extracts the date prefix from a canonically named
// statement file. Freshly downloaded statements have portal-assigned names
// and report false.
func StatementDate(path string) (string, bool) {
	m := statementDateRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

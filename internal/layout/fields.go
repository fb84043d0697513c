package layout

import (
	"strconv"
	"strings"
)

// Field holds one normalized text value from a bill fragment: either a
// numeric value or a cleaned string. Downstream arithmetic (consumption
// summing, charge totals) depends on the numeric classification, so it must
// stay exact: a value is numeric iff the text minus at most one decimal
// point is all digits.
type Field struct {
	Text    string
	Number  float64
	Numeric bool
}

// String renders the field the way it appeared on the bill (post-cleanup).
func (f Field) String() string {
	return f.Text
}

// IsNumber reports whether s consists solely of digits after removing at
// most one decimal point. Thousands separators disqualify a value on
// purpose: the bill templates never use them in machine-read columns.
func IsNumber(s string) bool {
	s = strings.Replace(s, ".", "", 1)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeField cleans a single raw text value: surrounding whitespace and
// one trailing colon are stripped, and purely numeric text is coerced.
func NormalizeField(raw string) Field {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ":")
	if IsNumber(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return Field{Text: s, Number: n, Numeric: true}
		}
	}
	return Field{Text: s}
}

// NormalizeFields cleans a sequence of raw text values. Values carrying a
// line-break marker are dropped, as are values that are empty after
// trimming.
func NormalizeFields(raw []string) []Field {
	fields := make([]Field, 0, len(raw))
	for _, r := range raw {
		if strings.Contains(r, "<br") || strings.Contains(r, "</br>") {
			continue
		}
		f := NormalizeField(r)
		if f.Text == "" {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// Package extract turns a positionally-indexed bill document into typed
// fields. Each supplier gets its own extractor holding the positional
// heuristics tuned for that supplier's statement template; a registry maps
// supplier signatures to extractors so classification is a table lookup,
// not string-based dynamic dispatch.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// ConsumptionItem is one consumption line item (field name -> value). A
// statement spanning a rate change carries several items per category;
// they are summed, never averaged or overwritten.
type ConsumptionItem map[string]layout.Field

// Bill is the typed output of one statement extraction. Extraction is
// tolerant of missing sub-fields: an absent anchor leaves its group empty
// and the rest of the bill still parses.
type Bill struct {
	Supplier    string
	Date        string // ISO 8601 issue/billing date
	Summary     map[string]layout.Field
	Consumption map[string][]ConsumptionItem
	Charges     map[string]layout.Field
	Rates       map[string]float64
	// Columns is the fixed history schema for this supplier, Date first.
	Columns []string
}

// Total resolves the amount due. Pre-authorized withdrawal and direct
// billing are mutually exclusive renditions of the same amount, so both map
// to the total.
func (b *Bill) Total() (float64, error) {
	for _, key := range []string{"Pre-authorized Withdrawal", "Total Due", "Amount Due", "Total"} {
		if f, ok := b.Summary[key]; ok {
			if f.Numeric {
				return f.Number, nil
			}
			if n, err := parseAmount(f.Text); err == nil {
				return n, nil
			}
		}
	}
	return 0, common.MissingFieldError("amount due")
}

// StatementName is the canonical archival filename for the source PDF,
// used downstream for dedup and audit.
func (b *Bill) StatementName() (string, error) {
	if b.Date == "" {
		return "", common.MissingFieldError("billing date")
	}
	total, err := b.Total()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s - %s - $%.2f.pdf", b.Date, b.Supplier, total), nil
}

// Extractor is one supplier's extraction ruleset.
type Extractor interface {
	// Name is the canonical supplier identifier.
	Name() string
	// Signature is the substring that identifies this supplier's
	// statement template.
	Signature() string
	// Extract parses one statement document.
	Extract(doc *layout.Document) (*Bill, error)
}

// Registry maps supplier signatures to extractors.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry preloaded with the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry covers all known suppliers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewKitchenerUtilities(),
		NewKitchenerWilmotHydro(),
		NewEnbridge(),
	)
}

// Register appends an extractor. Order matters: classification is
// first-match-wins.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// ByName returns the extractor for a supplier identifier.
func (r *Registry) ByName(name string) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Classify scans the document's fragments for a known supplier signature.
// Best-effort string matching: a supplier that redesigns its template
// without changing the signature string will still classify here and fail
// (or misparse) later, which is accepted.
func (r *Registry) Classify(doc *layout.Document) (Extractor, error) {
	for _, e := range r.extractors {
		if _, ok := doc.Find(e.Signature()); ok {
			return e, nil
		}
	}
	return nil, common.ErrUnrecognizedBillType
}

var billDateLayouts = []string{
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
}

// ParseBillDate converts the date renditions found on statements
// ("JAN 15 2022", "March 2, 2021") to ISO 8601.
func ParseBillDate(s string) (string, error) {
	words := strings.Fields(strings.ReplaceAll(s, ",", ", "))
	if len(words) > 0 {
		words[0] = titleWord(words[0])
	}
	cleaned := strings.Join(words, " ")
	cleaned = strings.ReplaceAll(cleaned, " ,", ",")
	for _, l := range billDateLayouts {
		if t, err := time.Parse(l, cleaned); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("%w: unparseable bill date %q", common.ErrMissingRequiredField, s)
}

var amountRe = regexp.MustCompile(`\d+\.\d+`)

// parseAmount reads a currency amount, tolerating a "$" prefix and the
// "CR" credit suffix (which negates the value).
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	negate := false
	if i := strings.Index(s, "CR"); i >= 0 {
		negate = true
		s = s[:i]
	}
	m := amountRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no amount in %q", s)
	}
	f := layout.NormalizeField(m)
	if !f.Numeric {
		return 0, fmt.Errorf("no amount in %q", s)
	}
	if negate {
		return -f.Number, nil
	}
	return f.Number, nil
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

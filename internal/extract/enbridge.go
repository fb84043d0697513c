package extract

import (
	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// enbridgeSummaryFields are the gas-summary column names in template
// order. The template renders the names as graphics, so they cannot be
// discovered from the text layer and are fixed here.
var enbridgeSummaryFields = []string{
	"Meter Number",
	"Estimated Reading",
	"Previous Reading",
	"Gas used this period",
	"PEF Value",
	"Adjusted volume",
}

// Enbridge parses the gas-only statement. Structurally it is the combined
// utility's layout with a single consumption category.
type Enbridge struct{}

func NewEnbridge() *Enbridge { return &Enbridge{} }

func (*Enbridge) Name() string      { return "Enbridge" }
func (*Enbridge) Signature() string { return "Enbridge Gas Distribution Inc." }

func (*Enbridge) Columns() []string {
	return []string{"Date", "Total", "Gas Consumption"}
}

func (e *Enbridge) Extract(doc *layout.Document) (*Bill, error) {
	bill := &Bill{
		Supplier:    e.Name(),
		Summary:     map[string]layout.Field{},
		Consumption: map[string][]ConsumptionItem{},
		Rates:       map[string]float64{},
		Columns:     e.Columns(),
	}

	// Gas summary row: the values fragment follows the section anchor,
	// zipped against the fixed field names.
	if anchor, ok := doc.Find("Gas used this period"); ok {
		if values, ok := doc.Next(anchor, 1); ok {
			for i, name := range enbridgeSummaryFields {
				if i >= len(values.Fields) {
					break
				}
				bill.Summary[name] = values.Fields[i]
			}
		}
	}
	if used, ok := bill.Summary["Gas used this period"]; ok && used.Numeric {
		bill.Consumption["Gas"] = []ConsumptionItem{{"Total Consumption": used}}
	}

	if amount, ok := e.amountDue(doc); ok {
		bill.Summary["Amount Due"] = layout.NormalizeField(amount)
	}

	date, ok := e.billDate(doc)
	if !ok {
		return nil, common.MissingFieldError("bill date")
	}
	bill.Date = date
	return bill, nil
}

// billDate reads the date value inside the "Bill Date" fragment itself:
// the label and the value share one positioned div.
func (e *Enbridge) billDate(doc *layout.Document) (string, bool) {
	anchor, ok := doc.Find("Bill Date")
	if !ok || len(anchor.Fields) < 2 {
		return "", false
	}
	iso, err := ParseBillDate(anchor.Fields[1].Text)
	if err != nil {
		return "", false
	}
	return iso, true
}

// amountDue finds the fragment on the same visual line as (and right of)
// the last "Amount due now" label. The vertical test accepts any overlap
// with the label's band since the amount renders in a larger typeface.
func (e *Enbridge) amountDue(doc *layout.Document) (string, bool) {
	labels := doc.FindAll("Amount due now")
	if len(labels) == 0 {
		return "", false
	}
	anchor := labels[len(labels)-1]

	value, ok := doc.FindFunc(func(f layout.Fragment) bool {
		if f.Left <= anchor.Right() {
			return false
		}
		topInside := f.Top >= anchor.Top && f.Top <= anchor.Bottom()
		bottomInside := f.Bottom() >= anchor.Top && f.Bottom() <= anchor.Bottom()
		return topInside || bottomInside
	})
	if !ok || len(value.Fields) == 0 {
		return "", false
	}

	// The amount renders with a currency prefix ("$123.45").
	text := value.Fields[0].Text
	if len(text) < 2 {
		return "", false
	}
	return text[1:], true
}

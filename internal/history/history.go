// Package history maintains the per-supplier bill history: a date-indexed
// table with a fixed column schema, grown append-only from extracted bills
// and deduplicated by billing date.
package history

import (
	"sort"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/extract"
)

// Row is one history entry, keyed by the bill's ISO 8601 issue/billing
// date. All non-date columns are numeric.
type Row struct {
	Date   string
	Values map[string]float64
}

// Table is the ordered-by-date history for one supplier. At most one row
// exists per date; duplicate submissions are skipped, never merged or
// overwritten.
type Table struct {
	Supplier string
	Columns  []string
	Rows     []Row
}

// New returns an empty history table. Columns must start with "Date".
func New(supplier string, columns []string) *Table {
	return &Table{Supplier: supplier, Columns: columns}
}

// Has reports whether a row for the date already exists.
func (t *Table) Has(date string) bool {
	for _, r := range t.Rows {
		if r.Date == date {
			return true
		}
	}
	return false
}

// Append inserts the row unless its date is already present, and keeps the
// table sorted ascending by date. Returns whether the row was added.
func (t *Table) Append(r Row) bool {
	if r.Date == "" || t.Has(r.Date) {
		return false
	}
	t.Rows = append(t.Rows, r)
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Date < t.Rows[j].Date })
	return true
}

// Dates returns the row dates in table order.
func (t *Table) Dates() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Date
	}
	return out
}

// RowFromBill flattens an extracted bill into a history row:
//   - the amount due (pre-authorized or direct) becomes Total;
//   - every consumption category folds into "<Category> Consumption" by
//     summing its line items' Total Consumption values (rate-change bills
//     split a period into several items that must add up);
//   - a grand Total Consumption across categories and the per-tier rates
//     come along when present.
func RowFromBill(bill *extract.Bill) (Row, error) {
	if bill.Date == "" {
		return Row{}, common.MissingFieldError("billing date")
	}
	total, err := bill.Total()
	if err != nil {
		return Row{}, err
	}

	values := map[string]float64{"Total": total}
	grand := 0.0
	for category, items := range bill.Consumption {
		sum := 0.0
		for _, item := range items {
			if f, ok := item["Total Consumption"]; ok && f.Numeric {
				sum += f.Number
			}
		}
		values[category+" Consumption"] = sum
		grand += sum
	}
	if len(bill.Consumption) > 1 {
		values["Total Consumption"] = grand
	}
	for name, rate := range bill.Rates {
		values[name] = rate
	}

	return Row{Date: bill.Date, Values: values}, nil
}

// AppendBill folds a bill into the table. Appending the same bill twice is
// a no-op after the first call.
func AppendBill(t *Table, bill *extract.Bill) (bool, error) {
	row, err := RowFromBill(bill)
	if err != nil {
		return false, err
	}
	if len(t.Columns) == 0 {
		t.Columns = bill.Columns
	}
	return t.Append(row), nil
}

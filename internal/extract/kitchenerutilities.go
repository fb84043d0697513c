package extract

import (
	"strings"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// KitchenerUtilities parses the combined gas + water statement. The
// template lays every field group out as parallel aligned rows, so each
// heuristic is: find an anchor by text, then read co-located or adjacent
// fragments as the values.
type KitchenerUtilities struct{}

func NewKitchenerUtilities() *KitchenerUtilities { return &KitchenerUtilities{} }

func (*KitchenerUtilities) Name() string      { return "Kitchener Utilities" }
func (*KitchenerUtilities) Signature() string { return "Supplier: KITCHENER UTILITIES" }

// Columns is the fixed history schema for this supplier.
func (*KitchenerUtilities) Columns() []string {
	return []string{"Date", "Total", "Water Consumption", "Gas Consumption"}
}

func (k *KitchenerUtilities) Extract(doc *layout.Document) (*Bill, error) {
	summary, err := k.summary(doc)
	if err != nil {
		return nil, err
	}

	bill := &Bill{
		Supplier: k.Name(),
		Summary:  summary,
		Consumption: map[string][]ConsumptionItem{
			"Water": k.waterConsumption(doc),
			"Gas":   k.gasConsumption(doc),
		},
		Charges: k.gasCharges(doc),
		Rates:   map[string]float64{},
		Columns: k.Columns(),
	}

	for name, rate := range k.gasRates(doc) {
		bill.Rates[name] = rate
	}
	if bill.Charges == nil {
		bill.Charges = map[string]layout.Field{}
	}
	for service, line := range k.waterSewerBreakdown(doc) {
		if f, ok := line["Rate"]; ok && f.Numeric {
			bill.Rates[service+" Rate"] = f.Number
		}
		if f, ok := line["Charges"]; ok {
			bill.Charges[service+" Charges"] = f
		}
	}

	if f, ok := summary["Issue Date"]; ok {
		if date, err := ParseBillDate(f.Text); err == nil {
			bill.Date = date
		}
	}
	if bill.Date == "" {
		return nil, common.MissingFieldError("issue date")
	}
	return bill, nil
}

// summary reads the account-summary block: the section header fragment
// carries the field names (first sub-field is the header label itself) and
// the fragment after the SEQ-ID marker carries the paired values.
func (k *KitchenerUtilities) summary(doc *layout.Document) (map[string]layout.Field, error) {
	header, ok := doc.Find("Your Account Summary")
	if !ok {
		return nil, common.MissingFieldError("account summary header")
	}
	seq, ok := doc.Find("SEQ-ID")
	if !ok {
		return nil, common.MissingFieldError("account summary values")
	}
	values, ok := doc.Next(seq, 1)
	if !ok {
		return nil, common.MissingFieldError("account summary values")
	}

	names := header.Fields
	if len(names) > 0 {
		names = names[1:]
	}
	summary := make(map[string]layout.Field, len(names)+2)
	for i, name := range names {
		if i >= len(values.Fields) {
			break
		}
		summary[name.Text] = values.Fields[i]
	}

	// Per-service charge totals live on their own label rows.
	if f, ok := k.chargeAtLabelRow(doc, "Water charges"); ok {
		summary["Water Charges"] = f
	}
	if f, ok := k.chargeAtLabelRow(doc, "Gas charges"); ok {
		summary["Gas Charges"] = f
	}
	return summary, nil
}

// chargeAtLabelRow finds the label's row and takes the first numeric field
// of the second fragment sharing its top coordinate (the first is the label
// itself).
func (k *KitchenerUtilities) chargeAtLabelRow(doc *layout.Document, label string) (layout.Field, bool) {
	anchor, ok := doc.Find(label)
	if !ok {
		return layout.Field{}, false
	}
	row := doc.FragmentsAtTop(anchor.Top)
	if len(row) < 2 {
		return layout.Field{}, false
	}
	for _, f := range row[1].Fields {
		if f.Numeric {
			return f, true
		}
	}
	return layout.Field{}, false
}

// waterConsumption finds the consumption tables with exactly 3 sub-fields.
// Gas tables carry a fourth "Billing Conversion Multiplier" column, which
// is how the two services are told apart.
func (k *KitchenerUtilities) waterConsumption(doc *layout.Document) []ConsumptionItem {
	return k.consumptionTables(doc, func(n int) bool { return n == 3 })
}

func (k *KitchenerUtilities) gasConsumption(doc *layout.Document) []ConsumptionItem {
	return k.consumptionTables(doc, func(n int) bool { return n > 3 })
}

// consumptionTables gathers every "Total Consumption" table whose
// sub-field count matches, then zips the first row at the table's top
// coordinate (field names) against the third (values). The second row is
// units/rates and is discarded. More than one table per service is normal:
// a mid-cycle rate change splits the period.
func (k *KitchenerUtilities) consumptionTables(doc *layout.Document, matchFields func(int) bool) []ConsumptionItem {
	var items []ConsumptionItem
	for _, anchor := range doc.FindAll("Total Consumption") {
		if !matchFields(len(anchor.Fields)) {
			continue
		}
		rows := doc.FragmentsAtTop(anchor.Top)
		if len(rows) < 3 {
			continue
		}
		names, values := rows[0].Fields, rows[2].Fields
		item := make(ConsumptionItem, len(names))
		for i, name := range names {
			if i >= len(values) {
				break
			}
			item[name.Text] = values[i]
		}
		items = append(items, item)
	}
	return items
}

// gasCharges reads the charge line items inside the gas section's bounding
// band. Charges can be grouped in several blocks when the gas rate changes
// mid-period; only the block positioned after the "Charges" column header
// counts, and of those the last one, because it carries the cumulative
// figures including the fixed delivery charge.
func (k *KitchenerUtilities) gasCharges(doc *layout.Document) map[string]layout.Field {
	section, ok := doc.Find("GAS")
	if !ok {
		return nil
	}
	chargesLabel, ok := doc.Find("Gas charges")
	if !ok {
		return nil
	}

	tbl := layout.NewTable(doc.FragmentsWithin(section.Top, chargesLabel.Top, -1)).SortByPosition()

	header, ok := tbl.First(func(r layout.TableRow) bool {
		return len(r.Fields) == 1 && r.Fields[0].Text == "Charges"
	})
	if !ok {
		return nil
	}
	amounts, ok := tbl.FilterLeftAfter(header.Left).Last(func(layout.TableRow) bool { return true })
	if !ok {
		return nil
	}
	desc, ok := tbl.Last(func(r layout.TableRow) bool {
		return r.HasFieldContaining(" days")
	})
	if !ok || len(desc.Fields) < 2 {
		return nil
	}

	// Zip the tail of the description row against the amounts: the
	// description row can carry extra leading fields.
	names := desc.Fields[1:]
	if len(names) > len(amounts.Fields) {
		names = names[len(names)-len(amounts.Fields):]
	}
	charges := make(map[string]layout.Field, len(names))
	for i, name := range names {
		charges[name.Text] = amounts.Fields[i]
	}
	return charges
}

// gasRates reads the per-unit gas rates from the rate table anchored at the
// fixed delivery charge row; the values sit a fixed three fragments later.
// HST and fixed-charge entries have no per-unit rate and are skipped.
func (k *KitchenerUtilities) gasRates(doc *layout.Document) map[string]float64 {
	anchor, ok := doc.Find("Gas Fixed Delivery Charge")
	if !ok {
		return nil
	}
	values, ok := doc.Next(anchor, 3)
	if !ok {
		return nil
	}

	names := anchor.Fields
	if len(names) > 0 {
		names = names[1:]
	}
	rates := make(map[string]float64)
	i := 0
	for _, name := range names {
		if strings.Contains(name.Text, "HST") || strings.Contains(name.Text, "Fixed") {
			continue
		}
		if i >= len(values.Fields) {
			break
		}
		if values.Fields[i].Numeric {
			rates[name.Text+" Rate"] = values.Fields[i].Number
		}
		i++
	}
	return rates
}

// waterSewerBreakdown reads the water section's per-service table. The
// anchor is the "Consumption" column header (not a "Total Consumption"
// table); service names, consumption, rates and charges sit at fixed
// offsets after it.
func (k *KitchenerUtilities) waterSewerBreakdown(doc *layout.Document) map[string]map[string]layout.Field {
	anchor, ok := doc.FindFunc(func(f layout.Fragment) bool {
		return f.ContainsText("Consumption") && !f.ContainsText("Total Consumption")
	})
	if !ok {
		return nil
	}
	types, ok := doc.Next(anchor, 1)
	if !ok || len(types.Fields) < 2 {
		return nil
	}
	consumption, okC := doc.Next(anchor, 2)
	rates, okR := doc.Next(anchor, 4)
	charges, okCh := doc.Next(anchor, 5)
	if !okC || !okR || !okCh {
		return nil
	}

	// The first field is the time period, not a service name.
	names := types.Fields[1:]
	out := make(map[string]map[string]layout.Field, len(names))
	for i, name := range names {
		line := map[string]layout.Field{}
		if i < len(consumption.Fields) {
			line["Consumption"] = consumption.Fields[i]
		}
		if i < len(rates.Fields) {
			line["Rate"] = rates.Fields[i]
		}
		if i < len(charges.Fields) {
			line["Charges"] = charges.Fields[i]
		}
		out[name.Text] = line
	}
	return out
}


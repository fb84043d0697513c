package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// chargesBlockRe matches the time-of-use charges block the current
// statement template renders as one combined text run. A statement that
// spans a rate change carries several such blocks, one per rate period.
var chargesBlockRe = regexp.MustCompile(`(?s)(?:(?:[a-zA-Z]+\s+\d+,\s+\d{4})\s+to\s+(?:[a-zA-Z]+\s+\d+,\s+\d{4}).+?)?` +
	`Off-Peak:\s+(\d+\.\d+)\s+kWh\s+@\s+\$(\d+\.\d+).+?` +
	`Mid-Peak:\s+(\d+\.\d+)\s+kWh\s+@\s+\$(\d+\.\d+).+?` +
	`On-Peak:\s+(\d+\.\d+)\s+kWh\s+@\s+\$(\d+\.\d+)`)

var dateTripletRe = regexp.MustCompile(`([A-Za-z]+)\s+(\d+),?\s+(\d+)`)

// tierUsage is one parsed time-of-use charges block.
type tierUsage struct {
	offUse, midUse, onUse    float64
	offRate, midRate, onRate float64
}

// KitchenerWilmotHydro parses the electricity statement. The supplier
// redesigned its template in 2021-10, so every field heuristic is an
// ordered list of generation strategies: the current-template one first,
// then the legacy positional one. Each strategy reports explicitly whether
// its anchors were present.
type KitchenerWilmotHydro struct{}

func NewKitchenerWilmotHydro() *KitchenerWilmotHydro { return &KitchenerWilmotHydro{} }

func (*KitchenerWilmotHydro) Name() string      { return "Kitchener-Wilmot Hydro" }
func (*KitchenerWilmotHydro) Signature() string { return "KITCHENER-WILMOT HYDRO INC" }

func (*KitchenerWilmotHydro) Columns() []string {
	return []string{
		"Date", "Total",
		"Off Peak Consumption", "Mid Peak Consumption", "On Peak Consumption",
		"Total Consumption",
		"Off Peak Rate", "Mid Peak Rate", "On Peak Rate",
	}
}

func (h *KitchenerWilmotHydro) Extract(doc *layout.Document) (*Bill, error) {
	date, ok := tryDate(doc, h.billingDate, h.billingDateLegacy)
	if !ok {
		return nil, common.MissingFieldError("billing date")
	}
	amount, ok := tryAmount(doc, h.amountDue, h.amountDueLegacy)
	if !ok {
		return nil, common.MissingFieldError("amount due")
	}

	bill := &Bill{
		Supplier: h.Name(),
		Date:     date,
		Summary: map[string]layout.Field{
			"Total Due": {Text: strconv.FormatFloat(amount, 'f', 2, 64), Number: amount, Numeric: true},
		},
		Consumption: map[string][]ConsumptionItem{},
		Rates:       map[string]float64{},
		Columns:     h.Columns(),
	}

	if use, ok := tryTiers(doc, h.consumption, h.consumptionLegacy); ok {
		for tier, kwh := range use {
			bill.Consumption[tier] = []ConsumptionItem{
				{"Total Consumption": layout.NormalizeField(strconv.FormatFloat(kwh, 'f', -1, 64))},
			}
		}
	}
	if rates, ok := tryTiers(doc, h.rates, h.ratesLegacy); ok {
		for tier, rate := range rates {
			bill.Rates[tier+" Rate"] = rate
		}
	}
	return bill, nil
}

func tryDate(doc *layout.Document, strategies ...func(*layout.Document) (string, bool)) (string, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	return "", false
}

func tryAmount(doc *layout.Document, strategies ...func(*layout.Document) (float64, bool)) (float64, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	return 0, false
}

func tryTiers(doc *layout.Document, strategies ...func(*layout.Document) (map[string]float64, bool)) (map[string]float64, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	return nil, false
}

// chargesBlocks parses every time-of-use charges block on the statement.
func (h *KitchenerWilmotHydro) chargesBlocks(doc *layout.Document) []tierUsage {
	var blocks []tierUsage
	for _, f := range doc.Fragments {
		for _, m := range chargesBlockRe.FindAllStringSubmatch(f.Text, -1) {
			blocks = append(blocks, tierUsage{
				offUse:  mustFloat(m[1]),
				offRate: mustFloat(m[2]),
				midUse:  mustFloat(m[3]),
				midRate: mustFloat(m[4]),
				onUse:   mustFloat(m[5]),
				onRate:  mustFloat(m[6]),
			})
		}
	}
	return blocks
}

// consumption sums per-tier kWh across all charge blocks. Rate-change
// statements carry one block per rate period and the periods add up.
func (h *KitchenerWilmotHydro) consumption(doc *layout.Document) (map[string]float64, bool) {
	blocks := h.chargesBlocks(doc)
	if len(blocks) == 0 {
		return nil, false
	}
	use := map[string]float64{"Off Peak": 0, "Mid Peak": 0, "On Peak": 0}
	for _, b := range blocks {
		use["Off Peak"] += b.offUse
		use["Mid Peak"] += b.midUse
		use["On Peak"] += b.onUse
	}
	return use, true
}

// consumptionLegacy handles the pre-2021-10 template, which renders each
// tier as "NNN.N kWh Off Peak" style fields. Tier entries repeat on
// rate-change statements and are summed.
func (h *KitchenerWilmotHydro) consumptionLegacy(doc *layout.Document) (map[string]float64, bool) {
	markers := map[string]string{
		"Off Peak": "kWh Off Peak",
		"Mid Peak": "kWh Mid Peak",
		"On Peak":  "kWh On Peak",
	}

	use := map[string]float64{"Off Peak": 0, "Mid Peak": 0, "On Peak": 0}
	found := false
	for _, frag := range doc.Fragments {
		for _, field := range frag.Fields {
			if field.Numeric {
				continue
			}
			for tier, marker := range markers {
				idx := strings.Index(field.Text, marker)
				if idx <= 0 {
					continue
				}
				kwh := layout.NormalizeField(field.Text[:idx])
				if kwh.Numeric {
					use[tier] += kwh.Number
					found = true
				}
			}
		}
	}
	if !found {
		return nil, false
	}
	return use, true
}

// rates takes the per-tier rates from the first charge block; the opening
// rate period is the one the statement quotes.
func (h *KitchenerWilmotHydro) rates(doc *layout.Document) (map[string]float64, bool) {
	blocks := h.chargesBlocks(doc)
	if len(blocks) == 0 {
		return nil, false
	}
	return map[string]float64{
		"Off Peak": blocks[0].offRate,
		"Mid Peak": blocks[0].midRate,
		"On Peak":  blocks[0].onRate,
	}, true
}

// ratesLegacy finds the "at $N.NNN" rate row sharing the consumption row's
// top coordinate. The legacy template lists the rates in off/on/mid order.
func (h *KitchenerWilmotHydro) ratesLegacy(doc *layout.Document) (map[string]float64, bool) {
	anchor, ok := doc.Find("kWh Off Peak")
	if !ok {
		return nil, false
	}
	for _, frag := range doc.FragmentsAtTop(anchor.Top) {
		if len(frag.Fields) == 0 || !strings.HasPrefix(frag.Fields[0].Text, "at $") {
			continue
		}
		var rates []float64
		for _, f := range frag.Fields {
			v := layout.NormalizeField(strings.TrimPrefix(f.Text, "at $"))
			if v.Numeric {
				rates = append(rates, v.Number)
			}
		}
		if len(rates) < 3 {
			return nil, false
		}
		return map[string]float64{
			"Off Peak": rates[0],
			"On Peak":  rates[1],
			"Mid Peak": rates[2],
		}, true
	}
	return nil, false
}

// billingDate reads the invoice date from the fragment after the
// "Invoice Date" label.
func (h *KitchenerWilmotHydro) billingDate(doc *layout.Document) (string, bool) {
	anchor, ok := doc.Find("Invoice Date")
	if !ok {
		return "", false
	}
	value, ok := doc.Next(anchor, 1)
	if !ok || len(value.Fields) == 0 {
		return "", false
	}
	return parseDateTriplet(value.Fields[0].Text)
}

// billingDateLegacy reads the pre-2021-10 layout: the date fragment sits
// two fragments after the "BILLING DATE" label.
func (h *KitchenerWilmotHydro) billingDateLegacy(doc *layout.Document) (string, bool) {
	anchor, ok := doc.Find("BILLING DATE")
	if !ok {
		return "", false
	}
	value, ok := doc.Next(anchor, 2)
	if !ok || len(value.Fields) == 0 {
		return "", false
	}
	return parseDateTriplet(value.Fields[0].Text)
}

func parseDateTriplet(s string) (string, bool) {
	m := dateTripletRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	iso, err := ParseBillDate(m[1] + " " + m[2] + " " + m[3])
	if err != nil {
		return "", false
	}
	return iso, true
}

// amountDue finds the "Amount Due" label (excluding the "Total Amount Due"
// summary line) whose following fragment carries the numeric amount.
func (h *KitchenerWilmotHydro) amountDue(doc *layout.Document) (float64, bool) {
	anchors := doc.FindAllFunc(func(f layout.Fragment) bool {
		return f.ContainsText("Amount Due") && !f.ContainsText("Total Amount Due")
	})
	for _, anchor := range anchors {
		value, ok := doc.Next(anchor, 1)
		if !ok {
			continue
		}
		if amount, err := parseAmount(value.Text); err == nil {
			return amount, true
		}
	}
	return 0, false
}

// amountDueLegacy reads the pre-2021-10 layout: the amount column sits in a
// fixed horizontal band (left 120..132); the amount belonging to the
// "New Charges" row is the candidate vertically closest to it. A trailing
// "CR" marks a credit and negates the amount.
func (h *KitchenerWilmotHydro) amountDueLegacy(doc *layout.Document) (float64, bool) {
	anchor, ok := doc.Find("New Charges")
	if !ok {
		return 0, false
	}
	candidates := doc.FindAllFunc(func(f layout.Fragment) bool {
		return f.Left >= 120 && f.Left <= 132
	})
	if len(candidates) == 0 {
		return 0, false
	}

	best, bestDist := candidates[0], -1
	for _, c := range candidates {
		dist := c.Top - anchor.Top
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	if len(best.Fields) == 0 {
		return 0, false
	}
	f := best.Fields[0]
	if f.Numeric {
		return f.Number, true
	}
	if amount, err := parseAmount(f.Text); err == nil {
		return amount, true
	}
	return 0, false
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

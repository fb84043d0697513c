package history

import (
	"math"
	"testing"

	"github.com/ryanfobel/utility-bill-scraper/internal/extract"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

func item(value string) extract.ConsumptionItem {
	return extract.ConsumptionItem{"Total Consumption": layout.NormalizeField(value)}
}

func sampleBill() *extract.Bill {
	return &extract.Bill{
		Supplier: "Kitchener Utilities",
		Date:     "2022-01-15",
		Summary: map[string]layout.Field{
			"Pre-authorized Withdrawal": layout.NormalizeField("123.45"),
		},
		Consumption: map[string][]extract.ConsumptionItem{
			"Water": {item("10.0"), item("5.5")},
			"Gas":   {item("40.2")},
		},
		Rates:   map[string]float64{"Gas Delivery Rate": 0.0897},
		Columns: []string{"Date", "Total", "Water Consumption", "Gas Consumption"},
	}
}

func TestAppendDedupAndSort(t *testing.T) {
	tbl := New("Kitchener Utilities", []string{"Date", "Total"})

	if !tbl.Append(Row{Date: "2022-02-15", Values: map[string]float64{"Total": 2}}) {
		t.Fatal("first append should add")
	}
	if !tbl.Append(Row{Date: "2022-01-15", Values: map[string]float64{"Total": 1}}) {
		t.Fatal("second append should add")
	}
	if tbl.Append(Row{Date: "2022-01-15", Values: map[string]float64{"Total": 99}}) {
		t.Fatal("duplicate date should be skipped, not merged")
	}
	if tbl.Append(Row{}) {
		t.Fatal("empty date should be rejected")
	}

	dates := tbl.Dates()
	if len(dates) != 2 || dates[0] != "2022-01-15" || dates[1] != "2022-02-15" {
		t.Errorf("rows not sorted ascending by date: %v", dates)
	}
	if tbl.Rows[0].Values["Total"] != 1 {
		t.Errorf("duplicate overwrote the original row: %+v", tbl.Rows[0])
	}
}

func TestRowFromBill(t *testing.T) {
	row, err := RowFromBill(sampleBill())
	if err != nil {
		t.Fatalf("RowFromBill failed: %v", err)
	}

	if row.Date != "2022-01-15" {
		t.Errorf("Date = %q", row.Date)
	}
	if row.Values["Total"] != 123.45 {
		t.Errorf("pre-authorized withdrawal should become Total: %v", row.Values["Total"])
	}
	if got := row.Values["Water Consumption"]; math.Abs(got-15.5) > 1e-9 {
		t.Errorf("Water Consumption = %v, want 15.5 (items summed)", got)
	}
	if got := row.Values["Gas Consumption"]; math.Abs(got-40.2) > 1e-9 {
		t.Errorf("Gas Consumption = %v", got)
	}
	if got := row.Values["Total Consumption"]; math.Abs(got-55.7) > 1e-9 {
		t.Errorf("grand Total Consumption = %v, want 55.7", got)
	}
	if row.Values["Gas Delivery Rate"] != 0.0897 {
		t.Errorf("rates not carried: %v", row.Values)
	}
}

func TestRowFromBillMissingDate(t *testing.T) {
	bill := sampleBill()
	bill.Date = ""
	if _, err := RowFromBill(bill); err == nil {
		t.Fatal("RowFromBill should fail without a date")
	}
}

func TestAppendBillIdempotent(t *testing.T) {
	tbl := New("Kitchener Utilities", nil)

	added, err := AppendBill(tbl, sampleBill())
	if err != nil || !added {
		t.Fatalf("first AppendBill = %v, %v", added, err)
	}
	if len(tbl.Columns) == 0 || tbl.Columns[0] != "Date" {
		t.Errorf("columns not taken from the bill: %v", tbl.Columns)
	}

	added, err = AppendBill(tbl, sampleBill())
	if err != nil {
		t.Fatalf("second AppendBill failed: %v", err)
	}
	if added || len(tbl.Rows) != 1 {
		t.Errorf("re-appending the same bill must be a no-op: added=%v rows=%d", added, len(tbl.Rows))
	}
}

func TestCarbonColumn(t *testing.T) {
	tbl := New("Kitchener Utilities", []string{"Date", "Gas Consumption"})
	tbl.Append(Row{Date: "2022-01-15", Values: map[string]float64{"Gas Consumption": 100}})
	tbl.Append(Row{Date: "2022-02-15", Values: map[string]float64{}})

	carbon := CarbonColumn(tbl)
	if len(carbon) != 2 {
		t.Fatalf("got %d entries, want 2", len(carbon))
	}
	// ~1.9 kgCO2 per cubic meter of natural gas.
	if carbon[0] < 180 || carbon[0] > 200 {
		t.Errorf("carbon[0] = %v, want ~190", carbon[0])
	}
	if carbon[1] != 0 {
		t.Errorf("rows without gas should emit 0, got %v", carbon[1])
	}
}

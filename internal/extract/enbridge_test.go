package extract

import "testing"

func TestEnbridgeExtract(t *testing.T) {
	doc := buildDoc(t,
		billDiv(10, 20, 200, 12, "Enbridge Gas Distribution Inc."),
		billDiv(30, 60, 120, 24, "Bill Date", "Jan 17, 2019"),
		billDiv(30, 200, 120, 12, "Gas used this period"),
		billDiv(30, 220, 120, 76, "12345", "1000", "900", "100", "0.9766", "97.66"),
		billDiv(400, 700, 80, 10, "Amount due now"),
		billDiv(500, 703, 60, 14, "$88.15"),
	)

	e, err := DefaultRegistry().Classify(doc)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	bill, err := e.Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if bill.Date != "2019-01-17" {
		t.Errorf("Date = %q, want 2019-01-17", bill.Date)
	}
	if total, err := bill.Total(); err != nil || total != 88.15 {
		t.Errorf("Total = %v, %v", total, err)
	}
	if f := bill.Summary["PEF Value"]; !f.Numeric || f.Number != 0.9766 {
		t.Errorf("PEF Value = %+v", f)
	}

	gas := bill.Consumption["Gas"]
	if len(gas) != 1 || gas[0]["Total Consumption"].Number != 100 {
		t.Fatalf("gas consumption wrong: %+v", gas)
	}
}

func TestEnbridgeMissingBillDate(t *testing.T) {
	doc := buildDoc(t,
		billDiv(10, 20, 200, 12, "Enbridge Gas Distribution Inc."),
		billDiv(400, 700, 80, 10, "Amount due now"),
		billDiv(500, 703, 60, 14, "$88.15"),
	)
	if _, err := NewEnbridge().Extract(doc); err == nil {
		t.Fatal("Extract should fail without a bill date")
	}
}

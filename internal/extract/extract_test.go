package extract

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/layout"
)

// billDiv renders one positioned div the way the PDF-to-HTML converter
// does, with <br> separating subfields.
func billDiv(left, top, width, height int, lines ...string) string {
	return fmt.Sprintf(
		`<div style="position:absolute; border: textbox 1px solid; writing-mode:lr-tb; left:%dpx; top:%dpx; width:%dpx; height:%dpx;"><span style="font-family: Helvetica; font-size:9px">%s</span></div>`,
		left, top, width, height, strings.Join(lines, "<br>"))
}

func buildDoc(t *testing.T, divs ...string) *layout.Document {
	t.Helper()
	html := "<html><body>" + strings.Join(divs, "\n") + "</body></html>"
	doc, err := layout.ParseDocument(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return doc
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseBillDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"JAN 15 2022", "2022-01-15"},
		{"Jan 17, 2019", "2019-01-17"},
		{"March 2, 2021", "2021-03-02"},
		{"OCT 15 2020", "2020-10-15"},
	}
	for _, tc := range cases {
		got, err := ParseBillDate(tc.in)
		if err != nil {
			t.Errorf("ParseBillDate(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseBillDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := ParseBillDate("not a date"); err == nil {
		t.Error("ParseBillDate should fail on garbage")
	}
}

func TestParseAmount(t *testing.T) {
	if v, err := parseAmount("$135.56"); err != nil || v != 135.56 {
		t.Errorf("parseAmount($135.56) = %v, %v", v, err)
	}
	if v, err := parseAmount("88.15 CR"); err != nil || v != -88.15 {
		t.Errorf("credit should negate: got %v, %v", v, err)
	}
	if _, err := parseAmount("see reverse"); err == nil {
		t.Error("parseAmount should fail without a numeric amount")
	}
}

func TestClassify(t *testing.T) {
	reg := DefaultRegistry()

	doc := buildDoc(t,
		billDiv(10, 20, 200, 12, "Enbridge Gas Distribution Inc."),
	)
	e, err := reg.Classify(doc)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if e.Name() != "Enbridge" {
		t.Errorf("classified as %q", e.Name())
	}

	doc = buildDoc(t,
		billDiv(10, 20, 200, 12, "Some Other Utility Co."),
	)
	if _, err := reg.Classify(doc); !errors.Is(err, common.ErrUnrecognizedBillType) {
		t.Errorf("want ErrUnrecognizedBillType, got %v", err)
	}
}

func TestRegistryByName(t *testing.T) {
	reg := DefaultRegistry()
	if _, ok := reg.ByName("Kitchener Utilities"); !ok {
		t.Error("Kitchener Utilities not registered")
	}
	if _, ok := reg.ByName("Unknown"); ok {
		t.Error("ByName should miss on unknown suppliers")
	}
}

func TestBillTotalPreAuthorized(t *testing.T) {
	bill := &Bill{
		Summary: map[string]layout.Field{
			"Pre-authorized Withdrawal": layout.NormalizeField("123.45"),
			"Total Due":                 layout.NormalizeField("999.99"),
		},
	}
	total, err := bill.Total()
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 123.45 {
		t.Errorf("pre-authorized withdrawal should win: got %v", total)
	}
}

func TestStatementName(t *testing.T) {
	bill := &Bill{
		Supplier: "Kitchener Utilities",
		Date:     "2022-01-15",
		Summary: map[string]layout.Field{
			"Total Due": layout.NormalizeField("123.45"),
		},
	}
	name, err := bill.StatementName()
	if err != nil {
		t.Fatalf("StatementName failed: %v", err)
	}
	want := "2022-01-15 - Kitchener Utilities - $123.45.pdf"
	if name != want {
		t.Errorf("got %q, want %q", name, want)
	}

	bill.Date = ""
	if _, err := bill.StatementName(); err == nil {
		t.Error("StatementName should fail without a date")
	}
}

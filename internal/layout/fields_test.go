package layout

import "testing"

func TestIsNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"123", true},
		{"12.50", true},
		{".5", true},
		{"", false},
		{"12.5.0", false},
		{"1,234", false},
		{"12a", false},
		{"-5", false},
		{"$12.50", false},
	}
	for _, tc := range cases {
		if got := IsNumber(tc.in); got != tc.want {
			t.Errorf("IsNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeField(t *testing.T) {
	f := NormalizeField("  12.50:  ")
	if !f.Numeric || f.Number != 12.5 || f.Text != "12.50" {
		t.Errorf("numeric coercion failed: %+v", f)
	}

	f = NormalizeField("Total Due:")
	if f.Numeric || f.Text != "Total Due" {
		t.Errorf("trailing colon not stripped: %+v", f)
	}

	// Only one trailing colon comes off; anything else stays verbatim.
	f = NormalizeField("3,  ")
	if f.Numeric || f.Text != "3," {
		t.Errorf("want untouched %q, got %+v", "3,", f)
	}
}

func TestNormalizeFields(t *testing.T) {
	fields := NormalizeFields([]string{"12.50:", "Total", "   ", "<br>", "40.2"})
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3: %+v", len(fields), fields)
	}
	if fields[0].Number != 12.5 || fields[1].Text != "Total" || fields[2].Number != 40.2 {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

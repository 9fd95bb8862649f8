package pgv2

import "testing"

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"7.3.2", Version{7, 3, 2}},
		{"9.6devel", Version{9, 6, 0}},
		{"15beta1", Version{15, 0, 0}},
		{"10.0", Version{10, 0, 0}},
	}
	for _, c := range cases {
		got, err := ParseVersion(c.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseVersion(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

// TestNumericVersionComparison is the regression test for the lexical-vs-
// numeric bug flagged in SPEC_FULL.md §9: "10.0" must compare greater than
// "7.3", unlike plain string comparison.
func TestNumericVersionComparison(t *testing.T) {
	v10, err := ParseVersion("10.0")
	if err != nil {
		t.Fatal(err)
	}
	if !v10.AtLeast(7, 3) {
		t.Errorf("10.0 should be >= 7.3 under numeric comparison")
	}
	if "10.0" >= "7.3" {
		t.Fatalf("test assumption broken: lexical comparison of these strings changed")
	}
}

func TestVersionCompare(t *testing.T) {
	a := Version{7, 3, 0}
	b := Version{7, 10, 0}
	if a.Compare(b) >= 0 {
		t.Errorf("7.3 should compare less than 7.10 numerically")
	}
}

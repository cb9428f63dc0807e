package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"-1.50", -1.5, true},
		{"+2", 2, true},
		{"1,23", 1.23, true},
		{" 2.50 ", 2.5, true},
		{"$1,234.56", 1234.56, true},
		{"-€12", -12, true},
		{"(45.00)", -45, true},
		{"0", 0, true},
		{"(-4)", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e5", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"-1,000", -1000, true},
		{"$1,234", 1234, true},
		{"2,000", 2000, true},
		{"1,234,567.89", 1234567.89, true},
		{"1.234,50", 1234.5, true},
		{"(1,200)", -1200, true},
		{"1,2345", 1.2345, true},
		{"12,34,5", 0, false},
		{"1,23.4", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:       "0.00",
		-50:     "-50.00",
		1234.5:  "1234.50",
		0.005:   "0.01",
		-12.345: "-12.35",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
	if got := FormatAmount(math.Inf(1)); got != "+Inf" {
		t.Fatalf("expected +Inf, got %q", got)
	}
}

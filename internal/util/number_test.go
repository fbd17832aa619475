package util

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "plain", input: "10", want: 10, ok: true},
		{name: "decimal dot", input: "1.5", want: 1.5, ok: true},
		{name: "decimal comma", input: "1,5", want: 1.5, ok: true},
		{name: "dollar", input: "$485.00", want: 485, ok: true},
		{name: "pound thousands", input: "£1,200", want: 1200, ok: true},
		{name: "thousand dot", input: "1.000", want: 1000, ok: true},
		{name: "mixed separators", input: "1,234.56", want: 1234.56, ok: true},
		{name: "negative", input: "-3.25", want: -3.25, ok: true},
		{name: "nbsp thousands", input: "1 000", want: 1000, ok: true},
		{name: "code is not a number", input: "ABC123", ok: false},
		{name: "empty", input: "  ", ok: false},
		{name: "range is not a number", input: "10-20", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	if v, ok := ParseBool("In Stock"); !ok || !v {
		t.Fatalf("in stock: %v %v", v, ok)
	}
	if v, ok := ParseBool("no"); !ok || v {
		t.Fatalf("no: %v %v", v, ok)
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Fatal("maybe should not parse")
	}
}

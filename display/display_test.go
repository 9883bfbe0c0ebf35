package display

import "testing"

func TestFormatFileSize(t *testing.T) {
	tcs := map[int64]string{
		-1:      "0 B",
		0:       "0 B",
		512:     "512 B",
		1024:    "1.0 KiB",
		5000000: "4.8 MiB",
	}
	for in, expected := range tcs {
		if got := FormatFileSize(in); got != expected {
			t.Fatalf("FormatFileSize(%d) expected: %q but got: %q", in, expected, got)
		}
	}
}

func TestCalculateReduction(t *testing.T) {
	tcs := map[int]int{1: 99, 30: 70, 80: 20, 100: 0, 150: 0, -10: 100}
	for in, expected := range tcs {
		if got := CalculateReduction(in); got != expected {
			t.Fatalf("CalculateReduction(%d) expected: %d but got: %d", in, expected, got)
		}
	}
}

func TestMeasuredReduction(t *testing.T) {
	type tc struct {
		original, compressed int64
		expected             float64
	}
	tcs := []tc{
		{0, 10, 0},
		{1000, 250, 75},
		{3, 2, 33.3},
		{100, 150, -50},
	}
	for _, tc := range tcs {
		if got := MeasuredReduction(tc.original, tc.compressed); got != tc.expected {
			t.Fatalf("MeasuredReduction(%d, %d) expected: %v but got: %v", tc.original, tc.compressed, tc.expected, got)
		}
	}
}

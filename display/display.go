// Package display holds pure helpers used to render compressor state.
package display

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatFileSize renders byte count with IEC units, e.g. "4.8 MiB".
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// CalculateReduction estimates size reduction percent from quality alone.
func CalculateReduction(quality int) int {
	r := 100 - quality
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// MeasuredReduction returns percent of bytes saved, rounded to one decimal.
// Negative when compressed is larger than original.
func MeasuredReduction(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	r := float64(original-compressed) / float64(original) * 100
	return math.Round(r*10) / 10
}

package utils

import (
	"math"
	"strconv"
)

// FormatFloat renders f with 6 significant digits, the way the copy-number column is written.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

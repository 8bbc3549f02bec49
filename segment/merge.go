package segment

import (
	"math"

	"github.com/uyouii/cnv-segment/cpd"
	"gonum.org/v1/gonum/mat"
)

// UndoBreaks makes one pass over adjacent segment pairs and drops every
// breakpoint whose two sides are not significantly different in any column.
// A column separates a pair when both sides hold at least MinDistinctValues
// distinct values and the mean difference exceeds scale times either side's
// standard deviation.
func UndoBreaks(m mat.Matrix, jumps []int, scale float64) []int {
	rows, cols := m.Dims()
	b := cpd.Boundaries(jumps, rows)
	k := len(b) - 2 // breakpoints
	if k <= 0 {
		return []int{}
	}

	stats := make([][]columnStats, k+1)
	for i := 0; i <= k; i++ {
		stats[i] = make([]columnStats, cols)
		for j := 0; j < cols; j++ {
			stats[i][j] = distinctStats(m, b[i]+1, b[i+1], j)
		}
	}

	res := []int{}
	for i := 0; i < k; i++ {
		if separates(stats[i], stats[i+1], scale) {
			res = append(res, b[i+1])
		}
	}
	return res
}

func separates(left, right []columnStats, scale float64) bool {
	for j := range left {
		l, r := left[j], right[j]
		if l.n < MinDistinctValues || r.n < MinDistinctValues {
			continue
		}
		diffMean := math.Abs(l.mean - r.mean)
		if diffMean > scale*l.sd || diffMean > scale*r.sd {
			return true
		}
	}
	return false
}

// UndoBreaksToFixedPoint repeats UndoBreaks until the breakpoint count stops
// shrinking.
func UndoBreaksToFixedPoint(m mat.Matrix, jumps []int, scale float64) []int {
	rows, _ := m.Dims()
	if rows == 0 {
		return []int{}
	}
	cur := cpd.Boundaries(jumps, rows)
	cur = cur[1 : len(cur)-1]
	for {
		next := UndoBreaks(m, cur, scale)
		if len(next) >= len(cur) {
			return next
		}
		cur = next
	}
}

package segment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// distinctValues returns column j of rows [first, last], keeping a value only
// when it differs from the one kept before it. Runs of carried-forward values
// therefore count once.
func distinctValues(m mat.Matrix, first, last, j int) []float64 {
	res := make([]float64, 0, last-first+1)
	for i := first; i <= last; i++ {
		v := m.At(i, j)
		if i == first || v != res[len(res)-1] {
			res = append(res, v)
		}
	}
	return res
}

type columnStats struct {
	mean float64
	sd   float64
	n    int
}

func distinctStats(m mat.Matrix, first, last, j int) columnStats {
	values := distinctValues(m, first, last, j)
	if len(values) == 0 {
		return columnStats{}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	return columnStats{mean: mean, sd: math.Sqrt(variance), n: len(values)}
}

// distinctMedian sorts the distinct values and takes the element at count/2,
// the upper median for even counts.
func distinctMedian(m mat.Matrix, first, last, j int) float64 {
	values := distinctValues(m, first, last, j)
	if len(values) == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	return values[len(values)/2]
}

package bocd

import (
	"math"
	"sort"

	"github.com/uyouii/cnv-segment/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func LogSumExp(data []float64) float64 {
	max := math.Inf(-1)
	for _, v := range data {
		max = math.Max(max, v)
	}
	if math.IsInf(max, -1) {
		return max
	}
	res := 0.0
	for i := range data {
		res += math.Exp(data[i] - max)
	}
	return math.Log(res) + max
}

func NormalizeData(data []float64) []float64 {
	logSum := LogSumExp(data)
	res := make([]float64, len(data))
	for i := range data {
		res[i] = data[i] - logSum
	}
	return res
}

func ListExp(data []float64) []float64 {
	res := make([]float64, len(data))
	for i, v := range data {
		res[i] = math.Exp(v)
	}
	return res
}

func ListMul(l1, l2 []float64) []float64 {
	listLen := min(len(l1), len(l2))

	res := make([]float64, listLen)
	for i := 0; i < listLen; i++ {
		res[i] = l1[i] * l2[i]
	}
	return res
}

// RowMeans averages every row across the columns of m.
func RowMeans(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	res := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += m.At(i, j)
		}
		res[i] = sum / float64(cols)
	}
	return res
}

// NoiseVariance estimates the observation variance from first differences,
// taking the smaller of the standard deviation and the normalized IQR.
func NoiseVariance(series []float64) float64 {
	if len(series) < 3 {
		return minVariance
	}
	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i] - series[i-1]
	}
	sigma := selectSigma(diffs) / math.Sqrt2
	return math.Max(sigma*sigma, minVariance)
}

func selectSigma(x []float64) float64 {
	normalize := 1.349

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	iqr := (q75 - q25) / normalize

	stdDev := stat.StdDev(x, nil)

	if iqr > 0 {
		if stdDev < iqr {
			return stdDev
		}
		return iqr
	}
	return stdDev
}

// strongest keeps the k change points with the largest value step, in row order.
func strongest(changePoints []*model.ChangePoint, series []float64, k int) []*model.ChangePoint {
	if len(changePoints) <= k {
		return changePoints
	}
	step := func(c *model.ChangePoint) float64 {
		return math.Abs(c.RowValue.Value - series[c.RowValue.Row-1])
	}
	sorted := append([]*model.ChangePoint(nil), changePoints...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return step(sorted[i]) > step(sorted[j])
	})
	sorted = sorted[:k]
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RowValue.Row < sorted[j].RowValue.Row
	})
	return sorted
}

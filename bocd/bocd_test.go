package bocd

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cnv-segment/common"
	"github.com/uyouii/cnv-segment/model"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

// stepSeries alternates +-0.1 around low for n rows, then around high for n rows.
func stepSeries(low, high float64, n int) []float64 {
	res := make([]float64, 0, 2*n)
	for _, level := range []float64{low, high} {
		for i := 0; i < n; i++ {
			noise := 0.1
			if (len(res))%2 == 1 {
				noise = -0.1
			}
			res = append(res, level+noise)
		}
	}
	return res
}

func testContext(t *testing.T) context.Context {
	return utils.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(3), LogSumExp([]float64{0, 0, 0}), 1e-12)
	assert.True(t, math.IsInf(LogSumExp([]float64{math.Inf(-1)}), -1))

	norm := ListExp(NormalizeData([]float64{math.Log(1), math.Log(3)}))
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, norm, 1e-12)
	assert.Equal(t, []float64{2, 6}, ListMul([]float64{1, 2, 3}, []float64{2, 3}))
}

func TestNoiseVariance(t *testing.T) {
	assert.Equal(t, minVariance, NoiseVariance([]float64{1, 1, 1, 1}))
	assert.Equal(t, minVariance, NoiseVariance([]float64{1}))

	v := NoiseVariance(stepSeries(0, 10, 20))
	// the single jump does not inflate the robust estimate
	assert.Less(t, v, 0.1)
	assert.Greater(t, v, 0.01)
}

func TestRowMeans(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 3, -1, 0})
	assert.Equal(t, []float64{2, -0.5}, RowMeans(m))
}

func TestChangePointsIncrease(t *testing.T) {
	d := NewDetector(testContext(t), DefaultOptions())

	changePoints := d.ChangePoints(testContext(t), stepSeries(0, 10, 20))
	require.Len(t, changePoints, 1)
	assert.Equal(t, 20, changePoints[0].RowValue.Row)
	assert.Equal(t, 19, changePoints[0].Jump())
	assert.Equal(t, model.IncreaseChangePoint, changePoints[0].ChangePointType)
}

func TestChangePointsDecreaseWithFolding(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRunLength = 8
	d := NewDetector(testContext(t), opts)

	changePoints := d.ChangePoints(testContext(t), stepSeries(10, 0, 20))
	require.Len(t, changePoints, 1)
	assert.Equal(t, 20, changePoints[0].RowValue.Row)
	assert.Equal(t, model.DecreaseChangePoint, changePoints[0].ChangePointType)
}

func TestCheckerKeepsHypothesesBounded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRunLength = 4
	checker := NewBocdOnlineChecker(0.01, 0, 1, opts)
	_, ok := checker.LastRowValue()
	assert.False(t, ok)
	for row, v := range stepSeries(0, 0, 10) {
		checker.AppendPoint(context.Background(), model.RowValue{Row: row, Value: v})
	}
	assert.Equal(t, 20, checker.DataSize())
	assert.LessOrEqual(t, len(checker.means), 4)
	assert.Equal(t, len(checker.means), len(checker.lastLogRunProbs))
	assert.InDelta(t, 1.0, sum(checker.runLenProb), 1e-9)
	assert.Len(t, checker.GetPredictionMeans(), 20)
	assert.Len(t, checker.GetPredictionVariances(), 20)
	for _, v := range checker.GetPredictionVariances() {
		assert.Greater(t, v, 0.0)
	}
	last, ok := checker.LastRowValue()
	require.True(t, ok)
	assert.Equal(t, 19, last.Row)
	assert.Empty(t, checker.GetChangePoints())
}

func TestDetectAndSelect(t *testing.T) {
	series := stepSeries(0, 10, 20)
	m := mat.NewDense(len(series), 1, series)
	d := NewDetector(testContext(t), DefaultOptions())

	jumps, err := d.DetectAndSelect(m, 300, 1e-9, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{19}, jumps)

	jumps, err = d.DetectAndSelect(m, 0, 1e-9, 0.5)
	require.NoError(t, err)
	assert.Empty(t, jumps)

	_, err = d.DetectAndSelect(m, -1, 1e-9, 0.5)
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}

func TestStrongest(t *testing.T) {
	series := []float64{0, 1, 1, 5, 5, 4}
	cps := []*model.ChangePoint{
		{RowValue: model.RowValue{Row: 1, Value: 1}},
		{RowValue: model.RowValue{Row: 3, Value: 5}},
		{RowValue: model.RowValue{Row: 5, Value: 4}},
	}
	kept := strongest(cps, series, 2)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, kept[0].RowValue.Row)
	assert.Equal(t, 3, kept[1].RowValue.Row)
}

func sum(x []float64) float64 {
	res := 0.0
	for _, v := range x {
		res += v
	}
	return res
}

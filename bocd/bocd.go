package bocd

import (
	"context"
	"math"

	"github.com/uyouii/cnv-segment/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

type Options struct {
	Hazard       float64
	Threshold    float64
	ObserveRows  int
	MaxRunLength int
}

func DefaultOptions() Options {
	return Options{
		Hazard:       DefaultHazard,
		Threshold:    DefaultChangePointThreshold,
		ObserveRows:  DefaultObserveRows,
		MaxRunLength: DefaultMaxRunLength,
	}
}

// BocdOnlineChecker runs Bayesian online changepoint detection with a
// Gaussian model of known observation variance over a row-ordered series.
type BocdOnlineChecker struct {
	opts  Options
	varX  float64 // known observation variance
	mean0 float64 // prior mean of a new run
	var0  float64 // prior variance of a new run

	datas           []model.RowValue
	means           []float64
	invVariances    []float64 // 1 / Variance
	lastLogRunProbs []float64
	runLenProb      []float64 // run length posterior after the last row

	pMeans []float64 // prediction mean
	pVars  []float64 // prediction var

	changePoints []*model.ChangePoint
	folded       bool // the last run length hypothesis stands for all longer runs
}

func NewBocdOnlineChecker(varx, mean0, var0 float64, opts Options) *BocdOnlineChecker {
	varx = math.Max(varx, minVariance)
	var0 = math.Max(var0, minVariance)
	if opts.MaxRunLength < 2 {
		opts.MaxRunLength = 2
	}
	bocdChecker := &BocdOnlineChecker{
		opts:  opts,
		varX:  varx,
		mean0: mean0,
		var0:  var0,

		datas:           []model.RowValue{},
		means:           []float64{mean0},
		invVariances:    []float64{1 / var0},
		lastLogRunProbs: []float64{0},
		runLenProb:      []float64{1},

		pMeans: []float64{},
		pVars:  []float64{},

		changePoints: []*model.ChangePoint{},
	}

	return bocdChecker
}

func (b *BocdOnlineChecker) LastRowValue() (model.RowValue, bool) {
	if len(b.datas) == 0 {
		return model.RowValue{}, false
	}
	return b.datas[len(b.datas)-1], true
}

func (b *BocdOnlineChecker) AppendPoint(ctx context.Context, rowValue model.RowValue) (*model.ChangePoint, bool) {
	changePoint, findChangePoint := b.appendPoint(rowValue)
	return changePoint, findChangePoint
}

func (b *BocdOnlineChecker) appendPoint(rowValue model.RowValue) (*model.ChangePoint, bool) {
	b.datas = append(b.datas, rowValue)

	t := len(b.datas) // current step

	// Make model predictions.
	b.pMeans = append(b.pMeans, b.predictionMean())
	b.pVars = append(b.pVars, b.predictionVar())

	// 3. Evaluate predictive probabilities.
	// logPreProbs holds the density of x under every current run length
	logPreProbs := b.logOfPreProb(rowValue.Value)

	// 4. Calculate growth probabilities.
	logGrowthProbs := b.calLogGrowthProbs(logPreProbs)

	// 5. Calculate changepoint probabilities.
	logChangePointProb := b.calLogChangePointProb(logPreProbs)

	// 6. Calculate evidence
	logRunProbs := append([]float64{logChangePointProb}, logGrowthProbs...)

	// 7. Determine run length distribution.
	normalizeLogRunProbs := NormalizeData(logRunProbs)

	// 8. update params
	b.updateGuassianParams(rowValue.Value)
	normalizeLogRunProbs = b.foldLongRuns(normalizeLogRunProbs)

	b.lastLogRunProbs = normalizeLogRunProbs
	b.runLenProb = ListExp(normalizeLogRunProbs)

	findChangePoint, changePoint := b.checkChangePoints(t)
	return changePoint, findChangePoint
}

// foldLongRuns merges the two longest run lengths once the hypothesis count
// passes MaxRunLength, keeping the parameters of the likelier one.
func (b *BocdOnlineChecker) foldLongRuns(logRunProbs []float64) []float64 {
	for len(logRunProbs) > b.opts.MaxRunLength {
		n := len(logRunProbs)
		keep := n - 1
		if logRunProbs[n-2] > logRunProbs[n-1] {
			keep = n - 2
		}
		b.means[n-2], b.invVariances[n-2] = b.means[keep], b.invVariances[keep]
		logRunProbs[n-2] = LogSumExp(logRunProbs[n-2:])

		logRunProbs = logRunProbs[:n-1]
		b.folded = true
		b.means = b.means[:n-1]
		b.invVariances = b.invVariances[:n-1]
	}
	return logRunProbs
}

func (b *BocdOnlineChecker) checkChangePoints(t int) (bool, *model.ChangePoint) {
	if len(b.runLenProb) == 0 {
		return false, nil
	}

	for j := 0; j < len(b.runLenProb) && j <= b.opts.ObserveRows; j++ {
		if b.folded && j == len(b.runLenProb)-1 {
			break
		}
		if b.runLenProb[j] >= b.opts.Threshold {
			changePointLoc := t - j
			if changePointLoc <= 0 || changePointLoc >= t {
				break
			}
			changePointRowValue := b.datas[changePointLoc]

			changePoint := &model.ChangePoint{
				RowValue: changePointRowValue,
			}

			lastPoint := b.datas[changePointLoc-1]
			if changePointRowValue.Value > lastPoint.Value {
				changePoint.ChangePointType = model.IncreaseChangePoint
			} else {
				changePoint.ChangePointType = model.DecreaseChangePoint
			}

			// the same change point stays probable for several rows
			if lastChangePoint, ok := b.LastChangePoint(); ok &&
				lastChangePoint.RowValue.Row == changePointRowValue.Row {
				break
			}
			b.changePoints = append(b.changePoints, changePoint)
			return true, changePoint
		}
	}
	return false, nil
}

func (b *BocdOnlineChecker) updateGuassianParams(x float64) {
	newInvVariances := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		newInvVariances[i] = b.invVariances[i] + 1/b.varX
	}

	for i := range b.means {
		b.means[i] = (b.means[i]*b.invVariances[i] + x/b.varX) / newInvVariances[i]
	}
	b.means = append([]float64{b.mean0}, b.means...)
	b.invVariances = append([]float64{1 / b.var0}, newInvVariances...)
}

func (b *BocdOnlineChecker) logh() float64 {
	return math.Log(b.opts.Hazard)
}

func (b *BocdOnlineChecker) log1mh() float64 {
	return math.Log(1 - b.opts.Hazard)
}

func (b *BocdOnlineChecker) calLogChangePointProb(logPreProbs []float64) float64 {
	data := make([]float64, len(logPreProbs))

	for i := range logPreProbs {
		data[i] = logPreProbs[i] + b.lastLogRunProbs[i] + b.logh()
	}

	return LogSumExp(data)
}

func (b *BocdOnlineChecker) calLogGrowthProbs(logPreProbs []float64) []float64 {
	logGrowthProbs := make([]float64, len(logPreProbs))

	for i := range logPreProbs {
		logGrowthProbs[i] = logPreProbs[i] + b.lastLogRunProbs[i] + b.log1mh()
	}

	return logGrowthProbs
}

func (b *BocdOnlineChecker) logOfPreProb(x float64) []float64 {
	// posterior predictive for each run length hypothesis
	logProbs := make([]float64, len(b.means))

	variances := b.calVariances()

	for i := range b.means {
		normalDist := distuv.Normal{
			Mu:    b.means[i],
			Sigma: math.Sqrt(variances[i]),
		}
		logProbs[i] = normalDist.LogProb(x)
	}

	return logProbs
}

func (b *BocdOnlineChecker) calVariances() []float64 {
	res := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		res[i] = 1/b.invVariances[i] + b.varX
	}
	return res
}

func (b *BocdOnlineChecker) predictionMean() float64 {
	meanProbsValue := ListMul(b.runLenProb, b.means)
	return floats.Sum(meanProbsValue)
}

func (b *BocdOnlineChecker) predictionVar() float64 {
	varProbsValue := ListMul(b.runLenProb, b.calVariances())
	return floats.Sum(varProbsValue)
}

func (b *BocdOnlineChecker) GetPredictionMeans() []float64 {
	return b.pMeans
}

func (b *BocdOnlineChecker) GetPredictionVariances() []float64 {
	return b.pVars
}

func (b *BocdOnlineChecker) DataSize() int {
	return len(b.datas)
}

func (b *BocdOnlineChecker) GetChangePoints() []*model.ChangePoint {
	return b.changePoints
}

func (b *BocdOnlineChecker) LastChangePoint() (*model.ChangePoint, bool) {
	if len(b.changePoints) > 0 {
		return b.changePoints[len(b.changePoints)-1], true
	}
	return nil, false
}

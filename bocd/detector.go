package bocd

import (
	"context"
	"fmt"

	"github.com/uyouii/cnv-segment/cpd"
	"github.com/uyouii/cnv-segment/model"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Detector feeds the per-row mean across columns through an online checker and
// refines the change points it reports with the dynamic program of package cpd.
// cpd.Detector carries no context, so the one given to NewDetector is used for
// logging in DetectAndSelect.
type Detector struct {
	ctx  context.Context
	opts Options
}

func NewDetector(ctx context.Context, opts Options) *Detector {
	return &Detector{ctx: ctx, opts: opts}
}

func (d *Detector) DetectAndSelect(m mat.Matrix, k int, epsilon, dpThreshold float64) ([]int, error) {
	logger := utils.GetLogger(d.ctx)

	if err := cpd.CheckParams(k, epsilon, dpThreshold); err != nil {
		return nil, err
	}

	series := RowMeans(m)
	changePoints := d.ChangePoints(d.ctx, series)
	capped := strongest(changePoints, series, k)

	candidates := make([]int, 0, len(capped))
	for _, changePoint := range capped {
		candidates = append(candidates, changePoint.Jump())
	}
	logger.Debug("bocd candidates", zap.Int("found", len(changePoints)), zap.Int("kept", len(candidates)))

	sel := cpd.SelectBest(m, candidates, dpThreshold, epsilon, len(changePoints) <= k)
	return sel.BestJumps(), nil
}

// ChangePoints runs the checker over series with priors estimated from it.
func (d *Detector) ChangePoints(ctx context.Context, series []float64) []*model.ChangePoint {
	if len(series) < 2 {
		return []*model.ChangePoint{}
	}
	logger := utils.GetLogger(ctx)

	varx := NoiseVariance(series)
	mean0, var0 := stat.PopMeanVariance(series, nil)

	checker := NewBocdOnlineChecker(varx, mean0, var0+varx, d.opts)
	foundCount := 0
	for row, value := range series {
		if _, found := checker.AppendPoint(ctx, model.RowValue{Row: row, Value: value}); found {
			foundCount++
		}
	}

	if last, ok := checker.LastRowValue(); ok {
		pVars := checker.GetPredictionVariances()
		logger.Debug(fmt.Sprintf("found %v change points", foundCount),
			zap.Float64("varx", varx), zap.Float64("mean0", mean0),
			zap.Int("last row", last.Row), zap.Float64("last prediction var", pVars[len(pVars)-1]))
	}
	return checker.GetChangePoints()
}

package cpd

import (
	"fmt"

	"github.com/uyouii/cnv-segment/common"
	"gonum.org/v1/gonum/mat"
)

// Detector turns one chromosome matrix into a sorted set of breakpoints, each
// the last row of a segment. At most k breakpoints are returned.
type Detector interface {
	DetectAndSelect(m mat.Matrix, k int, epsilon, dpThreshold float64) ([]int, error)
}

type DetectorFunc func(m mat.Matrix, k int, epsilon, dpThreshold float64) ([]int, error)

func (f DetectorFunc) DetectAndSelect(m mat.Matrix, k int, epsilon, dpThreshold float64) ([]int, error) {
	return f(m, k, epsilon, dpThreshold)
}

// PathDetector builds the greedy regularization path and refines it with the
// dynamic program.
type PathDetector struct{}

func NewPathDetector() *PathDetector {
	return &PathDetector{}
}

func (d *PathDetector) DetectAndSelect(m mat.Matrix, k int, epsilon, dpThreshold float64) ([]int, error) {
	if err := CheckParams(k, epsilon, dpThreshold); err != nil {
		return nil, err
	}
	path := RegularizationPath(m, k, epsilon)
	return SelectBest(m, path.Jumps, dpThreshold, epsilon, path.Exhausted).BestJumps(), nil
}

func CheckParams(k int, epsilon, dpThreshold float64) error {
	if k < 0 {
		return fmt.Errorf("%w: k must not be negative: %v", common.ErrorInvalidValue, k)
	}
	if epsilon < 0 {
		return fmt.Errorf("%w: epsilon must not be negative: %v", common.ErrorInvalidValue, epsilon)
	}
	if dpThreshold < 0 {
		return fmt.Errorf("%w: dp threshold must not be negative: %v", common.ErrorInvalidValue, dpThreshold)
	}
	return nil
}

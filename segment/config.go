package segment

import (
	"fmt"

	"github.com/uyouii/cnv-segment/common"
	"github.com/uyouii/cnv-segment/cpd"
)

type Config struct {
	// K caps the change points per chromosome.
	K int
	// Ploidy is the baseline subtracted on input and added back on output.
	Ploidy float64
	// Epsilon is the numerical tolerance of the changepoint search.
	Epsilon float64
	// DPThreshold selects the number of segments in the dynamic program.
	DPThreshold float64

	// Merge runs UndoBreaks to a fixed point on the selected breakpoints.
	Merge      bool
	MergeScale float64

	// Workers segments this many chromosomes at once, output order is kept.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		K:           DefaultK,
		Ploidy:      DefaultPloidy,
		Epsilon:     DefaultEpsilon,
		DPThreshold: DefaultDPThreshold,
		Merge:       false,
		MergeScale:  DefaultMergeScale,
		Workers:     1,
	}
}

func (c Config) Validate() error {
	if err := cpd.CheckParams(c.K, c.Epsilon, c.DPThreshold); err != nil {
		return err
	}
	if c.Merge && c.MergeScale <= 0 {
		return fmt.Errorf("%w: merge scale must be positive: %v", common.ErrorInvalidValue, c.MergeScale)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1: %v", common.ErrorInvalidValue, c.Workers)
	}
	return nil
}

package bocd

const (
	// prior probability that any row starts a new run
	DefaultHazard = 2 / 1000.0
	// run length posterior needed to report a change point
	DefaultChangePointThreshold = 0.75
	// only run lengths up to this many rows are inspected for a new change point
	DefaultObserveRows = 5
	// longer runs are folded into the last hypothesis
	DefaultMaxRunLength = 1000

	minVariance = 1e-12
)

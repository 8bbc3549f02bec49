package segment

const (
	// both sides of a breakpoint need this many distinct values in a column
	// before that column can keep the breakpoint
	MinDistinctValues = 5

	DefaultK           = 300
	DefaultPloidy      = 2.0
	DefaultEpsilon     = 1e-9
	DefaultDPThreshold = 0.5
	DefaultMergeScale  = 1.0
)

package signal

const (
	// header rows carry this literal as second field
	HeaderStartField = "start"

	MissingNaN = "NaN"
	MissingNA  = "NA"

	maxLineSize = 64 << 20
)

package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type ChangePointType int

const (
	IncreaseChangePoint ChangePointType = 1
	DecreaseChangePoint ChangePointType = 2
)

func (t ChangePointType) String() string {
	switch t {
	case IncreaseChangePoint:
		return "increase"
	case DecreaseChangePoint:
		return "decrease"
	}
	return "none"
}

// ChangePoint marks the first row of a new run.
type ChangePoint struct {
	ChangePointType ChangePointType
	RowValue        RowValue
}

// Jump is the right edge of the segment that ends before the change point.
func (c *ChangePoint) Jump() int {
	return c.RowValue.Row - 1
}

type RowValue struct {
	Row   int
	Value float64
}

// Interval is a genomic bin, one per matrix row.
type Interval struct {
	Start uint32
	End   uint32
}

// SignalBlock holds the bins of one chromosome. Matrix rows follow Intervals,
// columns are tracks, values are centered on the baseline ploidy.
type SignalBlock struct {
	Chromosome string
	Intervals  []Interval
	Matrix     *mat.Dense
}

func (b *SignalBlock) Rows() int {
	if b == nil || b.Matrix == nil {
		return 0
	}
	r, _ := b.Matrix.Dims()
	return r
}

func (b *SignalBlock) Cols() int {
	if b == nil || b.Matrix == nil {
		return 0
	}
	_, c := b.Matrix.Dims()
	return c
}

func (b *SignalBlock) DebugString() string {
	return fmt.Sprintf("chromosome: %v, dims: %vx%v", b.Chromosome, b.Rows(), b.Cols())
}

func (b *SignalBlock) IsEmpty() bool {
	return b.Rows() == 0 || b.Cols() == 0
}

// Segment is one reported copy-number segment. FirstRow and LastRow are inclusive.
type Segment struct {
	Index      int
	Chromosome string
	FirstRow   int
	LastRow    int
	Start      uint32
	End        uint32
	Values     []float64 // per column robust estimate, centered
	CopyNumber float64   // mean of Values plus ploidy

	// direction against the previous segment, zero for the first one
	ChangePointType ChangePointType
}

func (s *Segment) DebugString() string {
	return fmt.Sprintf("%v:%v-%v rows %v..%v cn %v", s.Chromosome, s.Start, s.End, s.FirstRow, s.LastRow, s.CopyNumber)
}

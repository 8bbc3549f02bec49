package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSignalBlock(t *testing.T) {
	var empty *SignalBlock
	assert.True(t, empty.IsEmpty())

	b := &SignalBlock{
		Chromosome: "chr3",
		Intervals:  []Interval{{0, 100}, {100, 200}},
		Matrix:     mat.NewDense(2, 3, nil),
	}
	assert.False(t, b.IsEmpty())
	assert.Equal(t, "chromosome: chr3, dims: 2x3", b.DebugString())
}

func TestSegmentDebugString(t *testing.T) {
	s := &Segment{Chromosome: "chr3", Start: 100, End: 900, FirstRow: 1, LastRow: 8, CopyNumber: 2.5}
	assert.Equal(t, "chr3:100-900 rows 1..8 cn 2.5", s.DebugString())
}

func TestChangePoint(t *testing.T) {
	c := &ChangePoint{ChangePointType: IncreaseChangePoint, RowValue: RowValue{Row: 5, Value: 3}}
	assert.Equal(t, 4, c.Jump())
	assert.Equal(t, "increase", c.ChangePointType.String())
	assert.Equal(t, "none", ChangePointType(0).String())
}

package segment

import (
	"github.com/uyouii/cnv-segment/cpd"
	"gonum.org/v1/gonum/mat"
)

// Smoothed is the piecewise constant summary of a matrix.
type Smoothed struct {
	// Jumps holds the last row of every segment, the final entry is rows-1.
	Jumps []int
	// Values has one row per segment and one column per matrix column.
	Values *mat.Dense
}

func (s *Smoothed) Len() int {
	return len(s.Jumps)
}

// FirstRow is the first matrix row of segment i.
func (s *Smoothed) FirstRow(i int) int {
	if i == 0 {
		return 0
	}
	return s.Jumps[i-1] + 1
}

// SmoothSignal reports the distinct-value median of every segment and column.
func SmoothSignal(m mat.Matrix, jumps []int) *Smoothed {
	rows, cols := m.Dims()
	b := cpd.Boundaries(jumps, rows)
	if len(b) < 2 || cols == 0 {
		return &Smoothed{Jumps: []int{}}
	}

	res := &Smoothed{
		Jumps:  append([]int(nil), b[1:]...),
		Values: mat.NewDense(len(b)-1, cols, nil),
	}
	for i := 0; i < len(b)-1; i++ {
		for j := 0; j < cols; j++ {
			res.Values.Set(i, j, distinctMedian(m, b[i]+1, b[i+1], j))
		}
	}
	return res
}

// Expand writes every segment value back onto its rows.
func Expand(s *Smoothed) *mat.Dense {
	if s.Len() == 0 {
		return nil
	}
	rows := s.Jumps[s.Len()-1] + 1
	_, cols := s.Values.Dims()
	res := mat.NewDense(rows, cols, nil)
	for i := 0; i < s.Len(); i++ {
		for r := s.FirstRow(i); r <= s.Jumps[i]; r++ {
			res.SetRow(r, s.Values.RawRowView(i))
		}
	}
	return res
}

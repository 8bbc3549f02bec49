package cpd

import (
	"gonum.org/v1/gonum/mat"
)

// Path is the ordered list of candidate breakpoints in the order they were
// selected, together with the cost reduction each one achieved.
type Path struct {
	Jumps  []int
	Lambda []float64
	// Exhausted is set when the search stopped before reaching k because no
	// split improved the fit by more than epsilon.
	Exhausted bool
}

// prefixSums keeps per column cumulative sums so that the fit of any row range
// is computed in O(cols).
type prefixSums struct {
	rows, cols int
	sum        [][]float64 // sum[j][i] = sum of rows < i in column j
	sumSq      [][]float64
}

func newPrefixSums(m mat.Matrix) *prefixSums {
	rows, cols := m.Dims()
	p := &prefixSums{
		rows:  rows,
		cols:  cols,
		sum:   make([][]float64, cols),
		sumSq: make([][]float64, cols),
	}
	for j := 0; j < cols; j++ {
		s, sq := make([]float64, rows+1), make([]float64, rows+1)
		for i := 0; i < rows; i++ {
			v := m.At(i, j)
			s[i+1] = s[i] + v
			sq[i+1] = sq[i] + v*v
		}
		p.sum[j], p.sumSq[j] = s, sq
	}
	return p
}

// cost is the residual sum of squares of rows [a, b) around their column means.
func (p *prefixSums) cost(a, b int) float64 {
	n := float64(b - a)
	if n <= 0 {
		return 0
	}
	res := 0.0
	for j := 0; j < p.cols; j++ {
		s := p.sum[j][b] - p.sum[j][a]
		res += p.sumSq[j][b] - p.sumSq[j][a] - s*s/n
	}
	if res < 0 {
		return 0
	}
	return res
}

// gain is the cost reduction of splitting [a, b) before row t.
func (p *prefixSums) gain(a, t, b int) float64 {
	nl, nr := float64(t-a), float64(b-t)
	w := nl * nr / (nl + nr)
	res := 0.0
	for j := 0; j < p.cols; j++ {
		ml := (p.sum[j][t] - p.sum[j][a]) / nl
		mr := (p.sum[j][b] - p.sum[j][t]) / nr
		res += w * (ml - mr) * (ml - mr)
	}
	return res
}

type interval struct {
	a, b  int // rows [a, b)
	split int // best split row, 0 when the interval cannot be split
	gain  float64
}

func (p *prefixSums) bestSplit(a, b int) interval {
	iv := interval{a: a, b: b}
	for t := a + 1; t < b; t++ {
		if g := p.gain(a, t, b); g > iv.gain {
			iv.split, iv.gain = t, g
		}
	}
	return iv
}

// RegularizationPath greedily adds up to k breakpoints. Each step splits the
// interval whose best split lowers the summed squared error the most.
func RegularizationPath(m mat.Matrix, k int, epsilon float64) *Path {
	rows, _ := m.Dims()
	path := &Path{Jumps: []int{}, Lambda: []float64{}}
	if rows < 2 || k <= 0 {
		path.Exhausted = true
		return path
	}

	p := newPrefixSums(m)
	intervals := []interval{p.bestSplit(0, rows)}

	for len(path.Jumps) < k {
		best := -1
		for i := range intervals {
			if intervals[i].split == 0 || intervals[i].gain <= epsilon {
				continue
			}
			if best < 0 || intervals[i].gain > intervals[best].gain {
				best = i
			}
		}
		if best < 0 {
			path.Exhausted = true
			break
		}

		iv := intervals[best]
		path.Jumps = append(path.Jumps, iv.split-1)
		path.Lambda = append(path.Lambda, iv.gain)

		intervals[best] = p.bestSplit(iv.a, iv.split)
		intervals = append(intervals, p.bestSplit(iv.split, iv.b))
	}
	return path
}

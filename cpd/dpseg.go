package cpd

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Selection is the best segmentation restricted to a candidate set.
type Selection struct {
	// Cost[s-1] is the optimal residual cost with s segments.
	Cost []float64
	// Jumps[s-1] is the sorted breakpoint set that achieves Cost[s-1].
	Jumps [][]int
	// Best is the chosen number of segments.
	Best int
}

func (s *Selection) BestJumps() []int {
	if s == nil || s.Best < 1 {
		return []int{}
	}
	return s.Jumps[s.Best-1]
}

// SelectBest runs an exact dynamic program over the candidate breakpoints and
// picks the number of segments from the shape of the cost curve.
// Candidates outside [0, rows-2] and duplicates are ignored.
func SelectBest(m mat.Matrix, candidates []int, threshold, epsilon float64, exhausted bool) *Selection {
	rows, _ := m.Dims()
	pos := Boundaries(candidates, rows)
	n := len(pos) - 1 // number of elementary intervals
	if n < 1 {
		return &Selection{}
	}

	p := newPrefixSums(m)
	cost := func(i, j int) float64 {
		return p.cost(pos[i]+1, pos[j]+1)
	}

	// dp[s][j]: best cost of s segments covering rows up to pos[j]
	dp := make([][]float64, n+1)
	from := make([][]int, n+1)
	for s := 1; s <= n; s++ {
		dp[s] = make([]float64, n+1)
		from[s] = make([]int, n+1)
		for j := range dp[s] {
			dp[s][j] = math.Inf(1)
		}
	}
	for j := 1; j <= n; j++ {
		dp[1][j] = cost(0, j)
	}
	for s := 2; s <= n; s++ {
		for j := s; j <= n; j++ {
			for i := s - 1; i < j; i++ {
				if c := dp[s-1][i] + cost(i, j); c < dp[s][j] {
					dp[s][j], from[s][j] = c, i
				}
			}
		}
	}

	sel := &Selection{
		Cost:  make([]float64, n),
		Jumps: make([][]int, n),
	}
	for s := 1; s <= n; s++ {
		sel.Cost[s-1] = dp[s][n]
		jumps := make([]int, 0, s-1)
		for j, k := n, s; k > 1; k-- {
			j = from[k][j]
			jumps = append(jumps, pos[j])
		}
		sort.Ints(jumps)
		sel.Jumps[s-1] = jumps
	}
	sel.Best = chooseSegmentCount(sel.Cost, threshold, epsilon, exhausted)
	return sel
}

// chooseSegmentCount applies the normalized second difference rule: the cost
// curve is rescaled so that J(1) = K and J(K) = 1, and the largest s whose
// curvature exceeds threshold wins. An exhausted path continues flat.
func chooseSegmentCount(cost []float64, threshold, epsilon float64, exhausted bool) int {
	kmax := len(cost)
	if kmax <= 1 {
		return kmax
	}
	den := cost[kmax-1] - cost[0]
	if math.Abs(den) <= epsilon {
		return 1
	}

	jt := make([]float64, kmax+2) // 1-based, jt[kmax+1] only for exhausted paths
	for s := 1; s <= kmax; s++ {
		jt[s] = (cost[kmax-1]-cost[s-1])/den*float64(kmax-1) + 1
	}
	jt[kmax+1] = jt[kmax]

	last := kmax - 1
	if exhausted {
		last = kmax
	}
	best := 1
	for s := 2; s <= last; s++ {
		if d := jt[s-1] - 2*jt[s] + jt[s+1]; d > threshold {
			best = s
		}
	}
	return best
}

// Boundaries returns -1, the valid sorted distinct candidates, rows-1.
func Boundaries(candidates []int, rows int) []int {
	if rows <= 0 {
		return []int{}
	}
	pos := []int{-1}
	sorted := append([]int(nil), candidates...)
	sort.Ints(sorted)
	for _, c := range sorted {
		if c < 0 || c >= rows-1 || c == pos[len(pos)-1] {
			continue
		}
		pos = append(pos, c)
	}
	return append(pos, rows-1)
}

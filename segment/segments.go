package segment

import (
	"github.com/uyouii/cnv-segment/model"
	"gonum.org/v1/gonum/floats"
)

// BuildSegments turns smoothed values into genomic segments. A segment starts
// at the bin after the previous segment's last bin and ends with its own last
// bin. The copy number is the mean of the column medians plus ploidy.
func BuildSegments(block *model.SignalBlock, s *Smoothed, ploidy float64) []model.Segment {
	res := make([]model.Segment, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		first, last := s.FirstRow(i), s.Jumps[i]
		values := append([]float64(nil), s.Values.RawRowView(i)...)
		seg := model.Segment{
			Index:      i,
			Chromosome: block.Chromosome,
			FirstRow:   first,
			LastRow:    last,
			Start:      block.Intervals[first].Start,
			End:        block.Intervals[last].End,
			Values:     values,
			CopyNumber: floats.Sum(values)/float64(len(values)) + ploidy,
		}
		if i > 0 {
			seg.ChangePointType = direction(res[i-1].CopyNumber, seg.CopyNumber)
		}
		res = append(res, seg)
	}
	return res
}

// BinSegments reports the smoothed value of every bin as its own segment.
func BinSegments(block *model.SignalBlock, s *Smoothed, ploidy float64) []model.Segment {
	expanded := Expand(s)
	if expanded == nil {
		return []model.Segment{}
	}
	rows, _ := expanded.Dims()
	res := make([]model.Segment, 0, rows)
	seg := 0
	for r := 0; r < rows; r++ {
		if r > s.Jumps[seg] {
			seg++
		}
		values := expanded.RawRowView(r)
		res = append(res, model.Segment{
			Index:      seg,
			Chromosome: block.Chromosome,
			FirstRow:   r,
			LastRow:    r,
			Start:      block.Intervals[r].Start,
			End:        block.Intervals[r].End,
			Values:     values,
			CopyNumber: floats.Sum(values)/float64(len(values)) + ploidy,
		})
	}
	return res
}

func direction(prev, cur float64) model.ChangePointType {
	switch {
	case cur > prev:
		return model.IncreaseChangePoint
	case cur < prev:
		return model.DecreaseChangePoint
	}
	return 0
}

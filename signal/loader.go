package signal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uyouii/cnv-segment/common"
	"github.com/uyouii/cnv-segment/model"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

type Options struct {
	// Ploidy is subtracted from every parsed value.
	Ploidy float64
	// Lenient keeps blocks whose fill pass came up short, trailing rows stay zero.
	Lenient bool
}

// run is a contiguous stretch of data rows sharing one chromosome name.
type run struct {
	chr  string
	rows int
	cols int
}

func (r *run) keep() bool {
	return r.rows > 0 && r.cols > 0
}

// Load parses a chr, start, end, value... table into one block per chromosome
// in the order the chromosomes first appear.
func Load(ctx context.Context, path string, opts Options) ([]*model.SignalBlock, error) {
	logger := utils.GetLogger(ctx)

	src, err := openSource(path)
	if err != nil {
		logger.Error("openSource failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer src.Close()

	// 1. sizing pass
	rc, err := src.reader()
	if err != nil {
		return nil, err
	}
	runs, err := sizeBlocks(ctx, rc)
	rc.Close()
	if err != nil {
		logger.Error("sizeBlocks failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	// 2. fill pass
	rc, err = src.reader()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	blocks, err := fillBlocks(ctx, rc, runs, opts)
	if err != nil {
		logger.Error("fillBlocks failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return blocks, nil
}

func sizeBlocks(ctx context.Context, r io.Reader) ([]run, error) {
	logger := utils.GetLogger(ctx)

	runs := []run{}
	seen := map[string]bool{}

	scanner := newScanner(r)
	for scanner.Scan() {
		chr, _, _, values, ok := dataFields(splitFields(scanner.Text()))
		if !ok {
			continue
		}
		if len(runs) == 0 || runs[len(runs)-1].chr != chr {
			if seen[chr] {
				logger.Warn("chromosome is not contiguous, starting a new block", zap.String("chr", chr))
			}
			seen[chr] = true
			runs = append(runs, run{chr: chr, cols: len(values)})
		}
		runs[len(runs)-1].rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: sizing pass: %v", common.ErrorIO, err)
	}

	kept := 0
	for i := range runs {
		if runs[i].keep() {
			kept++
			logger.Info("matrix dimensions", zap.String("chr", runs[i].chr),
				zap.Int("rows", runs[i].rows), zap.Int("cols", runs[i].cols))
		}
	}
	if kept == 0 {
		return nil, fmt.Errorf("%w: signal matrix format is chr, start, end, signal, ...", common.ErrorFormat)
	}
	return runs, nil
}

func fillBlocks(ctx context.Context, r io.Reader, runs []run, opts Options) ([]*model.SignalBlock, error) {
	logger := utils.GetLogger(ctx)

	blocks := make([]*model.SignalBlock, len(runs))
	filled := make([]int, len(runs))

	var lastValue []float64
	idx, lineNo := -1, 0

	scanner := newScanner(r)
	for scanner.Scan() {
		lineNo++
		chr, start, end, values, ok := dataFields(splitFields(scanner.Text()))
		if !ok {
			continue
		}

		// move to the next run once the current row budget is used up
		for idx < 0 || (idx < len(runs) && filled[idx] >= runs[idx].rows) {
			idx++
			if idx < len(runs) {
				lastValue = make([]float64, runs[idx].cols)
			}
		}
		if idx >= len(runs) {
			return nil, fmt.Errorf("%w: line %v: more rows than counted in the sizing pass", common.ErrorFormat, lineNo)
		}

		rn := &runs[idx]
		if chr != rn.chr {
			return nil, fmt.Errorf("%w: line %v: expected chromosome %v, found %v", common.ErrorFormat, lineNo, rn.chr, chr)
		}
		row := filled[idx]
		filled[idx]++
		if !rn.keep() {
			continue
		}
		if blocks[idx] == nil {
			blocks[idx] = newBlock(rn)
		}

		if len(values) != rn.cols {
			return nil, fmt.Errorf("%w: line %v: %v has %v signal columns, found %v",
				common.ErrorFormat, lineNo, chr, rn.cols, len(values))
		}
		itv, err := parseInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("%w: line %v: %v", common.ErrorFormat, lineNo, err)
		}
		blocks[idx].Intervals[row] = itv

		dst := blocks[idx].Matrix.RawRowView(row)
		for j, token := range values {
			if token == MissingNaN || token == MissingNA {
				dst[j] = lastValue[j]
				continue
			}
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %v: column %v: %v", common.ErrorFormat, lineNo, j+4, err)
			}
			dst[j] = v - opts.Ploidy
			lastValue[j] = dst[j]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: fill pass: %v", common.ErrorIO, err)
	}

	res := []*model.SignalBlock{}
	for i := range runs {
		if !runs[i].keep() {
			continue
		}
		if filled[i] < runs[i].rows {
			if !opts.Lenient {
				return nil, fmt.Errorf("%w: %w: %v expected %v rows, found %v", common.ErrorFormat,
					common.ErrorRowBudget, runs[i].chr, runs[i].rows, filled[i])
			}
			logger.Warn("row budget mismatch, trailing rows left at zero", zap.String("chr", runs[i].chr),
				zap.Int("expected", runs[i].rows), zap.Int("found", filled[i]))
			if blocks[i] == nil {
				blocks[i] = newBlock(&runs[i])
			}
		}
		res = append(res, blocks[i])
	}
	return res, nil
}

func newBlock(rn *run) *model.SignalBlock {
	return &model.SignalBlock{
		Chromosome: rn.chr,
		Intervals:  make([]model.Interval, rn.rows),
		Matrix:     mat.NewDense(rn.rows, rn.cols, nil),
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', ',', ';', '\r':
		return true
	}
	return false
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, isSeparator)
}

// dataFields reports ok=false for headers and rows without start and end.
func dataFields(fields []string) (chr, start, end string, values []string, ok bool) {
	if len(fields) < 2 || fields[1] == HeaderStartField || len(fields) < 3 {
		return "", "", "", nil, false
	}
	return fields[0], fields[1], fields[2], fields[3:], true
}

func parseInterval(start, end string) (model.Interval, error) {
	s, err := strconv.ParseUint(start, 10, 32)
	if err != nil {
		return model.Interval{}, fmt.Errorf("start: %v", err)
	}
	e, err := strconv.ParseUint(end, 10, 32)
	if err != nil {
		return model.Interval{}, fmt.Errorf("end: %v", err)
	}
	return model.Interval{Start: uint32(s), End: uint32(e)}, nil
}

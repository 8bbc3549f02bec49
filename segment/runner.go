package segment

import (
	"context"
	"fmt"

	"github.com/uyouii/cnv-segment/cpd"
	"github.com/uyouii/cnv-segment/model"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SegmentSink receives the segments of one chromosome at a time, in
// chromosome discovery order.
type SegmentSink interface {
	WriteSegments(segments []model.Segment) error
}

type Result struct {
	Block    *model.SignalBlock
	Selected []int // breakpoints from the detector
	Jumps    []int // breakpoints after the optional merge
	Smoothed *Smoothed
	Segments []model.Segment
}

type Runner struct {
	cfg      Config
	detector cpd.Detector
}

func NewRunner(cfg Config, detector cpd.Detector) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if detector == nil {
		detector = cpd.NewPathDetector()
	}
	return &Runner{cfg: cfg, detector: detector}, nil
}

// Segment runs detection, the optional merge and smoothing for one chromosome.
func (r *Runner) Segment(ctx context.Context, block *model.SignalBlock) (res *Result, err error) {
	logger := utils.GetLogger(ctx)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Segment recover panic error!", zap.Any("err", p),
				zap.String("panic info", utils.GetPanicInfo()), zap.String("chr", block.Chromosome))
			res, err = nil, fmt.Errorf("segment %v: panic: %v", block.Chromosome, p)
		}
	}()

	if block.IsEmpty() {
		return nil, fmt.Errorf("segment %v: empty signal block", block.Chromosome)
	}

	logger.Debug("segment block", zap.String("block", block.DebugString()))

	selected, err := r.detector.DetectAndSelect(block.Matrix, r.cfg.K, r.cfg.Epsilon, r.cfg.DPThreshold)
	if err != nil {
		logger.Error("DetectAndSelect failed", zap.String("chr", block.Chromosome), zap.Error(err))
		return nil, err
	}

	jumps := selected
	if r.cfg.Merge {
		jumps = UndoBreaksToFixedPoint(block.Matrix, selected, r.cfg.MergeScale)
	}

	smoothed := SmoothSignal(block.Matrix, jumps)
	segments := BuildSegments(block, smoothed, r.cfg.Ploidy)
	for i := range segments {
		logger.Debug("segment", zap.String("segment", segments[i].DebugString()))
	}

	logger.Info("segmented chromosome", zap.String("chr", block.Chromosome),
		zap.Int("rows", block.Rows()), zap.Int("cols", block.Cols()),
		zap.Int("selected", len(selected)), zap.Int("kept", len(jumps)),
		zap.Int("segments", len(segments)))

	return &Result{
		Block:    block,
		Selected: selected,
		Jumps:    jumps,
		Smoothed: smoothed,
		Segments: segments,
	}, nil
}

// Run segments every block and hands the segments to sink in block order.
// bins, when set, receives the per-bin smoothed values.
func (r *Runner) Run(ctx context.Context, blocks []*model.SignalBlock, sink, bins SegmentSink) error {
	if r.cfg.Workers <= 1 {
		for _, block := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Segment(ctx, block)
			if err != nil {
				return err
			}
			if err := r.emit(res, sink, bins); err != nil {
				return err
			}
		}
		return nil
	}
	return r.runParallel(ctx, blocks, sink, bins)
}

func (r *Runner) runParallel(ctx context.Context, blocks []*model.SignalBlock, sink, bins SegmentSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	// done[i] is closed once results[i] is final, nil when block i failed
	results := make([]*Result, len(blocks))
	done := make([]chan struct{}, len(blocks))
	for i := range done {
		done[i] = make(chan struct{})
	}

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, block := range blocks {
			i, block := i, block
			g.Go(func() error {
				defer close(done[i])
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := r.Segment(gctx, block)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
	}()
	wait := func() error {
		<-launched
		return g.Wait()
	}

	for i := range blocks {
		<-done[i]
		if results[i] == nil {
			return wait()
		}
		if err := r.emit(results[i], sink, bins); err != nil {
			cancel()
			_ = wait()
			return err
		}
	}
	return wait()
}

func (r *Runner) emit(res *Result, sink, bins SegmentSink) error {
	if err := sink.WriteSegments(res.Segments); err != nil {
		return fmt.Errorf("write segments of %v: %w", res.Block.Chromosome, err)
	}
	if bins != nil {
		if err := bins.WriteSegments(BinSegments(res.Block, res.Smoothed, r.cfg.Ploidy)); err != nil {
			return fmt.Errorf("write bins of %v: %w", res.Block.Chromosome, err)
		}
	}
	return nil
}

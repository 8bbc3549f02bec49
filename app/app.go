package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/uyouii/cnv-segment/bocd"
	"github.com/uyouii/cnv-segment/cpd"
	"github.com/uyouii/cnv-segment/segment"
	"github.com/uyouii/cnv-segment/signal"
	"github.com/uyouii/cnv-segment/utils"
	"github.com/uyouii/cnv-segment/writer"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	ProgramName = "cnvseg"

	MethodLars = "lars"
	MethodBocd = "bocd"

	DefaultOutput = "segment.gz"
)

type Options struct {
	Input   string
	Output  string
	Bins    string
	Method  string
	Lenient bool
	Segment segment.Config
}

// parseArgs returns the parser as well so that callers can print its usage.
func parseArgs(args []string) (*Options, *argparse.Parser, error) {
	def := segment.DefaultConfig()
	parser := argparse.NewParser(ProgramName, "Segments a binned multi-sample signal matrix into piecewise constant copy number segments. "+
		"Noisy tracks without real steps can over-segment, --undo merges neighbours that do not differ significantly.")

	k := parser.Int("k", "kchange", &argparse.Options{Help: "Maximum number of change points per chromosome", Default: def.K})
	ploidy := parser.Float("y", "ploidy", &argparse.Options{Help: "Baseline ploidy subtracted on input and added back on output", Default: def.Ploidy})
	epsilon := parser.Float("e", "epsilon", &argparse.Options{Help: "Numerical tolerance of the change point search", Default: def.Epsilon})
	dpThreshold := parser.Float("d", "dpthreshold", &argparse.Options{Help: "Curvature threshold selecting the number of segments", Default: def.DPThreshold})
	output := parser.String("o", "outfile", &argparse.Options{Help: "Output segment table, gzip unless it ends in .zst", Default: DefaultOutput})
	method := parser.Selector("m", "method", []string{MethodLars, MethodBocd}, &argparse.Options{Help: "Change point candidate generator", Default: MethodLars})
	undo := parser.Flag("u", "undo", &argparse.Options{Help: "Merge adjacent segments that are not significantly different"})
	undoScale := parser.Float("s", "undo-scale", &argparse.Options{Help: "Standard deviations a mean difference must exceed to keep a breakpoint", Default: def.MergeScale})
	threads := parser.Int("t", "threads", &argparse.Options{Help: "Chromosomes segmented at once", Default: def.Workers})
	bins := parser.String("b", "bins", &argparse.Options{Help: "Also write the smoothed value of every bin to this file"})
	lenient := parser.Flag("l", "lenient", &argparse.Options{Help: "Zero fill chromosomes whose rows cannot be re-read instead of failing"})
	input := parser.StringPositional(&argparse.Options{Help: "Signal matrix: chr, start, end, value... (plain, gzip or zstd)"})

	if err := parser.Parse(append([]string{ProgramName}, args...)); err != nil {
		return nil, parser, err
	}

	cfg := def
	cfg.K = *k
	cfg.Ploidy = *ploidy
	cfg.Epsilon = *epsilon
	cfg.DPThreshold = *dpThreshold
	cfg.Merge = *undo
	cfg.MergeScale = *undoScale
	cfg.Workers = *threads

	return &Options{
		Input:   *input,
		Output:  *output,
		Bins:    *bins,
		Method:  *method,
		Lenient: *lenient,
		Segment: cfg,
	}, parser, nil
}

// Run is the whole command line program. It returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := utils.GetLogger(ctx)

	opts, parser, err := parseArgs(args)
	if err != nil {
		_, _ = fmt.Fprint(stderr, parser.Usage(err))
		return 1
	}
	if opts.Input == "" {
		_, _ = fmt.Fprintln(stdout, parser.Help(nil))
		return 1
	}

	logger.Info("Command line", zap.String("cmd", strings.Join(append([]string{ProgramName}, args...), " ")))

	if err := run(ctx, opts); err != nil {
		logger.Error("run failed", zap.Error(err))
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	logger.Info("Done", zap.String("outfile", opts.Output))
	return 0
}

func newDetector(ctx context.Context, method string) (cpd.Detector, error) {
	switch method {
	case MethodLars, "":
		return cpd.NewPathDetector(), nil
	case MethodBocd:
		return bocd.NewDetector(ctx, bocd.DefaultOptions()), nil
	}
	return nil, fmt.Errorf("unknown method: %v", method)
}

func run(ctx context.Context, opts *Options) (err error) {
	detector, err := newDetector(ctx, opts.Method)
	if err != nil {
		return err
	}
	runner, err := segment.NewRunner(opts.Segment, detector)
	if err != nil {
		return err
	}

	// nothing is created before the input parsed cleanly
	blocks, err := signal.Load(ctx, opts.Input, signal.Options{
		Ploidy:  opts.Segment.Ploidy,
		Lenient: opts.Lenient,
	})
	if err != nil {
		return err
	}

	out, err := writer.Create(opts.Output)
	if err != nil {
		return err
	}
	created := []*writer.SegmentWriter{out}
	defer func() {
		for _, w := range created {
			err = multierr.Append(err, w.Close())
		}
		if err != nil {
			for _, w := range created {
				if rmErr := os.Remove(w.Path()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					utils.GetLogger(ctx).Warn("remove partial output failed", zap.String("path", w.Path()), zap.Error(rmErr))
				}
			}
		}
	}()

	var bins segment.SegmentSink
	if opts.Bins != "" {
		bw, err := writer.Create(opts.Bins)
		if err != nil {
			return err
		}
		created = append(created, bw)
		bins = bw
	}

	return runner.Run(ctx, blocks, out, bins)
}

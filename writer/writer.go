package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/uyouii/cnv-segment/common"
	"github.com/uyouii/cnv-segment/model"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/multierr"
)

const (
	Header = "chr\tstart\tend\tcn"

	ZstdSuffix = ".zst"
)

// SegmentWriter writes segments as a compressed tab separated table.
type SegmentWriter struct {
	path string
	file *os.File
	comp io.WriteCloser
	buf  *bufio.Writer
	rows int
}

// Create truncates path and writes the header line. Paths ending in .zst are
// zstd compressed, everything else is gzip.
func Create(path string) (*SegmentWriter, error) {
	fd, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %v: %v", common.ErrorIO, path, err)
	}

	var comp io.WriteCloser
	if strings.HasSuffix(path, ZstdSuffix) {
		comp, err = zstd.NewWriter(fd)
		if err != nil {
			_ = fd.Close()
			return nil, fmt.Errorf("%w: zstd writer for %v: %v", common.ErrorIO, path, err)
		}
	} else {
		comp = gzip.NewWriter(fd)
	}

	w := &SegmentWriter{
		path: path,
		file: fd,
		comp: comp,
		buf:  bufio.NewWriter(comp),
	}
	if _, err := w.buf.WriteString(Header + "\n"); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: write %v: %v", common.ErrorIO, path, err)
	}
	return w, nil
}

func (w *SegmentWriter) Path() string {
	return w.path
}

// Rows is the number of segment lines written so far.
func (w *SegmentWriter) Rows() int {
	return w.rows
}

func (w *SegmentWriter) WriteSegments(segments []model.Segment) error {
	for i := range segments {
		if _, err := w.buf.WriteString(formatSegment(&segments[i])); err != nil {
			return fmt.Errorf("%w: write %v: %v", common.ErrorIO, w.path, err)
		}
		w.rows++
	}
	return nil
}

func formatSegment(seg *model.Segment) string {
	var sb strings.Builder
	sb.WriteString(seg.Chromosome)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(seg.Start), 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatUint(uint64(seg.End), 10))
	sb.WriteByte('\t')
	sb.WriteString(utils.FormatFloat(seg.CopyNumber))
	sb.WriteByte('\n')
	return sb.String()
}

// Close flushes buffered lines and finishes the compressed stream.
func (w *SegmentWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.buf.Flush()
	err = multierr.Append(err, w.comp.Close())
	err = multierr.Append(err, w.file.Close())
	w.file = nil
	if err != nil {
		return fmt.Errorf("%w: close %v: %v", common.ErrorIO, w.path, err)
	}
	return nil
}

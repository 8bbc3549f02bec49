package signal

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/uyouii/cnv-segment/common"
	"go.uber.org/multierr"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// source maps the signal file once so that both passes read the same bytes.
type source struct {
	path string
	file *os.File
	data mmap.MMap
}

func openSource(path string) (*source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: signal matrix is missing: %v: %v", common.ErrorIO, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: signal matrix is not a regular file: %v", common.ErrorIO, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: signal matrix is empty: %v", common.ErrorIO, path)
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %v: %v", common.ErrorIO, path, err)
	}
	data, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		_ = fd.Close()
		return nil, fmt.Errorf("%w: mmap %v: %v", common.ErrorIO, path, err)
	}
	return &source{path: path, file: fd, data: data}, nil
}

// reader returns a fresh decompressed view of the mapped file.
func (s *source) reader() (io.ReadCloser, error) {
	rc, err := newDecompressor(bytes.NewReader(s.data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", common.ErrorIO, s.path, err)
	}
	return rc, nil
}

func (s *source) Close() error {
	return multierr.Append(s.data.Unmap(), s.file.Close())
}

// newDecompressor sniffs gzip or zstd magic, anything else is read as plain text.
func newDecompressor(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return gr, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	}
	return io.NopCloser(br), nil
}

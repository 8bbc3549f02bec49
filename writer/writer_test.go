package writer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cnv-segment/common"
	"github.com/uyouii/cnv-segment/model"
)

func readGz(t *testing.T, path string) string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gr)
	require.NoError(t, err)
	return string(data)
}

func TestWriteSegmentsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.gz")
	w, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteSegments([]model.Segment{
		{Chromosome: "chr", Start: 0, End: 500, CopyNumber: 2},
		{Chromosome: "chr", Start: 500, End: 1000, CopyNumber: 5},
	}))
	require.NoError(t, w.WriteSegments([]model.Segment{
		{Chromosome: "chrX", Start: 100, End: 4294967295, CopyNumber: 2.123456789},
	}))
	assert.Equal(t, 3, w.Rows())
	require.NoError(t, w.Close())
	// closing twice is harmless
	require.NoError(t, w.Close())

	assert.Equal(t, "chr\tstart\tend\tcn\n"+
		"chr\t0\t500\t2\n"+
		"chr\t500\t1000\t5\n"+
		"chrX\t100\t4294967295\t2.12346\n", readGz(t, path))
}

func TestWriteHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gz")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSegments(nil))
	require.NoError(t, w.Close())
	assert.Equal(t, Header+"\n", readGz(t, path))
}

func TestWriteSegmentsZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.tsv.zst")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSegments([]model.Segment{{Chromosome: "chr1", Start: 1, End: 2, CopyNumber: 0.5}}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "chr\tstart\tend\tcn\nchr1\t1\t2\t0.5\n", string(data))
}

func TestCreateFails(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "segment.gz"))
	assert.ErrorIs(t, err, common.ErrorIO)
}

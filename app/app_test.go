package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cnv-segment/utils"
	"go.uber.org/zap/zaptest"
)

const stepInput = "chr\t0\t100\t2\n" +
	"chr\t100\t200\t2\n" +
	"chr\t200\t300\t2\n" +
	"chr\t300\t400\t2\n" +
	"chr\t400\t500\t2\n" +
	"chr\t500\t600\t5\n" +
	"chr\t600\t700\t5\n" +
	"chr\t700\t800\t5\n" +
	"chr\t800\t900\t5\n" +
	"chr\t900\t1000\t5\n"

func testContext(t *testing.T) context.Context {
	return utils.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func writeInput(t *testing.T, dir, content string) string {
	path := filepath.Join(dir, "matrix.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

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

func runCLI(t *testing.T, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(testContext(t), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, stepInput)
	out := filepath.Join(dir, "segment.gz")

	code, _, stderr := runCLI(t, "-o", out, in)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "chr\tstart\tend\tcn\nchr\t0\t500\t2\nchr\t500\t1000\t5\n", readGz(t, out))
}

func TestRunWithBinsAndMerge(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, stepInput)
	out := filepath.Join(dir, "segment.gz")
	bins := filepath.Join(dir, "bins.gz")

	code, _, stderr := runCLI(t, "-o", out, "-b", bins, "-u", "-t", "2", in)
	require.Equal(t, 0, code, stderr)

	// each side collapses to a single distinct value, too few to keep the breakpoint
	assert.Equal(t, "chr\tstart\tend\tcn\nchr\t0\t1000\t5\n", readGz(t, out))

	lines := strings.Split(strings.TrimSpace(readGz(t, bins)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "chr\t0\t100\t5", lines[1])
	assert.Equal(t, "chr\t900\t1000\t5", lines[10])
}

func TestRunBocd(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, stepInput)
	out := filepath.Join(dir, "segment.gz")

	code, _, stderr := runCLI(t, "-m", "bocd", "-o", out, in)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "chr\tstart\tend\tcn\nchr\t0\t500\t2\nchr\t500\t1000\t5\n", readGz(t, out))
}

func TestRunFailuresLeaveNoOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "segment.gz")

	code, _, stderr := runCLI(t, "-o", out, filepath.Join(dir, "missing.tsv"))
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
	assert.NoFileExists(t, out)

	empty := filepath.Join(dir, "empty.tsv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	code, _, _ = runCLI(t, "-o", out, empty)
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, out)

	bad := writeInput(t, dir, "chr\t0\t100\tx\n")
	code, _, _ = runCLI(t, "-o", out, bad)
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, out)

	good := writeInput(t, dir, stepInput)
	code, _, _ = runCLI(t, "-o", out, "-u", "-s", "0", good)
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, out)
}

func TestRunUsage(t *testing.T) {
	code, stdout, _ := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "kchange")
	assert.Contains(t, stdout, "over-segment")

	code, _, stderr := runCLI(t, "-m", "hmm", "input.tsv")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestParseArgsDefaults(t *testing.T) {
	opts, _, err := parseArgs([]string{"input.tsv"})
	require.NoError(t, err)
	assert.Equal(t, "input.tsv", opts.Input)
	assert.Equal(t, DefaultOutput, opts.Output)
	assert.Equal(t, MethodLars, opts.Method)
	assert.Equal(t, 300, opts.Segment.K)
	assert.Equal(t, 2.0, opts.Segment.Ploidy)
	assert.False(t, opts.Segment.Merge)
	assert.Empty(t, opts.Bins)

	opts, _, err = parseArgs([]string{"-k", "10", "-y", "3", "-d", "0.25", "-l", "in.gz"})
	require.NoError(t, err)
	assert.Equal(t, 10, opts.Segment.K)
	assert.Equal(t, 3.0, opts.Segment.Ploidy)
	assert.Equal(t, 0.25, opts.Segment.DPThreshold)
	assert.True(t, opts.Lenient)
	assert.Equal(t, "in.gz", opts.Input)
}

package metricsfile

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/insertsize/histogram"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func testResults() []insertsize.Result {
	var hists insertsize.Histograms
	for _, o := range insertsize.Orientations {
		hists[o] = histogram.New("s1." + strings.ToLower(o.String()) + "_count")
	}
	for size, n := range map[int]int64{200: 40, 210: 30, 190: 20, 500: 10} {
		hists[insertsize.FR].Increment(size, n)
	}
	hists[insertsize.RF].Increment(1000, 6)
	return insertsize.ComputeMetrics(insertsize.GroupID{Sample: "s1"}, hists, insertsize.DefaultOpts)
}

func TestEncode(t *testing.T) {
	w := &Writer{Comments: []string{"bio-insert-size -bam in.bam"}}
	for _, r := range testResults() {
		assert.NoError(t, w.Add(r))
	}
	expect.EQ(t, w.Len(), 2)

	var buf bytes.Buffer
	assert.NoError(t, w.Encode(&buf))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	expect.EQ(t, lines[0], "# bio-insert-size -bam in.bam")
	expect.EQ(t, lines[1], "## METRICS CLASS\tInsertSizeMetrics")
	header := strings.Split(lines[2], "\t")
	expect.EQ(t, len(header), 21)
	expect.EQ(t, header[0], "MEDIAN_INSERT_SIZE")
	expect.EQ(t, header[17], "WIDTH_OF_99_PERCENT")

	fr := strings.Split(lines[3], "\t")
	expect.EQ(t, len(fr), 21)
	expect.EQ(t, fr[:8], []string{"200", "10", "190", "500", "201.111111", fr[5], "100", "FR"})
	expect.EQ(t, fr[8:18], []string{"1", "1", "1", "1", "21", "21", "21", "21", "21", "601"})
	expect.EQ(t, fr[18:], []string{"s1", "", ""})

	rf := strings.Split(lines[4], "\t")
	expect.EQ(t, rf[6:8], []string{"6", "RF"})
	// All RF pairs have the same size.
	expect.EQ(t, rf[5], "0.000000")

	expect.EQ(t, lines[5], "")
	expect.EQ(t, lines[6], "## HISTOGRAM\tjava.lang.Integer")
	expect.EQ(t, lines[7], "insert_size\ts1.fr_count\ts1.rf_count")
	expect.EQ(t, lines[8:], []string{
		"190\t20\t0",
		"200\t40\t0",
		"210\t30\t0",
		"1000\t0\t6",
	})
}

func TestWriteFile(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	w := &Writer{}
	for _, r := range testResults() {
		assert.NoError(t, w.Add(r))
	}
	path := filepath.Join(tempDir, "out.insert_size_metrics")
	assert.NoError(t, w.WriteFile(context.Background(), path))

	var buf bytes.Buffer
	assert.NoError(t, w.Encode(&buf))
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(data), buf.String())
}

func TestWriteFileGzip(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	w := &Writer{}
	for _, r := range testResults() {
		assert.NoError(t, w.Add(r))
	}
	path := filepath.Join(tempDir, "out.insert_size_metrics.gz")
	assert.NoError(t, w.WriteFile(context.Background(), path))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close() // nolint: errcheck
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	data, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, w.Encode(&buf))
	expect.EQ(t, string(data), buf.String())
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, (&Writer{}).Encode(&buf))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	expect.EQ(t, len(lines), 2)
}

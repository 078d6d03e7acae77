// Package metricsfile writes insert size metrics and histograms as a
// picard-style text metrics file.
package metricsfile

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/insertsize/histogram"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/klauspost/compress/gzip"
)

// Writer collects exported results and writes them as a metrics file. It
// implements insertsize.Sink.
type Writer struct {
	// Comments are written as "# " lines at the top of the file.
	Comments []string

	metrics    []insertsize.Metrics
	histograms []*histogram.Histogram
}

// Add implements insertsize.Sink.
func (w *Writer) Add(r insertsize.Result) error {
	w.metrics = append(w.metrics, r.Metrics)
	if r.Histogram != nil {
		w.histograms = append(w.histograms, r.Histogram)
	}
	return nil
}

// Len returns the number of metrics records collected so far.
func (w *Writer) Len() int { return len(w.metrics) }

func columns() []string {
	c := []string{
		"MEDIAN_INSERT_SIZE",
		"MEDIAN_ABSOLUTE_DEVIATION",
		"MIN_INSERT_SIZE",
		"MAX_INSERT_SIZE",
		"MEAN_INSERT_SIZE",
		"STANDARD_DEVIATION",
		"READ_PAIRS",
		"PAIR_ORIENTATION",
	}
	for _, p := range insertsize.PercentileLabels {
		c = append(c, fmt.Sprintf("WIDTH_OF_%d_PERCENT", p))
	}
	return append(c, "SAMPLE", "LIBRARY", "READ_GROUP")
}

// formatFloat prints NaN as "?", like picard does.
func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "?"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// Encode writes the metrics section, then the histogram section, to out.
func (w *Writer) Encode(out io.Writer) error {
	t := tsv.NewWriter(out)
	for _, c := range w.Comments {
		t.WriteString("# " + c)
		if err := t.EndLine(); err != nil {
			return err
		}
	}
	t.WriteString("## METRICS CLASS")
	t.WriteString("InsertSizeMetrics")
	if err := t.EndLine(); err != nil {
		return err
	}
	for _, c := range columns() {
		t.WriteString(c)
	}
	if err := t.EndLine(); err != nil {
		return err
	}
	for _, m := range w.metrics {
		t.WriteString(formatFloat(m.MedianInsertSize, -1))
		t.WriteString(formatFloat(m.MedianAbsoluteDeviation, -1))
		t.WriteString(strconv.Itoa(m.MinInsertSize))
		t.WriteString(strconv.Itoa(m.MaxInsertSize))
		t.WriteString(formatFloat(m.MeanInsertSize, 6))
		t.WriteString(formatFloat(m.StandardDeviation, 6))
		t.WriteString(strconv.FormatInt(m.ReadPairs, 10))
		t.WriteString(m.Orientation.String())
		for _, width := range m.Widths {
			t.WriteString(strconv.Itoa(width))
		}
		t.WriteString(m.Group.Sample)
		t.WriteString(m.Group.Library)
		t.WriteString(m.Group.ReadGroup)
		if err := t.EndLine(); err != nil {
			return err
		}
	}
	if len(w.histograms) > 0 {
		if err := w.writeHistograms(t); err != nil {
			return err
		}
	}
	return t.Flush()
}

// writeHistograms writes all histograms side by side, one row per bucket
// occupied in any of them.
func (w *Writer) writeHistograms(t *tsv.Writer) error {
	if err := t.EndLine(); err != nil {
		return err
	}
	t.WriteString("## HISTOGRAM")
	t.WriteString("java.lang.Integer")
	if err := t.EndLine(); err != nil {
		return err
	}
	t.WriteString("insert_size")
	buckets := map[int]bool{}
	for _, h := range w.histograms {
		t.WriteString(h.Label)
		h.Do(func(bucket int, _ int64) bool {
			buckets[bucket] = true
			return false
		})
	}
	if err := t.EndLine(); err != nil {
		return err
	}
	sorted := make([]int, 0, len(buckets))
	for b := range buckets {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)
	for _, b := range sorted {
		t.WriteString(strconv.Itoa(b))
		for _, h := range w.histograms {
			n, _ := h.Get(b)
			t.WriteString(strconv.FormatInt(n, 10))
		}
		if err := t.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the metrics file to path, which may be any path supported by
// grailbio/base/file. Paths ending in ".gz" are gzip compressed.
func (w *Writer) WriteFile(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "couldn't create metrics file:", path)
	}
	defer func() {
		if err2 := out.Close(ctx); err == nil && err2 != nil {
			err = errors.E(err2, "close", path)
		}
	}()
	dst := out.Writer(ctx)
	if !strings.HasSuffix(path, ".gz") {
		if err = w.Encode(dst); err != nil {
			return errors.E(err, "error writing metrics file:", path)
		}
		return nil
	}
	gz := gzip.NewWriter(dst)
	if err = w.Encode(gz); err != nil {
		return errors.E(err, "error writing metrics file:", path)
	}
	if err = gz.Close(); err != nil {
		return errors.E(err, "error compressing metrics file:", path)
	}
	return nil
}

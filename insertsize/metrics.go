package insertsize

import (
	"github.com/grailbio/insertsize/histogram"
)

// Percentiles are the coverage fractions for which Metrics reports a
// width around the median.
var Percentiles = [...]float64{0.10, 0.20, 0.30, 0.40, 0.50, 0.60, 0.70, 0.80, 0.90, 0.99}

// PercentileLabels are the integer percentages matching Percentiles.
var PercentileLabels = [len(Percentiles)]int{10, 20, 30, 40, 50, 60, 70, 80, 90, 99}

// GroupID identifies one aggregation unit. Fields more specific than the unit's
// accumulation level are empty, e.g. a per-sample unit has an empty
// Library and ReadGroup, and the all-reads unit is the zero GroupID.
type GroupID struct {
	Sample    string
	Library   string
	ReadGroup string
}

// Label returns the most specific non-empty name of the unit, or
// "All_Reads".
func (g GroupID) Label() string {
	switch {
	case g.ReadGroup != "":
		return g.ReadGroup
	case g.Library != "":
		return g.Library
	case g.Sample != "":
		return g.Sample
	}
	return "All_Reads"
}

func (g GroupID) String() string {
	return g.Sample + "/" + g.Library + "/" + g.ReadGroup
}

// Metrics are the insert size metrics of one orientation of one unit.
type Metrics struct {
	Group       GroupID
	Orientation Orientation

	// ReadPairs is the number of read pairs with this orientation, before
	// trimming.
	ReadPairs int64
	// MinInsertSize and MaxInsertSize are the extreme insert sizes seen.
	MinInsertSize int
	MaxInsertSize int
	// MedianInsertSize is the count-weighted median insert size.
	MedianInsertSize float64
	// MedianAbsoluteDeviation is the median of |size - MedianInsertSize|.
	MedianAbsoluteDeviation float64
	// MeanInsertSize and StandardDeviation are computed over the trimmed
	// histogram only.
	MeanInsertSize    float64
	StandardDeviation float64
	// Widths[i] is the width of the smallest window centered on the median
	// that covers Percentiles[i] of the read pairs.
	Widths [len(Percentiles)]int
}

// Result is one exported orientation: its metrics and its trimmed
// histogram.
type Result struct {
	Metrics   Metrics
	Histogram *histogram.Histogram
}

// Sink receives the results exported by an Aggregator.
type Sink interface {
	Add(r Result) error
}

// ComputeMetrics derives the metrics of every orientation of hists that
// holds at least opts.MinimumPct of the unit's read pairs. hists is not
// modified; the returned histograms are trimmed copies.
func ComputeMetrics(id GroupID, hists Histograms, opts Opts) []Result {
	groupTotal := float64(hists.Count())
	if groupTotal == 0 {
		return nil
	}
	var results []Result
	for _, o := range Orientations {
		h := hists[o]
		total := float64(h.Count())
		if total < groupTotal*opts.MinimumPct {
			continue
		}
		m := Metrics{Group: id, Orientation: o}
		if !h.Empty() {
			m.ReadPairs = h.Count()
			m.MinInsertSize = h.Min()
			m.MaxInsertSize = h.Max()
			m.MedianInsertSize = h.Median()
			m.MedianAbsoluteDeviation = h.MedianAbsoluteDeviation()
			m.Widths = percentileWidths(h, m.MedianInsertSize)
		}

		// Chimeras and other artifacts produce enough huge inserts to make the
		// mean and stdev meaningless, so compute them on the trimmed data.
		trimmed := h.Clone()
		trimmed.TrimByWidth(trimWidth(&m, opts))
		if !trimmed.Empty() {
			m.MeanInsertSize = trimmed.Mean()
			m.StandardDeviation = trimmed.StandardDeviation()
		}
		results = append(results, Result{Metrics: m, Histogram: trimmed})
	}
	return results
}

// percentileWidths grows a window [low, high] around median one bucket per
// side at a time, and records the window width at which each percentile is
// first covered. The window keeps growing as long as either side is still
// within [h.Min(), h.Max()].
func percentileWidths(h *histogram.Histogram, median float64) (widths [len(Percentiles)]int) {
	var (
		total     = float64(h.Count())
		minBucket = float64(h.Min())
		maxBucket = float64(h.Max())
		covered   float64
	)
	for low, high := median, median; low >= minBucket || high <= maxBucket; low, high = low-1, high+1 {
		if n, ok := h.Get(int(low)); ok {
			covered += float64(n)
		}
		if low != high {
			if n, ok := h.Get(int(high)); ok {
				covered += float64(n)
			}
		}
		pct := covered / total
		distance := int(high-low) + 1
		for i, p := range Percentiles {
			if pct >= p && widths[i] == 0 {
				widths[i] = distance
			}
		}
	}
	return widths
}

func trimWidth(m *Metrics, opts Opts) int {
	if opts.HistogramWidth > 0 {
		return opts.HistogramWidth
	}
	return int(m.MedianInsertSize + opts.Deviations*m.MedianAbsoluteDeviation)
}

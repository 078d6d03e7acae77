package insertsize

import (
	"strings"

	"github.com/grailbio/insertsize/histogram"
)

// Histograms holds one histogram per orientation, indexed by Orientation.
type Histograms [NumOrientations]*histogram.Histogram

// newHistograms creates empty histograms labeled "<prefix>.fr_count",
// "<prefix>.tandem_count" and "<prefix>.rf_count".
func newHistograms(prefix string) Histograms {
	var h Histograms
	for _, o := range Orientations {
		h[o] = histogram.New(prefix + "." + strings.ToLower(o.String()) + "_count")
	}
	return h
}

// Count returns the number of read pairs across all orientations.
func (h Histograms) Count() int64 {
	var n int64
	for _, hist := range h {
		n += hist.Count()
	}
	return n
}

// merge folds table into per-orientation histograms. It must only be
// called once no goroutine increments table anymore.
func merge(table *CountTable, prefix string) Histograms {
	h := newHistograms(prefix)
	table.Range(func(o Observation, count int64) {
		h[o.Orientation].Increment(o.InsertSize, count)
	})
	return h
}

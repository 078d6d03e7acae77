// Package histogram implements an ordered count table keyed by integer
// bucket, with the robust summary statistics used by the insert-size
// metrics (weighted median, median absolute deviation, mean, standard
// deviation) and width-based trimming.
package histogram

import (
	"math"
	"sort"

	"github.com/biogo/store/llrb"
)

// bin is one bucket of a Histogram. It is stored by pointer in the llrb
// tree so that counts can be updated in place.
type bin struct {
	key   int
	count int64
}

// Compare compares two bins by key for use in llrb.
func (b *bin) Compare(c llrb.Comparable) int {
	return b.key - c.(*bin).key
}

// Histogram maps integer buckets to accumulated counts. Buckets are kept in
// ascending key order. A Histogram is not safe for concurrent mutation.
type Histogram struct {
	// Label names the histogram's value column, e.g. "All_Reads.fr_count".
	Label string

	bins  llrb.Tree
	count int64
}

// New creates an empty histogram with the given label.
func New(label string) *Histogram {
	return &Histogram{Label: label}
}

// Increment adds n to the count of the given bucket, creating the bucket if
// needed.
func (h *Histogram) Increment(bucket int, n int64) {
	if c := h.bins.Get(&bin{key: bucket}); c != nil {
		c.(*bin).count += n
	} else {
		h.bins.Insert(&bin{key: bucket, count: n})
	}
	h.count += n
}

// Get returns the count stored in the given bucket. The second return value
// is false if the bucket does not exist.
func (h *Histogram) Get(bucket int) (int64, bool) {
	c := h.bins.Get(&bin{key: bucket})
	if c == nil {
		return 0, false
	}
	return c.(*bin).count, true
}

// Count returns the sum of all bucket counts.
func (h *Histogram) Count() int64 { return h.count }

// Len returns the number of occupied buckets.
func (h *Histogram) Len() int { return h.bins.Len() }

// Empty returns true if the histogram has no buckets.
func (h *Histogram) Empty() bool { return h.bins.Len() == 0 }

// Min returns the smallest bucket. It returns 0 for an empty histogram.
func (h *Histogram) Min() int {
	c := h.bins.Min()
	if c == nil {
		return 0
	}
	return c.(*bin).key
}

// Max returns the largest bucket. It returns 0 for an empty histogram.
func (h *Histogram) Max() int {
	c := h.bins.Max()
	if c == nil {
		return 0
	}
	return c.(*bin).key
}

// Do calls fn for each bucket in ascending order until fn returns true.
func (h *Histogram) Do(fn func(bucket int, count int64) (done bool)) {
	h.bins.Do(func(c llrb.Comparable) bool {
		b := c.(*bin)
		return fn(b.key, b.count)
	})
}

// Clone returns a deep copy of h.
func (h *Histogram) Clone() *Histogram {
	c := New(h.Label)
	h.Do(func(bucket int, count int64) bool {
		c.Increment(bucket, count)
		return false
	})
	return c
}

// Mean returns the count-weighted mean bucket. It returns 0 for an empty
// histogram.
func (h *Histogram) Mean() float64 {
	if h.count == 0 {
		return 0
	}
	var sum float64
	h.Do(func(bucket int, count int64) bool {
		sum += float64(bucket) * float64(count)
		return false
	})
	return sum / float64(h.count)
}

// StandardDeviation returns the sample standard deviation of the buckets,
// weighted by count. A histogram holding a single observation yields NaN.
func (h *Histogram) StandardDeviation() float64 {
	mean := h.Mean()
	var total float64
	h.Do(func(bucket int, count int64) bool {
		d := float64(bucket) - mean
		total += float64(count) * d * d
		return false
	})
	return math.Sqrt(total / float64(h.count-1))
}

// Median returns the count-weighted median bucket. When the total count is
// even and the two middle observations fall in different buckets, the
// result is their average, so it may end in .5.
func (h *Histogram) Median() float64 {
	return weightedMedian(h.count, func(fn func(key float64, count int64) bool) {
		h.Do(func(bucket int, count int64) bool {
			return fn(float64(bucket), count)
		})
	})
}

// MedianAbsoluteDeviation returns the weighted median of |bucket - median|.
func (h *Histogram) MedianAbsoluteDeviation() float64 {
	median := h.Median()
	devs := make(map[float64]int64, h.Len())
	h.Do(func(bucket int, count int64) bool {
		devs[math.Abs(float64(bucket)-median)] += count
		return false
	})
	keys := make([]float64, 0, len(devs))
	for k := range devs {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return weightedMedian(h.count, func(fn func(key float64, count int64) bool) {
		for _, k := range keys {
			if fn(k, devs[k]) {
				return
			}
		}
	})
}

// TrimByWidth removes every bucket whose key exceeds width.
func (h *Histogram) TrimByWidth(width int) {
	var drop []*bin
	h.bins.DoReverse(func(c llrb.Comparable) bool {
		b := c.(*bin)
		if b.key <= width {
			return true
		}
		drop = append(drop, b)
		return false
	})
	for _, b := range drop {
		h.bins.Delete(b)
		h.count -= b.count
	}
}

// weightedMedian computes the median of count observations presented by
// iterate in ascending key order.
func weightedMedian(count int64, iterate func(fn func(key float64, count int64) bool)) float64 {
	switch count {
	case 0:
		return 0
	case 1:
		var only float64
		iterate(func(key float64, _ int64) bool {
			only = key
			return true
		})
		return only
	}
	var midLow, midHigh int64
	if count%2 == 0 {
		midLow = count / 2
		midHigh = midLow + 1
	} else {
		midLow = count/2 + 1
		midHigh = midLow
	}
	var (
		total               int64
		lowValue, highValue float64
		lowFound, highFound bool
	)
	iterate(func(key float64, n int64) bool {
		total += n
		if !lowFound && total >= midLow {
			lowValue, lowFound = key, true
		}
		if !highFound && total >= midHigh {
			highValue, highFound = key, true
		}
		return lowFound && highFound
	})
	return (lowValue + highValue) / 2
}

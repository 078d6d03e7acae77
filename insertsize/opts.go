package insertsize

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Opts configures an Aggregator.
type Opts struct {
	// Workers is the number of goroutines incrementing the CountTable.
	Workers int
	// QueueLength is the capacity of the observation queue. Accept blocks
	// while the queue is full.
	QueueLength int
	// MinimumPct drops an orientation from the output when it holds fewer
	// than this fraction (0 to 1) of the unit's read pairs.
	MinimumPct float64
	// Deviations sets the trim width to median + Deviations*MAD when
	// HistogramWidth is not set.
	Deviations float64
	// HistogramWidth, when positive, overrides the automatic trim width.
	// Only buckets <= HistogramWidth contribute to the mean and standard
	// deviation.
	HistogramWidth int
}

// DefaultOpts are the default options, matching picard's defaults.
var DefaultOpts = Opts{
	Workers:     3,
	QueueLength: 1024,
	MinimumPct:  0.05,
	Deviations:  10,
}

func (o *Opts) validate() error {
	switch {
	case o.Workers < 1:
		return errors.E(errors.Invalid, fmt.Sprintf("insertsize: workers must be positive, got %d", o.Workers))
	case o.QueueLength < 0:
		return errors.E(errors.Invalid, fmt.Sprintf("insertsize: negative queue length %d", o.QueueLength))
	case o.MinimumPct < 0 || o.MinimumPct > 1:
		return errors.E(errors.Invalid, fmt.Sprintf("insertsize: minimum pct %v not in [0, 1]", o.MinimumPct))
	case o.Deviations < 0:
		return errors.E(errors.Invalid, fmt.Sprintf("insertsize: negative deviations %v", o.Deviations))
	}
	return nil
}

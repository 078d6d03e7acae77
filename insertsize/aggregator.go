package insertsize

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// State is the lifecycle state of an Aggregator.
type State int32

const (
	// Created is the state of an Aggregator whose workers are not running yet.
	Created State = iota
	// Ingesting accepts observations.
	Ingesting
	// Finishing is draining the queue and merging counts.
	Finishing
	// Finished has merged histograms ready for export.
	Finished
	// Failed lost a worker; its counts are discarded.
	Failed
)

var stateNames = [...]string{"created", "ingesting", "finishing", "finished", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Aggregator accumulates the insert size histograms of one unit.
//
// Accept may only be called by one goroutine at a time. Finish must be
// called exactly once, after the last Accept. Export may be called once
// Finish succeeded.
type Aggregator struct {
	id    GroupID
	opts  Opts
	state int32 // State

	table *CountTable
	pool  *pool
	hists Histograms
}

// NewAggregator creates an Aggregator for the given unit and starts its
// workers. Canceling ctx before Finish completes fails the aggregation.
func NewAggregator(ctx context.Context, id GroupID, opts Opts) (*Aggregator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{
		id:    id,
		opts:  opts,
		state: int32(Created),
		table: NewCountTable(),
	}
	a.pool = startPool(ctx, a.table, opts.Workers, opts.QueueLength)
	a.setState(Ingesting)
	return a, nil
}

// ID returns the unit of the aggregator.
func (a *Aggregator) ID() GroupID { return a.id }

// State returns the current lifecycle state.
func (a *Aggregator) State() State { return State(atomic.LoadInt32(&a.state)) }

func (a *Aggregator) setState(s State) { atomic.StoreInt32(&a.state, int32(s)) }

func (a *Aggregator) precondition(op string, want State) error {
	return errors.E(errors.Precondition,
		fmt.Sprintf("insertsize: %s on %s aggregator %v, want %s", op, a.State(), a.id, want))
}

// Accept queues one observation. It blocks while the queue is full.
func (a *Aggregator) Accept(o Observation) error {
	if a.State() != Ingesting {
		return a.precondition("Accept", Ingesting)
	}
	if err := o.validate(); err != nil {
		return err
	}
	return a.pool.submit(o)
}

// Finish stops the workers once they have counted every accepted
// observation, and merges the counts into per-orientation histograms.
func (a *Aggregator) Finish() error {
	if !atomic.CompareAndSwapInt32(&a.state, int32(Ingesting), int32(Finishing)) {
		return a.precondition("Finish", Ingesting)
	}
	t0 := time.Now()
	if err := a.pool.finish(); err != nil {
		a.setState(Failed)
		a.table = nil
		return errors.E(err, fmt.Sprintf("insertsize: aggregation failed for %v", a.id))
	}
	t1 := time.Now()
	a.hists = merge(a.table, a.id.Label())
	a.table = nil
	a.setState(Finished)
	log.Debug.Printf("insertsize %v: %d pairs, drained in %v, merged in %v",
		a.id, a.hists.Count(), t1.Sub(t0), time.Since(t1))
	return nil
}

// Histograms returns the merged, untrimmed histograms. It returns an error
// unless the aggregator is Finished. The caller must not modify them.
func (a *Aggregator) Histograms() (Histograms, error) {
	if a.State() != Finished {
		return Histograms{}, a.precondition("Histograms", Finished)
	}
	return a.hists, nil
}

// Export computes the metrics of every orientation that passes the
// minimum share filter and hands them, with their trimmed histograms, to
// sink.
func (a *Aggregator) Export(sink Sink) error {
	if a.State() != Finished {
		return a.precondition("Export", Finished)
	}
	for _, r := range ComputeMetrics(a.id, a.hists, a.opts) {
		if err := sink.Add(r); err != nil {
			return errors.E(err, fmt.Sprintf("insertsize: export %v %v", a.id, r.Metrics.Orientation))
		}
	}
	return nil
}

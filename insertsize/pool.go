package insertsize

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// pool is a FIFO queue of observations drained by a fixed set of workers
// into a CountTable.
type pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan message
	table   *CountTable
	workers int
	done    chan error
}

// startPool launches workers goroutines that count observations into
// table until each of them receives a terminate message. Canceling ctx
// stops all workers with an error.
func startPool(ctx context.Context, table *CountTable, workers, queueLength int) *pool {
	ctx, cancel := context.WithCancel(ctx)
	p := &pool{
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan message, queueLength),
		table:   table,
		workers: workers,
		done:    make(chan error, 1),
	}
	go func() {
		p.done <- traverse.Each(workers, func(worker int) error {
			err := p.work(worker)
			if err != nil {
				// Unblock the other workers and the producer.
				p.cancel()
			}
			return err
		})
	}()
	return p
}

func (p *pool) work(worker int) error {
	n := 0
	for p.ctx.Err() == nil {
		select {
		case m := <-p.queue:
			switch m := m.(type) {
			case terminate:
				log.Debug.Printf("insertsize worker %d: done after %d observations", worker, n)
				return nil
			case Observation:
				p.table.Increment(m)
				n++
			}
		case <-p.ctx.Done():
		}
	}
	return errors.E(errors.Canceled,
		fmt.Sprintf("insertsize worker %d interrupted after %d observations", worker, n), p.ctx.Err())
}

// submit enqueues m, blocking while the queue is full.
func (p *pool) submit(m message) error {
	if p.ctx.Err() == nil {
		select {
		case p.queue <- m:
			return nil
		case <-p.ctx.Done():
		}
	}
	return errors.E(errors.Canceled, "insertsize: queue closed", p.ctx.Err())
}

// finish sends one terminate message per worker and waits for all workers
// to exit. It returns the first worker error, if any.
func (p *pool) finish() error {
	var sendErr error
	for i := 0; i < p.workers; i++ {
		if sendErr = p.submit(terminate{}); sendErr != nil {
			break
		}
	}
	err := <-p.done
	p.cancel()
	if err == nil {
		err = sendErr
	}
	return err
}

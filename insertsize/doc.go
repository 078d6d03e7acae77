/*Package insertsize computes insert-size distribution metrics for
  paired-end reads, one aggregation unit (sample, library or read group)
  at a time.

  This package is meant to replicate the metrics of picard
  CollectInsertSizeMetrics, while spreading the per-read accounting over
  several goroutines.

  Ingestion:

  An Aggregator owns a bounded queue, a fixed pool of worker goroutines
  and a CountTable shared by those workers.  The caller feeds one
  Observation (insert size, pair orientation) per read pair through
  Accept.  Workers pull observations off the queue and increment the
  CountTable entry for that exact observation.  Counting is commutative,
  so the workers need no ordering among themselves; the CountTable is
  sharded, and each entry is an atomic counter, so two workers only
  contend when they insert a brand new key into the same shard.

  Shutdown:

  Finish sends one terminate message per worker down the same queue.  A
  worker exits when it dequeues a terminate message, so every observation
  accepted before Finish has been counted by the time the last worker
  exits.  Finish waits for all workers, then folds the CountTable into
  one Histogram per orientation.  If the context given to NewAggregator
  is canceled while workers are running, the whole aggregation fails and
  no metrics can be exported for it.

  Statistics:

  Export derives one Metrics record per orientation holding at least
  Opts.MinimumPct of the unit's read pairs: min, max, median, median
  absolute deviation, the widths around the median that cover 10%, 20%,
  ..., 90% and 99% of the pairs, and the mean and standard deviation of
  the histogram after trimming outliers beyond
  median + Opts.Deviations*MAD (or Opts.HistogramWidth, if set).
*/
package insertsize

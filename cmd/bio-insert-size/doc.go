/*Command bio-insert-size computes insert size metrics for the paired
  reads of a BAM file, like picard CollectInsertSizeMetrics.

  Example:

    bio-insert-size -bam in.bam -output in.insert_size_metrics \
        -levels all_reads,sample,read_group

  Only the second read of each properly mapped, primary pair is counted.
  Each accumulation unit (all reads, a sample, a library or a read group)
  is aggregated by its own pool of -workers goroutines.  The output file
  holds one metrics row per unit and pair orientation, followed by the
  trimmed insert size histograms.
*/
package main

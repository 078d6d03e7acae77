package main

import (
	"flag"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/insertsize/collector"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/grailbio/insertsize/metricsfile"
	"github.com/pkg/errors"
)

var (
	bamFile           = flag.String("bam", "", "Input BAM filename")
	outputPath        = flag.String("output", "", "Output metrics filename")
	levels            = flag.String("levels", "all_reads", "Comma-separated accumulation levels: all_reads, sample, library, read_group")
	minimumPct        = flag.Float64("minimum-pct", insertsize.DefaultOpts.MinimumPct, "Discard pair orientations holding less than this fraction (0 to 1) of a unit's pairs")
	deviations        = flag.Float64("deviations", insertsize.DefaultOpts.Deviations, "Trim histograms to median + deviations*MAD before computing mean and stdev")
	histogramWidth    = flag.Int("histogram-width", 0, "Explicit histogram trim width, overriding -deviations. 0 means automatic")
	includeDuplicates = flag.Bool("include-duplicates", false, "Count reads flagged as duplicates")
	workers           = flag.Int("workers", insertsize.DefaultOpts.Workers, "Number of counting goroutines per accumulation unit")
	queueLength       = flag.Int("queue-length", insertsize.DefaultOpts.QueueLength, "Observations to queue per accumulation unit")
	parallelism       = flag.Int("parallelism", runtime.NumCPU(), "Number of BAM decompression goroutines")
)

func collect(opts collector.Opts) (*metricsfile.Writer, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, *bamFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", *bamFile)
	}
	defer in.Close(ctx) // nolint: errcheck

	reader, err := bam.NewReader(in.Reader(ctx), *parallelism)
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", *bamFile)
	}
	defer reader.Close() // nolint: errcheck

	c, err := collector.New(ctx, reader.Header(), opts)
	if err != nil {
		return nil, err
	}
	n := 0
	for {
		r, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", *bamFile)
		}
		if err := c.AddRecord(r); err != nil {
			return nil, err
		}
		sam.PutInFreePool(r)
		n++
	}
	log.Printf("read %d records, %d skipped", n, c.Filtered())
	if err := c.Finish(); err != nil {
		return nil, err
	}
	w := &metricsfile.Writer{Comments: []string{"bio-insert-size " + strings.Join(os.Args[1:], " ")}}
	if err := c.Export(w); err != nil {
		return nil, err
	}
	return w, nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		a := flag.Args()
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(a[len(a)-flag.NArg():], " "))
	}
	if *bamFile == "" || *outputPath == "" {
		log.Fatalf("-bam and -output are required")
	}
	lv, err := collector.ParseLevels(*levels)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts := collector.Opts{
		Levels:            lv,
		IncludeDuplicates: *includeDuplicates,
		Insert: insertsize.Opts{
			Workers:        *workers,
			QueueLength:    *queueLength,
			MinimumPct:     *minimumPct,
			Deviations:     *deviations,
			HistogramWidth: *histogramWidth,
		},
	}
	w, err := collect(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := w.WriteFile(vcontext.Background(), *outputPath); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %d metrics to %s", w.Len(), *outputPath)
}

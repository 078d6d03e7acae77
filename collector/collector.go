// Package collector routes the reads of a BAM file to per-unit insert size
// aggregators, at one or more accumulation levels (all reads, sample,
// library, read group).
package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// Level is an accumulation level.
type Level int

const (
	// AllReads aggregates every read into one unit.
	AllReads Level = iota
	// Sample aggregates per SM value.
	Sample
	// Library aggregates per LB value.
	Library
	// ReadGroup aggregates per read group.
	ReadGroup
)

var levelNames = [...]string{"ALL_READS", "SAMPLE", "LIBRARY", "READ_GROUP"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses a level name such as "read_group", ignoring case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return 0, errors.Errorf("unknown accumulation level %q, want one of %s", s, strings.Join(levelNames[:], ", "))
}

// ParseLevels parses a comma-separated list of levels.
func ParseLevels(s string) ([]Level, error) {
	var levels []Level
	for _, field := range strings.Split(s, ",") {
		level, err := ParseLevel(strings.TrimSpace(field))
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// project returns the part of id that identifies its unit at level l.
func (l Level) project(id insertsize.GroupID) insertsize.GroupID {
	switch l {
	case Sample:
		return insertsize.GroupID{Sample: id.Sample}
	case Library:
		return insertsize.GroupID{Sample: id.Sample, Library: id.Library}
	case ReadGroup:
		return id
	}
	return insertsize.GroupID{}
}

// Opts configures a Collector.
type Opts struct {
	// Levels lists the accumulation levels to compute. Defaults to AllReads.
	Levels []Level
	// IncludeDuplicates counts reads flagged as duplicates.
	IncludeDuplicates bool
	// Insert configures every aggregator.
	Insert insertsize.Opts
}

type level struct {
	level       Level
	aggregators map[insertsize.GroupID]*insertsize.Aggregator
}

// Collector feeds records to the aggregators of every configured level.
// AddRecord must not be called concurrently.
type Collector struct {
	opts       Opts
	readGroups map[string]insertsize.GroupID
	levels     []level
	all        []*insertsize.Aggregator
	filtered   int
}

// New creates a Collector with one aggregator per unit named in header's
// read groups, for each level in opts.Levels.
func New(ctx context.Context, header *sam.Header, opts Opts) (*Collector, error) {
	if len(opts.Levels) == 0 {
		opts.Levels = []Level{AllReads}
	}
	c := &Collector{
		opts:       opts,
		readGroups: make(map[string]insertsize.GroupID),
	}
	ids := []insertsize.GroupID{}
	for _, rg := range header.RGs() {
		id := insertsize.GroupID{
			Sample:    rg.Get(smTag),
			Library:   rg.Library(),
			ReadGroup: rg.Name(),
		}
		c.readGroups[rg.Name()] = id
		ids = append(ids, id)
	}
	seen := make(map[Level]bool)
	for _, l := range opts.Levels {
		if seen[l] {
			continue
		}
		seen[l] = true
		lv := level{level: l, aggregators: make(map[insertsize.GroupID]*insertsize.Aggregator)}
		unitIDs := []insertsize.GroupID{{}}
		if l != AllReads {
			unitIDs = ids
		}
		for _, id := range unitIDs {
			key := l.project(id)
			if _, ok := lv.aggregators[key]; ok {
				continue
			}
			a, err := insertsize.NewAggregator(ctx, key, opts.Insert)
			if err != nil {
				c.abort()
				return nil, err
			}
			lv.aggregators[key] = a
			c.all = append(c.all, a)
			vlog.VI(1).Infof("collector: level %v unit %v", l, key)
		}
		c.levels = append(c.levels, lv)
	}
	return c, nil
}

// abort stops the workers of every aggregator created so far.
func (c *Collector) abort() {
	for _, a := range c.all {
		if err := a.Finish(); err != nil {
			log.Error.Printf("collector: %v", err)
		}
	}
}

// AddRecord counts r in every unit it belongs to. Records that do not
// qualify for insert size metrics are skipped. Records whose read group is
// missing from the header only count toward AllReads.
func (c *Collector) AddRecord(r *sam.Record) error {
	obs, ok := ObservationFromRecord(r, c.opts.IncludeDuplicates)
	if !ok {
		c.filtered++
		return nil
	}
	var (
		id    insertsize.GroupID
		known bool
	)
	if name, ok := getReadGroup(r); ok {
		id, known = c.readGroups[name]
	}
	for _, lv := range c.levels {
		if lv.level != AllReads && !known {
			continue
		}
		a := lv.aggregators[lv.level.project(id)]
		if err := a.Accept(obs); err != nil {
			return errors.Wrapf(err, "record %s", r.Name)
		}
	}
	return nil
}

// Filtered returns the number of records skipped by AddRecord.
func (c *Collector) Filtered() int { return c.filtered }

// Finish finishes all aggregators in parallel.
func (c *Collector) Finish() error {
	return traverse.Each(len(c.all), func(i int) error {
		return c.all[i].Finish()
	})
}

// Export exports the metrics of every unit to sink, level by level in the
// order given to New, and units sorted by name within a level.
func (c *Collector) Export(sink insertsize.Sink) error {
	for _, lv := range c.levels {
		keys := make([]insertsize.GroupID, 0, len(lv.aggregators))
		for key := range lv.aggregators {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			if err := lv.aggregators[key].Export(sink); err != nil {
				return err
			}
		}
	}
	return nil
}

package collector

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

const headerText = "@HD\tVN:1.5\tSO:coordinate\n" +
	"@SQ\tSN:chr1\tLN:100000\n" +
	"@RG\tID:rg1\tSM:s1\tLB:lib1\n" +
	"@RG\tID:rg2\tSM:s1\tLB:lib2\n"

type sliceSink []insertsize.Result

func (s *sliceSink) Add(r insertsize.Result) error {
	*s = append(*s, r)
	return nil
}

func withReadGroup(r *sam.Record, rg string) *sam.Record {
	aux, err := sam.NewAux(rgTag, rg)
	if err != nil {
		panic(err)
	}
	r.AuxFields = append(r.AuxFields, aux)
	return r
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels("all_reads, SAMPLE,Library,read_group")
	require.NoError(t, err)
	expect.EQ(t, levels, []Level{AllReads, Sample, Library, ReadGroup})
	expect.EQ(t, ReadGroup.String(), "READ_GROUP")

	_, err = ParseLevels("all_reads,flowcell")
	expect.NotNil(t, err)
	expect.True(t, strings.Contains(err.Error(), "flowcell"))
}

func TestCollector(t *testing.T) {
	header, err := sam.NewHeader([]byte(headerText), nil)
	require.NoError(t, err)
	opts := Opts{
		Levels: []Level{AllReads, Sample, Library, ReadGroup},
		Insert: insertsize.DefaultOpts,
	}
	c, err := New(context.Background(), header, opts)
	require.NoError(t, err)

	const flags = sam.Paired | sam.Read2 | sam.MateReverse
	add := func(rg string, n, size int) {
		for i := 0; i < n; i++ {
			r := newRecord(fmt.Sprintf("%s-%d-%d", rg, size, i), 1000, flags, 1000+size, size)
			if rg != "" {
				withReadGroup(r, rg)
			}
			require.NoError(t, c.AddRecord(r))
		}
	}
	add("rg1", 10, 300)
	add("rg2", 10, 400)
	add("unknown", 5, 500)
	add("", 5, 500)
	require.NoError(t, c.AddRecord(newRecord("first", 1000, sam.Paired|sam.Read1|sam.MateReverse, 1300, 300)))
	expect.EQ(t, c.Filtered(), 1)

	require.NoError(t, c.Finish())
	var sink sliceSink
	require.NoError(t, c.Export(&sink))

	type unit struct {
		id        insertsize.GroupID
		readPairs int64
		median    float64
	}
	var got []unit
	for _, r := range sink {
		expect.EQ(t, r.Metrics.Orientation, insertsize.FR)
		got = append(got, unit{r.Metrics.Group, r.Metrics.ReadPairs, r.Metrics.MedianInsertSize})
	}
	expect.EQ(t, got, []unit{
		{insertsize.GroupID{}, 30, 400},
		{insertsize.GroupID{Sample: "s1"}, 20, 350},
		{insertsize.GroupID{Sample: "s1", Library: "lib1"}, 10, 300},
		{insertsize.GroupID{Sample: "s1", Library: "lib2"}, 10, 400},
		{insertsize.GroupID{Sample: "s1", Library: "lib1", ReadGroup: "rg1"}, 10, 300},
		{insertsize.GroupID{Sample: "s1", Library: "lib2", ReadGroup: "rg2"}, 10, 400},
	})
	expect.EQ(t, sink[1].Histogram.Label, "s1.fr_count")
}

func TestCollectorInvalidOpts(t *testing.T) {
	header, err := sam.NewHeader([]byte(headerText), nil)
	require.NoError(t, err)
	_, err = New(context.Background(), header, Opts{Levels: []Level{ReadGroup}})
	expect.NotNil(t, err)
}

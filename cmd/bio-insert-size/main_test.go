package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/insertsize/collector"
	"github.com/grailbio/insertsize/insertsize"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func writeTestBAM(t *testing.T, path string) {
	ref, err := sam.NewReference("chr1", "", "", 100000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	assert.NoError(t, err)

	f, err := os.Create(path)
	assert.NoError(t, err)
	w, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)

	seq := sam.NewSeq(bytes.Repeat([]byte{'A'}, 100))
	qual := bytes.Repeat([]byte{30}, 100)
	i := 0
	for size, n := range map[int]int{200: 40, 210: 30, 190: 20, 500: 10} {
		for j := 0; j < n; j++ {
			for _, flags := range []sam.Flags{
				sam.Paired | sam.Read1 | sam.MateReverse,
				sam.Paired | sam.Read2 | sam.MateReverse,
			} {
				r := &sam.Record{
					Name:    fmt.Sprintf("pair%d", i),
					Ref:     ref,
					Pos:     1000,
					MapQ:    60,
					Cigar:   sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 100)},
					Flags:   flags,
					MateRef: ref,
					MatePos: 1000 + size - 100,
					TempLen: size,
					Seq:     seq,
					Qual:    qual,
				}
				assert.NoError(t, w.Write(r))
			}
			i++
		}
	}
	assert.NoError(t, w.Close())
	assert.NoError(t, f.Close())
}

func TestCollect(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "in.bam")
	writeTestBAM(t, path)

	*bamFile = path
	*parallelism = 1
	w, err := collect(collector.Opts{
		Levels: []collector.Level{collector.AllReads},
		Insert: insertsize.DefaultOpts,
	})
	assert.NoError(t, err)
	expect.EQ(t, w.Len(), 1)

	var buf bytes.Buffer
	assert.NoError(t, w.Encode(&buf))
	lines := strings.Split(buf.String(), "\n")
	row := strings.Split(lines[3], "\t")
	expect.EQ(t, row[0], "200")
	expect.EQ(t, row[6], "100")
	expect.EQ(t, row[7], "FR")
}

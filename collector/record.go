package collector

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/insertsize/insertsize"
)

var (
	rgTag = sam.Tag{'R', 'G'}
	smTag = sam.Tag{'S', 'M'}
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ObservationFromRecord returns the insert size observation for r. The
// second return value is false if r must not be counted: unpaired,
// unmapped or mate-unmapped reads, secondary or supplementary alignments,
// duplicates (unless includeDuplicates), pairs with no inferred insert
// size, and the first read of every pair, so that each pair is counted
// once.
func ObservationFromRecord(r *sam.Record, includeDuplicates bool) (insertsize.Observation, bool) {
	if (r.Flags&sam.Paired) == 0 ||
		(r.Flags&sam.Unmapped) != 0 ||
		(r.Flags&sam.MateUnmapped) != 0 ||
		(r.Flags&sam.Read1) != 0 ||
		(r.Flags&sam.Secondary) != 0 || (r.Flags&sam.Supplementary) != 0 ||
		((r.Flags&sam.Duplicate) != 0 && !includeDuplicates) ||
		r.TempLen == 0 {
		return insertsize.Observation{}, false
	}
	return insertsize.Observation{
		InsertSize:  abs(r.TempLen),
		Orientation: PairOrientation(r),
	}, true
}

// PairOrientation classifies the pair of a mapped read with a mapped mate.
// Both reads on the same strand is Tandem; otherwise the pair is FR when the
// 5' end of the positive strand read lies before the 5' end of the
// negative strand read, and RF otherwise.
func PairOrientation(r *sam.Record) insertsize.Orientation {
	reverse := (r.Flags & sam.Reverse) != 0
	if reverse == ((r.Flags & sam.MateReverse) != 0) {
		return insertsize.Tandem
	}
	var positiveFivePrime, negativeFivePrime int
	if reverse {
		positiveFivePrime = r.MatePos
		negativeFivePrime = r.End() - 1
	} else {
		positiveFivePrime = r.Pos
		negativeFivePrime = r.Pos + r.TempLen
	}
	if positiveFivePrime < negativeFivePrime {
		return insertsize.FR
	}
	return insertsize.RF
}

func getReadGroup(r *sam.Record) (string, bool) {
	aux := r.AuxFields.Get(rgTag)
	if aux == nil {
		return "", false
	}
	name, ok := aux.Value().(string)
	return name, ok
}

package insertsize

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Orientation is the relative strand/order of the two reads of a pair.
type Orientation uint8

const (
	// FR pairs have the forward read upstream of the reverse read.
	FR Orientation = iota
	// Tandem pairs have both reads on the same strand.
	Tandem
	// RF pairs have the reverse read upstream of the forward read.
	RF

	// NumOrientations is the number of distinct orientations.
	NumOrientations = 3
)

// Orientations lists all orientations in output order.
var Orientations = [NumOrientations]Orientation{FR, Tandem, RF}

var orientationNames = [NumOrientations]string{"FR", "TANDEM", "RF"}

// String returns the picard name of the orientation.
func (o Orientation) String() string {
	if o < NumOrientations {
		return orientationNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", uint8(o))
}

// ParseOrientation parses "FR", "TANDEM" or "RF".
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if s == name {
			return Orientation(i), nil
		}
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("unknown pair orientation %q", s))
}

// Observation is the insert size and orientation of one read pair.
// Observations are comparable and are used directly as CountTable keys.
type Observation struct {
	InsertSize  int
	Orientation Orientation
}

// NewObservation creates an Observation, rejecting negative insert sizes
// and unknown orientations.
func NewObservation(insertSize int, o Orientation) (Observation, error) {
	obs := Observation{InsertSize: insertSize, Orientation: o}
	if err := obs.validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

func (o Observation) validate() error {
	if o.InsertSize < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("negative insert size %d", o.InsertSize))
	}
	if o.Orientation >= NumOrientations {
		return errors.E(errors.Invalid, fmt.Sprintf("invalid orientation %v", o.Orientation))
	}
	return nil
}

func (o Observation) String() string {
	return fmt.Sprintf("%s:%d", o.Orientation, o.InsertSize)
}

// message is an entry of the worker queue: either an Observation or a
// terminate sentinel.
type message interface {
	isMessage()
}

func (Observation) isMessage() {}

// terminate tells the worker that dequeues it to exit.
type terminate struct{}

func (terminate) isMessage() {}

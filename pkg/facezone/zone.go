// Package facezone buckets a normalized face offset into one of nine zones and
// derives the centered signal shown to the user while a liveness capture runs.
//
// Offsets are in [-1, 1]. Negative values mean the face sits left of the frame
// centre, positive values mean it sits right. Values outside that range are
// clamped, never rejected.
package facezone

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

type Zone int

const (
	// NoZone is the previous zone of a classifier that has not seen a sample yet.
	NoZone Zone = -1

	FarLeftZone  Zone = 0
	CenterZone   Zone = 4
	FarRightZone Zone = 8

	ZoneCount = 9
)

type bound struct {
	upper     float64
	inclusive bool
}

// zoneBounds holds the upper edge of zones 0..7 in ascending order. Zone 8
// takes everything above the last edge. Zone 4 is the only zone closed on both
// ends: -0.40 and 0.40 are both centred.
var zoneBounds = [ZoneCount - 1]bound{
	{upper: -0.85},
	{upper: -0.70},
	{upper: -0.55},
	{upper: -0.40},
	{upper: 0.40, inclusive: true},
	{upper: 0.55},
	{upper: 0.70},
	{upper: 0.85},
}

// Classify maps an offset to its zone.
func Classify(p float64) Zone {
	p = Clamp(p)

	i := sort.Search(len(zoneBounds), func(i int) bool {
		b := zoneBounds[i]
		if b.inclusive {
			return p <= b.upper
		}
		return p < b.upper
	})

	return Zone(i)
}

// Clamp pins p into [-1, 1]. NaN carries no offset information and is read as 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p < -1:
		return -1
	case p > 1:
		return 1
	default:
		return p
	}
}

func (z Zone) Valid() bool {
	return z >= FarLeftZone && z <= FarRightZone
}

// Distance is the number of zones between z and the centre.
func (z Zone) Distance() int {
	d := int(z - CenterZone)
	if d < 0 {
		return -d
	}
	return d
}

func (z Zone) Direction() Direction {
	switch {
	case !z.Valid() || z == CenterZone:
		return DirectionNone
	case z < CenterZone:
		return DirectionLeft
	default:
		return DirectionRight
	}
}

func (z Zone) String() string {
	if !z.Valid() {
		return "none"
	}
	return strconv.Itoa(int(z))
}

// Direction is the side of the frame the face drifted to.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

var directionNames = map[Direction]string{
	DirectionNone:  "none",
	DirectionLeft:  "left",
	DirectionRight: "right",
}

func (d Direction) String() string {
	return directionNames[d]
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	for dir, name := range directionNames {
		if name == string(text) {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", text)
}

// Instruction is the correction shown to the user.
func (d Direction) Instruction() string {
	switch d {
	case DirectionLeft:
		return "move right"
	case DirectionRight:
		return "move left"
	default:
		return "hold still"
	}
}

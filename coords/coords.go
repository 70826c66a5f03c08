// Package coords names the planar axes shared by every planar parametrization.
package coords

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Dim2d is the number of planar axes (X, Y).
const Dim2d = 2

// Axis is one planar axis.
type Axis int

const (
	// X is the forward axis.
	X Axis = iota
	// Y is the lateral axis.
	Y
)

// Axes lists the planar axes in layout order.
var Axes = [Dim2d]Axis{X, Y}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Valid reports whether a is X or Y.
func (a Axis) Valid() bool {
	return a == X || a == Y
}

// Component returns the coordinate of p along axis a.
func Component(p r2.Point, a Axis) float64 {
	if a == Y {
		return p.Y
	}
	return p.X
}

// WithComponent returns p with its coordinate along axis a replaced by v.
func WithComponent(p r2.Point, a Axis, v float64) r2.Point {
	if a == Y {
		p.Y = v
	} else {
		p.X = v
	}
	return p
}

// Package spline represents the planar center-of-mass trajectory of a gait as a sequence of
// quintic polynomial segments, one per locomotion phase, and resolves the segments from the free
// coefficients an optimizer works on.
//
// Each segment and axis is p(t) = At⁵ + Bt⁴ + Ct³ + Dt² + Et + F over the segment's local time.
// Only A..D are free; E and F follow from position and velocity continuity at every junction and
// from the boundary condition of the first segment.
package spline

import (
	"fmt"

	"go.viam.com/legplan/coords"
)

// Coefficient names one of the six polynomial coefficients.
type Coefficient int

// The polynomial coefficients, highest power first.
const (
	A Coefficient = iota
	B
	C
	D
	E
	F
)

const (
	// CoeffCount is the number of coefficients of a quintic polynomial.
	CoeffCount = 6
	// FreeCoeffPerAxis is the number of coefficients (A..D) exposed to the optimizer per axis.
	FreeCoeffPerAxis = 4
	// FreeCoeffPerSpline is the number of free coefficients per segment over both axes.
	FreeCoeffPerSpline = FreeCoeffPerAxis * coords.Dim2d
)

func (c Coefficient) String() string {
	if c >= A && c <= F {
		return string(rune('a' + int(c)))
	}
	return fmt.Sprintf("Coefficient(%d)", int(c))
}

// IsFree reports whether the coefficient is one of the optimizer's decision variables.
func (c Coefficient) IsFree() bool {
	return c >= A && c <= D
}

// power is the exponent of t multiplying the coefficient.
func (c Coefficient) power() int {
	return int(F - c)
}

// Derivative selects which time derivative of the polynomial is evaluated.
type Derivative int

// The supported derivatives.
const (
	Pos Derivative = iota
	Vel
	Acc
	Jerk
)

func (d Derivative) String() string {
	switch d {
	case Pos:
		return "pos"
	case Vel:
		return "vel"
	case Acc:
		return "acc"
	case Jerk:
		return "jerk"
	}
	return fmt.Sprintf("Derivative(%d)", int(d))
}

// Valid reports whether d is one of Pos, Vel, Acc or Jerk.
func (d Derivative) Valid() bool {
	return d >= Pos && d <= Jerk
}

// Coefficients holds the full coefficient set of a segment, indexed by axis then coefficient:
// coeff[coords.X][A].
type Coefficients [coords.Dim2d][CoeffCount]float64

// NewCoefficients builds a coefficient set from the x and y sextuples, each ordered A..F.
func NewCoefficients(x, y [CoeffCount]float64) Coefficients {
	return Coefficients{x, y}
}

// basis returns the partial derivative of the deriv-th time derivative of p with respect to
// coefficient c, evaluated at t. For c with power k this is k·(k-1)···(k-deriv+1)·t^(k-deriv).
func basis(deriv Derivative, c Coefficient, t float64) float64 {
	if !deriv.Valid() {
		panic(fmt.Sprintf("unsupported derivative %v", deriv))
	}
	k := c.power()
	n := int(deriv)
	if n > k {
		return 0
	}
	factor := 1.0
	for i := 0; i < n; i++ {
		factor *= float64(k - i)
	}
	for i := 0; i < k-n; i++ {
		factor *= t
	}
	return factor
}

// evaluate returns the deriv-th time derivative of the polynomial with coefficients c at t.
func evaluate(c *[CoeffCount]float64, deriv Derivative, t float64) float64 {
	switch deriv {
	case Pos:
		return ((((c[A]*t+c[B])*t+c[C])*t+c[D])*t+c[E])*t + c[F]
	case Vel:
		return (((5*c[A]*t+4*c[B])*t+3*c[C])*t+2*c[D])*t + c[E]
	case Acc:
		return ((20*c[A]*t+12*c[B])*t+6*c[C])*t + 2*c[D]
	case Jerk:
		return (60*c[A]*t+24*c[B])*t + 6*c[C]
	}
	panic(fmt.Sprintf("unsupported derivative %v", deriv))
}

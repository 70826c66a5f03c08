package spline

import (
	"context"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/legplan/coords"
	"go.viam.com/legplan/gait"
	"go.viam.com/legplan/jacobian"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// SplineCoeffName names the free spline coefficients in size errors and variable blocks.
const SplineCoeffName = "spline_coeff"

// Index maps (segment, axis, free coefficient) to its position in the flat vector of free
// coefficients. The layout is segment-major, then axis, then A..D.
func Index(segment int, axis coords.Axis, c Coefficient) int {
	if segment < 0 || !axis.Valid() || !c.IsFree() {
		panic(fmt.Sprintf("no free coefficient for segment %d, axis %v, coefficient %v", segment, axis, c))
	}
	return FreeCoeffPerSpline*segment + FreeCoeffPerAxis*int(axis) + int(c)
}

// FreeCoefficients extracts the A..D coefficients of the given segments into a flat vector laid
// out by Index.
func FreeCoefficients(splines []Segment) []float64 {
	x := make([]float64, len(splines)*FreeCoeffPerSpline)
	for k := range splines {
		for _, axis := range coords.Axes {
			for c := A; c <= D; c++ {
				x[Index(k, axis, c)] = splines[k].coeff[axis][c]
			}
		}
	}
	return x
}

// affine is the function x ↦ coeffs·x + offset over the free coefficient vector.
type affine struct {
	coeffs []float64
	offset float64
}

func (a affine) eval(x []float64) float64 {
	return floats.Dot(a.coeffs, x) + a.offset
}

// ContinuousSequence is a Sequence whose E and F coefficients are not free: they are derived from
// the free A..D coefficients so that position and velocity are continuous at every junction, and
// from the initial position and velocity of the first segment.
type ContinuousSequence struct {
	Sequence
	pos0 r2.Point
	vel0 r2.Point

	// E and F of segment k along an axis are affine in the free vector; the forms only depend on the
	// durations and the boundary condition, so they are built once per Init.
	eForms [][coords.Dim2d]affine
	fForms [][coords.Dim2d]affine

	x []float64
}

// NewContinuousSequence returns an empty continuity-resolved sequence; call Init before use.
func NewContinuousSequence(logger logging.Logger) *ContinuousSequence {
	return &ContinuousSequence{Sequence: Sequence{logger: logger}}
}

// Init builds the segments and the continuity forms. pos0 and vel0 become F and E of the first
// segment. All free coefficients start at zero.
func (cs *ContinuousSequence) Init(
	pos0, vel0 r2.Point,
	steps gait.StepSequence,
	timings gait.PhaseTimings,
	rule gait.SupportRule,
) error {
	if err := cs.Sequence.Init(steps, timings, rule); err != nil {
		return err
	}
	cs.pos0, cs.vel0 = pos0, vel0
	cs.buildContinuityForms()
	cs.x = make([]float64, cs.TotalFreeCoeff())
	cs.resolve()
	return nil
}

// BoundaryCondition returns the initial position and velocity of the first segment.
func (cs *ContinuousSequence) BoundaryCondition() (r2.Point, r2.Point) {
	return cs.pos0, cs.vel0
}

func (cs *ContinuousSequence) buildContinuityForms() {
	n := cs.TotalFreeCoeff()
	cs.eForms = make([][coords.Dim2d]affine, len(cs.splines))
	cs.fForms = make([][coords.Dim2d]affine, len(cs.splines))

	for _, axis := range coords.Axes {
		e := affine{coeffs: make([]float64, n), offset: coords.Component(cs.vel0, axis)}
		f := affine{coeffs: make([]float64, n), offset: coords.Component(cs.pos0, axis)}
		for k := range cs.splines {
			cs.eForms[k][axis] = e
			cs.fForms[k][axis] = f

			// the next segment starts where this one ends
			T := cs.splines[k].duration
			e, f = endState(Vel, k, axis, e, f, T), endState(Pos, k, axis, e, f, T)
		}
	}
}

// endState returns the affine form of the deriv-th derivative of segment k along axis at local
// time T, given the forms of the segment's E and F.
func endState(deriv Derivative, k int, axis coords.Axis, e, f affine, T float64) affine {
	bE, bF := basis(deriv, E, T), basis(deriv, F, T)
	out := affine{
		coeffs: make([]float64, len(e.coeffs)),
		offset: bE*e.offset + bF*f.offset,
	}
	floats.AddScaled(out.coeffs, bE, e.coeffs)
	floats.AddScaled(out.coeffs, bF, f.coeffs)
	for c := A; c <= D; c++ {
		out.coeffs[Index(k, axis, c)] += basis(deriv, c, T)
	}
	return out
}

// Index is the package level Index, checked against the number of segments.
func (cs *ContinuousSequence) Index(segment int, axis coords.Axis, c Coefficient) int {
	if segment >= len(cs.splines) {
		panic(fmt.Sprintf("spline id %d out of range [0, %d)", segment, len(cs.splines)))
	}
	return Index(segment, axis, c)
}

// AddOptimizedCoefficients writes the free coefficients of every segment from x and derives E
// and F segment by segment, so that every junction is continuous in position and velocity. A
// vector of the wrong length is rejected and nothing is modified.
func (cs *ContinuousSequence) AddOptimizedCoefficients(x []float64) error {
	if !cs.initialized() {
		return ErrNotInitialized
	}
	if len(x) != cs.TotalFreeCoeff() {
		cs.logger.Warnw("rejected spline coefficients", "got", len(x), "want", cs.TotalFreeCoeff())
		return utils.NewSizeMismatchError(SplineCoeffName, len(x), cs.TotalFreeCoeff())
	}
	copy(cs.x, x)
	cs.resolve()
	return nil
}

func (cs *ContinuousSequence) resolve() {
	for k := range cs.splines {
		var coeff Coefficients
		for _, axis := range coords.Axes {
			for c := A; c <= D; c++ {
				coeff[axis][c] = cs.x[Index(k, axis, c)]
			}
			coeff[axis][E] = cs.eForms[k][axis].eval(cs.x)
			coeff[axis][F] = cs.fForms[k][axis].eval(cs.x)
		}
		cs.splines[k].SetSplineCoefficients(coeff)
	}
}

// SetOptimizationParameters is AddOptimizedCoefficients.
func (cs *ContinuousSequence) SetOptimizationParameters(x []float64) error {
	return cs.AddOptimizedCoefficients(x)
}

// OptimizationParameters returns a copy of the current free coefficients.
func (cs *ContinuousSequence) OptimizationParameters() []float64 {
	x := make([]float64, len(cs.x))
	copy(x, cs.x)
	return x
}

// ParameterCount returns the number of free coefficients.
func (cs *ContinuousSequence) ParameterCount() int {
	return cs.TotalFreeCoeff()
}

// JacobianWrtCoefficients returns the derivative of the deriv-th time derivative of the
// trajectory along axis at globalTime with respect to the free coefficients, keyed by Index.
// The trajectory is linear in the free coefficients, so the row does not depend on their values.
func (cs *ContinuousSequence) JacobianWrtCoefficients(globalTime float64, deriv Derivative, axis coords.Axis) *jacobian.Row {
	id := cs.SplineID(globalTime)
	t := cs.LocalTime(globalTime)

	row := jacobian.NewRow(cs.TotalFreeCoeff())
	for c := A; c <= D; c++ {
		row.Add(Index(id, axis, c), basis(deriv, c, t))
	}
	addForm(row, basis(deriv, E, t), cs.eForms[id][axis])
	addForm(row, basis(deriv, F, t), cs.fForms[id][axis])
	return row
}

// JacobianAt stacks JacobianWrtCoefficients for every time in times, one row per time. Rows are
// assembled concurrently, so the sequence must not be written to meanwhile.
func (cs *ContinuousSequence) JacobianAt(
	ctx context.Context,
	times []float64,
	deriv Derivative,
	axis coords.Axis,
) (*mat.Dense, error) {
	cs.mustBeInitialized()
	if !deriv.Valid() || !axis.Valid() {
		return nil, errors.Errorf("no jacobian for derivative %v along axis %v", deriv, axis)
	}
	return jacobian.StackParallel(ctx, len(times), func(i int) *jacobian.Row {
		return cs.JacobianWrtCoefficients(times[i], deriv, axis)
	})
}

func addForm(row *jacobian.Row, alpha float64, form affine) {
	if alpha == 0 {
		return
	}
	for idx, v := range form.coeffs {
		if v != 0 {
			row.Add(idx, alpha*v)
		}
	}
}

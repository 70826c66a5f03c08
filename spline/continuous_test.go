package spline

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/legplan/coords"
	"go.viam.com/legplan/gait"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

const coeffTolerance = 1e-9

func randomCoefficients(r *rand.Rand) Coefficients {
	var coeff Coefficients
	for _, axis := range coords.Axes {
		for c := A; c <= F; c++ {
			coeff[axis][c] = r.Float64()*2 - 1
		}
	}
	return coeff
}

func randomFreeVector(r *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = r.Float64()*2 - 1
	}
	return x
}

func TestHandBuiltContinuousSpline(t *testing.T) {
	// A straight spline in x composed of 3 segments (four-leg support, step, four-leg support)
	// that has equal position and velocity at junctions.
	splines, err := ConstructSplineSequence(gait.StepSequence{gait.LH}, timings, gait.SideSwitchRule{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, splines, test.ShouldHaveLength, 3)

	pos0, vel0, acc0 := 0.4, 1.1, 3.1
	f0, e0, d0 := pos0, vel0, acc0/2

	splines[0].SetSplineCoefficients(NewCoefficients([CoeffCount]float64{0, 0, 0, d0, e0, f0}, [CoeffCount]float64{}))
	T0 := splines[0].Duration()

	f1 := f0 + e0*T0 + d0*math.Pow(T0, 2)
	e1 := e0 + 2*d0*T0
	d1 := 0.0
	splines[1].SetSplineCoefficients(NewCoefficients([CoeffCount]float64{0, 0, 0, d1, e1, f1}, [CoeffCount]float64{}))
	T1 := splines[1].Duration()

	f2 := f1 + e1*T1 + d1*math.Pow(T1, 2)
	e2 := e1 + 2*d1*T1
	splines[2].SetSplineCoefficients(NewCoefficients([CoeffCount]float64{0, 0, 0, 0, e2, f2}, [CoeffCount]float64{}))

	test.That(t, splines[0].State(Pos, 0).X, test.ShouldAlmostEqual, pos0)
	test.That(t, splines[0].State(Vel, 0).X, test.ShouldAlmostEqual, vel0)
	test.That(t, splines[0].State(Acc, 0).X, test.ShouldAlmostEqual, acc0)

	test.That(t, splines[1].State(Pos, 0).X, test.ShouldAlmostEqual, splines[0].State(Pos, T0).X)
	test.That(t, splines[1].State(Vel, 0).X, test.ShouldAlmostEqual, splines[0].State(Vel, T0).X)
	test.That(t, splines[2].State(Pos, 0).X, test.ShouldAlmostEqual, splines[1].State(Pos, T1).X)
	test.That(t, splines[2].State(Vel, 0).X, test.ShouldAlmostEqual, splines[1].State(Vel, T1).X)

	// resolving the same free coefficients reproduces the hand-built E and F
	cs := NewContinuousSequence(logging.NewTestLogger(t))
	err = cs.Init(r2.Point{X: pos0}, r2.Point{X: vel0}, gait.StepSequence{gait.LH}, timings, gait.SideSwitchRule{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.AddOptimizedCoefficients(FreeCoefficients(splines)), test.ShouldBeNil)
	for k, ref := range splines {
		resolved := cs.Spline(k)
		test.That(t, resolved.Coefficient(coords.X, E), test.ShouldAlmostEqual, ref.Coefficient(coords.X, E))
		test.That(t, resolved.Coefficient(coords.X, F), test.ShouldAlmostEqual, ref.Coefficient(coords.X, F))
	}
	test.That(t, 2*cs.Spline(0).Coefficient(coords.X, D), test.ShouldAlmostEqual, acc0)
}

func TestEandFCoefficients(t *testing.T) {
	//nolint:gosec
	r := rand.New(rand.NewSource(7))
	initPos := r2.Point{X: 0.4, Y: 3.4}
	initVel := r2.Point{X: 1.1, Y: -1.9}
	initAcc := r2.Point{X: 3.1, Y: -0.5}

	cs := NewContinuousSequence(logging.NewTestLogger(t))
	err := cs.Init(initPos, initVel, gait.StepSequence{gait.LH, gait.LF, gait.RH}, timings, gait.SideSwitchRule{})
	test.That(t, err, test.ShouldBeNil)

	ref := cs.Splines()
	abcd := make([]float64, cs.TotalFreeCoeff())

	// first segment carries the boundary condition
	coeff := randomCoefficients(r)
	for _, axis := range coords.Axes {
		coeff[axis][D] = coords.Component(initAcc, axis) / 2
		coeff[axis][E] = coords.Component(initVel, axis)
		coeff[axis][F] = coords.Component(initPos, axis)
	}
	ref[0].SetSplineCoefficients(coeff)

	// every following segment starts where the previous one ended
	for k := 1; k < len(ref); k++ {
		coeff := randomCoefficients(r)
		T := ref[k-1].Duration()
		f, e := ref[k-1].State(Pos, T), ref[k-1].State(Vel, T)
		for _, axis := range coords.Axes {
			coeff[axis][E] = coords.Component(e, axis)
			coeff[axis][F] = coords.Component(f, axis)
		}
		ref[k].SetSplineCoefficients(coeff)
	}
	for k := range ref {
		for _, axis := range coords.Axes {
			for c := A; c <= D; c++ {
				abcd[cs.Index(k, axis, c)] = ref[k].Coefficient(axis, c)
			}
		}
	}

	// describe the same spline with only abcd coefficients and the continuity constraint
	test.That(t, cs.AddOptimizedCoefficients(abcd), test.ShouldBeNil)

	first := cs.Spline(0)
	for _, axis := range coords.Axes {
		test.That(t, first.Coefficient(axis, F), test.ShouldAlmostEqual, coords.Component(initPos, axis))
		test.That(t, first.Coefficient(axis, E), test.ShouldAlmostEqual, coords.Component(initVel, axis))
		test.That(t, 2*first.Coefficient(axis, D), test.ShouldAlmostEqual, coords.Component(initAcc, axis))
	}

	for k := 1; k < cs.SplineCount(); k++ {
		resolved := cs.Spline(k)
		for _, axis := range coords.Axes {
			for c := A; c <= F; c++ {
				test.That(t, resolved.Coefficient(axis, c), test.ShouldAlmostEqual, ref[k].Coefficient(axis, c), coeffTolerance)
			}
		}
	}
}

func TestJunctionContinuity(t *testing.T) {
	//nolint:gosec
	r := rand.New(rand.NewSource(11))
	cs := NewContinuousSequence(logging.NewTestLogger(t))
	err := cs.Init(r2.Point{X: -0.2, Y: 0.3}, r2.Point{X: 0.5}, fourSteps, timings, gait.SideSwitchRule{})
	test.That(t, err, test.ShouldBeNil)

	for trial := 0; trial < 5; trial++ {
		test.That(t, cs.AddOptimizedCoefficients(randomFreeVector(r, cs.TotalFreeCoeff())), test.ShouldBeNil)
		splines := cs.Splines()
		for k := 1; k < len(splines); k++ {
			T := splines[k-1].Duration()
			for _, deriv := range []Derivative{Pos, Vel} {
				end, start := splines[k-1].State(deriv, T), splines[k].State(deriv, 0)
				test.That(t, start.X, test.ShouldAlmostEqual, end.X, coeffTolerance)
				test.That(t, start.Y, test.ShouldAlmostEqual, end.Y, coeffTolerance)
			}
		}
		pos0, vel0 := cs.BoundaryCondition()
		test.That(t, cs.State(Pos, 0), test.ShouldResemble, pos0)
		test.That(t, cs.State(Vel, 0), test.ShouldResemble, vel0)
	}
}

func TestIndexIsBijective(t *testing.T) {
	cs := NewContinuousSequence(logging.NewTestLogger(t))
	test.That(t, cs.Init(r2.Point{}, r2.Point{}, fourSteps, timings, gait.SideSwitchRule{}), test.ShouldBeNil)

	seen := map[int]bool{}
	for k := 0; k < cs.SplineCount(); k++ {
		for _, axis := range coords.Axes {
			for c := A; c <= D; c++ {
				idx := cs.Index(k, axis, c)
				test.That(t, seen[idx], test.ShouldBeFalse)
				test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, idx, test.ShouldBeLessThan, cs.TotalFreeCoeff())
				seen[idx] = true
			}
		}
	}
	test.That(t, len(seen), test.ShouldEqual, cs.TotalFreeCoeff())

	test.That(t, Index(1, coords.Y, C), test.ShouldEqual, 14)
	test.That(t, func() { Index(0, coords.X, E) }, test.ShouldPanic)
	test.That(t, func() { Index(-1, coords.X, A) }, test.ShouldPanic)
	test.That(t, func() { cs.Index(cs.SplineCount(), coords.X, A) }, test.ShouldPanic)
}

func TestJacobianWrtCoefficients(t *testing.T) {
	//nolint:gosec
	r := rand.New(rand.NewSource(3))
	cs := NewContinuousSequence(logging.NewTestLogger(t))
	err := cs.Init(r2.Point{X: 0.4, Y: 3.4}, r2.Point{X: 1.1, Y: -1.9}, fourSteps, timings, gait.SideSwitchRule{})
	test.That(t, err, test.ShouldBeNil)

	times := []float64{0, 1.3, 2.0, 2.35, 3.3, 4.1, cs.TotalTime()}
	derivs := []Derivative{Pos, Vel, Acc, Jerk}

	// the trajectory is affine in the free coefficients: state(x) = J·x + state(0)
	offsets := map[Derivative][]r2.Point{}
	for _, deriv := range derivs {
		for _, tm := range times {
			offsets[deriv] = append(offsets[deriv], cs.State(deriv, tm))
		}
	}

	x := randomFreeVector(r, cs.TotalFreeCoeff())
	test.That(t, cs.SetOptimizationParameters(x), test.ShouldBeNil)
	test.That(t, cs.OptimizationParameters(), test.ShouldResemble, x)

	for _, deriv := range derivs {
		for i, tm := range times {
			state := cs.State(deriv, tm)
			for _, axis := range coords.Axes {
				row := cs.JacobianWrtCoefficients(tm, deriv, axis)
				test.That(t, row.Size(), test.ShouldEqual, cs.ParameterCount())
				predicted := row.Dot(x) + coords.Component(offsets[deriv][i], axis)
				test.That(t, predicted, test.ShouldAlmostEqual, coords.Component(state, axis), coeffTolerance)
			}
		}
	}

	jac, err := cs.JacobianAt(context.Background(), times, Vel, coords.X)
	test.That(t, err, test.ShouldBeNil)
	for i, tm := range times {
		row := cs.JacobianWrtCoefficients(tm, Vel, coords.X).Dense()
		test.That(t, mat.Equal(jac.RowView(i), row), test.ShouldBeTrue)
	}

	_, err = cs.JacobianAt(context.Background(), times, Vel, coords.Axis(5))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Axis(5)")
	_, err = cs.JacobianAt(context.Background(), times, Derivative(4), coords.X)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, func() { cs.JacobianWrtCoefficients(1.0, Derivative(4), coords.X) }, test.ShouldPanic)
	test.That(t, func() { basis(Derivative(-1), A, 1.0) }, test.ShouldPanic)

	// a state in the first segment only depends on that segment's free coefficients
	row := cs.JacobianWrtCoefficients(1.0, Pos, coords.Y)
	test.That(t, row.Indices(), test.ShouldResemble, []int{4, 5, 6, 7})
}

func TestAddOptimizedCoefficientsErrors(t *testing.T) {
	cs := NewContinuousSequence(logging.NewTestLogger(t))
	test.That(t, cs.AddOptimizedCoefficients(make([]float64, 8)), test.ShouldBeError, ErrNotInitialized)

	test.That(t, cs.Init(r2.Point{X: 1}, r2.Point{}, fourSteps, timings, gait.SideSwitchRule{}), test.ShouldBeNil)
	x := make([]float64, cs.TotalFreeCoeff())
	x[0] = 0.25
	test.That(t, cs.AddOptimizedCoefficients(x), test.ShouldBeNil)
	before := cs.Splines()

	err := cs.AddOptimizedCoefficients(make([]float64, cs.TotalFreeCoeff()-1))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, utils.IsSizeMismatch(err), test.ShouldBeTrue)
	test.That(t, cs.Splines(), test.ShouldResemble, before)
	test.That(t, cs.OptimizationParameters(), test.ShouldResemble, x)
}

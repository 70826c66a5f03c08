// Package cop holds the piecewise-constant center-of-pressure trajectory optimized alongside the
// CoM splines.
package cop

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/legplan/coords"
	"go.viam.com/legplan/jacobian"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// Name is the name of the center-of-pressure parameters in size errors and variable blocks.
const Name = "cop"

// ErrNotInitialized is returned when parameters are written to a field before Init.
var ErrNotInitialized = errors.New("center-of-pressure field is not initialized")

// Field is a 2D signal that is constant over uniform dt-wide slices of [0, T]. The last slice is
// shorter when T is not a multiple of dt. Its optimization parameters are the slice values laid out
// as (x0, y0, x1, y1, ...).
type Field struct {
	logger logging.Logger
	dt     float64
	total  float64
	n      int
	values []float64
}

// NewField returns an empty field; call Init before use.
func NewField(logger logging.Logger) *Field {
	return &Field{logger: logger}
}

// Init partitions [0, total] into ceil(total/dt) slices and zeroes every value.
func (f *Field) Init(dt, total float64) error {
	var err error
	if !(dt > 0) || !utils.IsFinite(dt) {
		err = multierr.Append(err, utils.NewNonPositiveError("cop dt", dt))
	}
	if !(total > 0) || !utils.IsFinite(total) {
		err = multierr.Append(err, utils.NewNonPositiveError("cop duration", total))
	}
	if err != nil {
		return err
	}

	f.dt, f.total = dt, total
	// a total that is a multiple of dt up to round-off must not get an extra sliver slice
	f.n = int(math.Ceil(total/dt - utils.DefaultEpsilon))
	if f.n < 1 {
		f.n = 1
	}
	f.values = make([]float64, coords.Dim2d*f.n)
	f.logger.Debugw("initialized center-of-pressure field", "dt", dt, "duration", total, "segments", f.n)
	return nil
}

func (f *Field) mustBeInitialized() {
	if f.n == 0 {
		panic(ErrNotInitialized)
	}
}

// Dt returns the slice width.
func (f *Field) Dt() float64 {
	return f.dt
}

// TotalTime returns the duration covered by the field.
func (f *Field) TotalTime() float64 {
	return f.total
}

// SegmentCount returns the number of constant slices.
func (f *Field) SegmentCount() int {
	return f.n
}

// Segment returns the slice covering t. Slices are closed on the left, t is clamped into [0, T] and
// T itself belongs to the last slice.
func (f *Field) Segment(t float64) int {
	f.mustBeInitialized()
	t = utils.Clamp(t, 0, f.total)
	k := int(math.Floor(t/f.dt + utils.DefaultEpsilon))
	return utils.ClampInt(k, 0, f.n-1)
}

// SegmentSpan returns the global start and end time of slice k.
func (f *Field) SegmentSpan(k int) (float64, float64) {
	f.mustBeInitialized()
	if k < 0 || k >= f.n {
		panic(fmt.Sprintf("cop segment %d out of range [0, %d)", k, f.n))
	}
	return float64(k) * f.dt, math.Min(float64(k+1)*f.dt, f.total)
}

// Index returns the position of the value along axis that is active at t.
func (f *Field) Index(t float64, axis coords.Axis) int {
	if !axis.Valid() {
		panic(fmt.Sprintf("invalid axis %d", axis))
	}
	return coords.Dim2d*f.Segment(t) + int(axis)
}

// Cop returns the center of pressure at t.
func (f *Field) Cop(t float64) r2.Point {
	k := coords.Dim2d * f.Segment(t)
	return r2.Point{X: f.values[k], Y: f.values[k+1]}
}

// JacobianWrtCop returns the derivative of the axis component of Cop(t) with respect to the
// parameters: a single 1 at Index(t, axis).
func (f *Field) JacobianWrtCop(t float64, axis coords.Axis) *jacobian.Row {
	row := jacobian.NewRow(len(f.values))
	row.Set(f.Index(t, axis), 1)
	return row
}

// JacobianAt stacks JacobianWrtCop for every time in times, one row per time.
func (f *Field) JacobianAt(ctx context.Context, times []float64, axis coords.Axis) (*mat.Dense, error) {
	f.mustBeInitialized()
	if !axis.Valid() {
		return nil, errors.Errorf("no jacobian along axis %v", axis)
	}
	return jacobian.StackParallel(ctx, len(times), func(i int) *jacobian.Row {
		return f.JacobianWrtCop(times[i], axis)
	})
}

// SetOptimizationParameters overwrites every slice value. A vector of the wrong length is rejected
// and nothing is modified.
func (f *Field) SetOptimizationParameters(x []float64) error {
	if f.n == 0 {
		return ErrNotInitialized
	}
	if len(x) != len(f.values) {
		f.logger.Warnw("rejected center-of-pressure values", "got", len(x), "want", len(f.values))
		return utils.NewSizeMismatchError(Name, len(x), len(f.values))
	}
	copy(f.values, x)
	return nil
}

// OptimizationParameters returns a copy of the slice values.
func (f *Field) OptimizationParameters() []float64 {
	x := make([]float64, len(f.values))
	copy(x, f.values)
	return x
}

// ParameterCount returns the number of parameters, two per slice.
func (f *Field) ParameterCount() int {
	return len(f.values)
}

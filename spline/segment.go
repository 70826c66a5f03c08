package spline

import (
	"fmt"

	"github.com/golang/geo/r2"

	"go.viam.com/legplan/coords"
	"go.viam.com/legplan/gait"
	"go.viam.com/legplan/utils"
)

// PhaseType is the locomotion phase a segment covers.
type PhaseType int

// The locomotion phases.
const (
	InitialFourLegSupport PhaseType = iota
	Step
	FourLegSupport
	FinalFourLegSupport
)

func (p PhaseType) String() string {
	switch p {
	case InitialFourLegSupport:
		return "initial_four_leg_support"
	case Step:
		return "step"
	case FourLegSupport:
		return "four_leg_support"
	case FinalFourLegSupport:
		return "final_four_leg_support"
	}
	return fmt.Sprintf("PhaseType(%d)", int(p))
}

// Segment is one quintic polynomial per axis over the local time domain [0, Duration] of a single
// locomotion phase.
type Segment struct {
	id       int
	duration float64
	phase    PhaseType
	// the step being executed (Step) or the next planned step (support phases)
	step  int
	leg   gait.LegID
	coeff Coefficients
}

// NewSegment returns a zero-coefficient segment. For Step phases step is the executed step, for
// support phases it is the next planned step.
func NewSegment(id int, duration float64, phase PhaseType, step int) Segment {
	return Segment{id: id, duration: duration, phase: phase, step: step}
}

func newStepSegment(id int, duration float64, step int, leg gait.LegID) Segment {
	s := NewSegment(id, duration, Step, step)
	s.leg = leg
	return s
}

// ID returns the position of the segment in its sequence.
func (s Segment) ID() int {
	return s.id
}

// Duration returns the length of the local time domain.
func (s Segment) Duration() float64 {
	return s.duration
}

// Type returns the locomotion phase of the segment.
func (s Segment) Type() PhaseType {
	return s.phase
}

// IsFourLegSupport reports whether all four feet are on the ground during the segment.
func (s Segment) IsFourLegSupport() bool {
	return s.phase != Step
}

// CurrStep returns the index of the step executed during a Step segment.
func (s Segment) CurrStep() (int, bool) {
	if s.phase != Step {
		return 0, false
	}
	return s.step, true
}

// NextPlannedStep returns the index of the step following a four-leg-support segment. The final
// segment has no next step.
func (s Segment) NextPlannedStep() (int, bool) {
	if s.phase == Step || s.phase == FinalFourLegSupport {
		return 0, false
	}
	return s.step, true
}

// Leg returns the swinging leg of a Step segment.
func (s Segment) Leg() (gait.LegID, bool) {
	if s.phase != Step {
		return 0, false
	}
	return s.leg, true
}

// Coefficients returns a copy of the full coefficient set.
func (s Segment) Coefficients() Coefficients {
	return s.coeff
}

// Coefficient returns a single coefficient of one axis.
func (s Segment) Coefficient(axis coords.Axis, c Coefficient) float64 {
	return s.coeff[axis][c]
}

// SetSplineCoefficients replaces the full coefficient set.
func (s *Segment) SetSplineCoefficients(coeff Coefficients) {
	s.coeff = coeff
}

// State evaluates position, velocity, acceleration or jerk of both axes at localTime. Times
// outside [0, Duration] are clamped to the nearest boundary.
func (s Segment) State(deriv Derivative, localTime float64) r2.Point {
	t := utils.Clamp(localTime, 0, s.duration)
	return r2.Point{
		X: evaluate(&s.coeff[coords.X], deriv, t),
		Y: evaluate(&s.coeff[coords.Y], deriv, t),
	}
}

func (s Segment) String() string {
	str := fmt.Sprintf("segment %d: %v, T=%.3f", s.id, s.phase, s.duration)
	switch s.phase {
	case Step:
		str += fmt.Sprintf(", step=%d, leg=%v", s.step, s.leg)
	case InitialFourLegSupport, FourLegSupport:
		str += fmt.Sprintf(", next_step=%d", s.step)
	case FinalFourLegSupport:
	}
	return str
}

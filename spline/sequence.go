package spline

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/legplan/gait"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// ErrNotInitialized is returned when a sequence is used before Init.
var ErrNotInitialized = errors.New("spline sequence used before Init")

// Sequence is the ordered list of segments of one gait. It is built once per planning problem and
// covers the global time domain [0, TotalTime()] without gaps.
type Sequence struct {
	logger  logging.Logger
	splines []Segment
	// ends[i] is the global time at which segment i ends.
	ends   []float64
	nSteps int
}

// NewSequence returns an empty sequence; call Init before use.
func NewSequence(logger logging.Logger) *Sequence {
	return &Sequence{logger: logger}
}

// ConstructSplineSequence builds the zero-coefficient segments of a gait: one initial
// four-leg-support phase, one Step phase per step with four-leg-support phases inserted where rule
// says so, and one final four-leg-support phase.
func ConstructSplineSequence(
	steps gait.StepSequence,
	timings gait.PhaseTimings,
	rule gait.SupportRule,
) ([]Segment, error) {
	if err := timings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid phase timings")
	}
	inserted, err := gait.SupportInsertions(steps, rule)
	if err != nil {
		return nil, err
	}

	splines := make([]Segment, 0, len(steps)+lo.Count(inserted, true)+2)
	splines = append(splines, NewSegment(0, timings.StanceInitial, InitialFourLegSupport, 0))
	for step, leg := range steps {
		if inserted[step] {
			splines = append(splines, NewSegment(len(splines), timings.Stance, FourLegSupport, step))
		}
		splines = append(splines, newStepSegment(len(splines), timings.Swing, step, leg))
	}
	splines = append(splines, NewSegment(len(splines), timings.StanceFinal, FinalFourLegSupport, len(steps)))
	return splines, nil
}

// Init builds the segments from the step sequence and phase timings, discarding any previous
// state. It fails on an empty step sequence, a non-positive duration or an invalid rule.
func (s *Sequence) Init(steps gait.StepSequence, timings gait.PhaseTimings, rule gait.SupportRule) error {
	splines, err := ConstructSplineSequence(steps, timings, rule)
	if err != nil {
		return err
	}

	s.splines = splines
	s.nSteps = len(steps)
	durations := lo.Map(splines, func(seg Segment, _ int) float64 { return seg.duration })
	s.ends = floats.CumSum(make([]float64, len(durations)), durations)

	s.logger.Debugw("built spline sequence",
		"segments", len(splines),
		"steps", s.nSteps,
		"inserted_four_leg_support", lo.CountBy(splines, func(seg Segment) bool { return seg.phase == FourLegSupport }),
		"total_time", s.TotalTime(),
	)
	return nil
}

func (s *Sequence) initialized() bool {
	return len(s.splines) > 0
}

func (s *Sequence) mustBeInitialized() {
	if !s.initialized() {
		panic(ErrNotInitialized)
	}
}

// TotalTime returns the sum of all segment durations.
func (s *Sequence) TotalTime() float64 {
	s.mustBeInitialized()
	return s.ends[len(s.ends)-1]
}

// SplineID returns the segment covering globalTime. The time is first clamped into
// [0, TotalTime()]. Upper bounds are closed: a junction time belongs to the earlier segment and
// TotalTime() belongs to the last one.
func (s *Sequence) SplineID(globalTime float64) int {
	s.mustBeInitialized()
	t := utils.Clamp(globalTime, 0, s.TotalTime())
	for id, end := range s.ends {
		if t <= end+utils.DefaultEpsilon {
			return id
		}
	}
	return len(s.splines) - 1
}

// startTime returns the global time at which segment id starts.
func (s *Sequence) startTime(id int) float64 {
	if id == 0 {
		return 0
	}
	return s.ends[id-1]
}

// LocalTime returns the time elapsed since the start of the segment covering globalTime.
func (s *Sequence) LocalTime(globalTime float64) float64 {
	id := s.SplineID(globalTime)
	t := utils.Clamp(globalTime, 0, s.TotalTime())
	return utils.Clamp(t-s.startTime(id), 0, s.splines[id].duration)
}

// State evaluates the trajectory at globalTime, clamped into [0, TotalTime()].
func (s *Sequence) State(deriv Derivative, globalTime float64) r2.Point {
	id := s.SplineID(globalTime)
	return s.splines[id].State(deriv, s.LocalTime(globalTime))
}

// Sample is the trajectory state at one instant.
type Sample struct {
	Time float64
	Pos  r2.Point
	Vel  r2.Point
	Acc  r2.Point
}

// Sample evaluates the trajectory every dt seconds from 0, always including TotalTime().
func (s *Sequence) Sample(dt float64) ([]Sample, error) {
	if !(dt > 0) {
		return nil, utils.NewNonPositiveError("sample dt", dt)
	}
	total := s.TotalTime()
	n := int(math.Floor(total/dt + utils.DefaultEpsilon))

	samples := make([]Sample, 0, n+2)
	at := func(t float64) Sample {
		return Sample{Time: t, Pos: s.State(Pos, t), Vel: s.State(Vel, t), Acc: s.State(Acc, t)}
	}
	for i := 0; i <= n; i++ {
		samples = append(samples, at(float64(i)*dt))
	}
	if last := samples[len(samples)-1].Time; !utils.Float64AlmostEqual(last, total, utils.DefaultEpsilon) {
		samples = append(samples, at(total))
	}
	return samples, nil
}

// SplineCount returns the number of segments.
func (s *Sequence) SplineCount() int {
	return len(s.splines)
}

// StepCount returns the number of steps the sequence was built from.
func (s *Sequence) StepCount() int {
	return s.nSteps
}

// TotalFreeCoeff returns the number of free coefficients over all segments and axes.
func (s *Sequence) TotalFreeCoeff() int {
	return len(s.splines) * FreeCoeffPerSpline
}

// Spline returns a copy of segment id.
func (s *Sequence) Spline(id int) Segment {
	if id < 0 || id >= len(s.splines) {
		panic(fmt.Sprintf("spline id %d out of range [0, %d)", id, len(s.splines)))
	}
	return s.splines[id]
}

// LastSpline returns a copy of the final segment.
func (s *Sequence) LastSpline() Segment {
	s.mustBeInitialized()
	return s.splines[len(s.splines)-1]
}

// Splines returns a copy of all segments in order.
func (s *Sequence) Splines() []Segment {
	splines := make([]Segment, len(s.splines))
	copy(splines, s.splines)
	return splines
}

package gait

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/legplan/utils"
)

// ErrEmptyStepSequence is returned when a gait has no steps.
var ErrEmptyStepSequence = errors.New("step sequence is empty")

// default phase durations, in seconds.
const (
	defaultStanceInitial = 2.0
	defaultSwing         = 0.6
	defaultStance        = 0.1
	defaultStanceFinal   = 0.1
)

// PhaseTimings holds the duration of every kind of locomotion phase, in seconds.
type PhaseTimings struct {
	// Duration of the initial four-leg-support phase.
	StanceInitial float64 `json:"t_stance_initial"`
	// Duration of each step (swing) phase.
	Swing float64 `json:"t_swing"`
	// Duration of every four-leg-support phase inserted between steps.
	Stance float64 `json:"t_stance"`
	// Duration of the final four-leg-support phase.
	StanceFinal float64 `json:"t_stance_final"`
}

// NewPhaseTimings builds timings in the order the planner usually lists them.
func NewPhaseTimings(stance, swing, stanceInitial, stanceFinal float64) PhaseTimings {
	return PhaseTimings{
		StanceInitial: stanceInitial,
		Swing:         swing,
		Stance:        stance,
		StanceFinal:   stanceFinal,
	}
}

// DefaultPhaseTimings returns the timings used when a config leaves them unset.
func DefaultPhaseTimings() PhaseTimings {
	return NewPhaseTimings(defaultStance, defaultSwing, defaultStanceInitial, defaultStanceFinal)
}

// Validate returns every non-positive duration as one combined error.
func (pt PhaseTimings) Validate() error {
	var err error
	for _, d := range []struct {
		name  string
		value float64
	}{
		{"t_stance_initial", pt.StanceInitial},
		{"t_swing", pt.Swing},
		{"t_stance", pt.Stance},
		{"t_stance_final", pt.StanceFinal},
	} {
		if !(d.value > 0) || !utils.IsFinite(d.value) {
			err = multierr.Append(err, utils.NewNonPositiveError(d.name, d.value))
		}
	}
	return err
}

// Package gait describes the inputs a planner hands to the trajectory parametrization: the
// ordered stepping legs, the duration of every locomotion phase and the rule deciding where
// four-leg-support phases are inserted between steps.
package gait

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// LegID identifies one leg of a quadruped.
type LegID int

// The legs of a quadruped, front/hind and left/right.
const (
	LF LegID = iota
	RF
	LH
	RH
)

var legNames = map[LegID]string{LF: "LF", RF: "RF", LH: "LH", RH: "RH"}

func (l LegID) String() string {
	if name, ok := legNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LegID(%d)", int(l))
}

// Valid reports whether l is one of the four legs.
func (l LegID) Valid() bool {
	_, ok := legNames[l]
	return ok
}

// IsLeft reports whether the leg is on the left side of the body.
func (l LegID) IsLeft() bool {
	return l == LF || l == LH
}

// IsFront reports whether the leg is a front leg.
func (l LegID) IsFront() bool {
	return l == LF || l == RF
}

// ParseLegID parses a case-insensitive leg name such as "lh".
func ParseLegID(name string) (LegID, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for id, legName := range legNames {
		if legName == upper {
			return id, nil
		}
	}
	return 0, errors.Errorf("unknown leg %q, expected one of LF, RF, LH, RH", name)
}

// StepSequence is the ordered list of legs that swing, one per step.
type StepSequence []LegID

// ParseStepSequence parses leg names into a step sequence.
func ParseStepSequence(names []string) (StepSequence, error) {
	steps := make(StepSequence, 0, len(names))
	for i, name := range names {
		leg, err := ParseLegID(name)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i)
		}
		steps = append(steps, leg)
	}
	return steps, nil
}

// Validate returns an error if the sequence is empty or contains an unknown leg.
func (s StepSequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptyStepSequence
	}
	for i, leg := range s {
		if !leg.Valid() {
			return errors.Errorf("step %d has invalid leg %v", i, leg)
		}
	}
	return nil
}

// Strings returns the leg names of the sequence.
func (s StepSequence) Strings() []string {
	names := make([]string, len(s))
	for i, leg := range s {
		names[i] = leg.String()
	}
	return names
}

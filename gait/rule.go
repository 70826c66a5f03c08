package gait

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// names of the built-in support rules.
const (
	SideSwitchRuleName = "side_switch"
	NeverRuleName      = "never"
	everyNRulePrefix   = "every_n:"
)

// A SupportRule decides where four-leg-support phases are inserted between consecutive steps.
// InsertBefore is only asked about steps 1..len(steps)-1: the first step always follows the
// initial four-leg-support phase and the last one is always followed by the final one.
type SupportRule interface {
	Name() string
	InsertBefore(steps StepSequence, i int) bool
}

// SideSwitchRule inserts a four-leg-support phase whenever the swing leg changes lateral side, so
// the body can shift its weight across while all feet are down. For the crawl LH, LF, RH, RF this
// inserts exactly one phase, between LF and RH.
type SideSwitchRule struct{}

// Name returns the config name of the rule.
func (SideSwitchRule) Name() string { return SideSwitchRuleName }

// InsertBefore reports whether step i swings a leg on the other side than step i-1.
func (SideSwitchRule) InsertBefore(steps StepSequence, i int) bool {
	return steps[i].IsLeft() != steps[i-1].IsLeft()
}

// NeverRule never inserts four-leg-support phases between steps.
type NeverRule struct{}

// Name returns the config name of the rule.
func (NeverRule) Name() string { return NeverRuleName }

// InsertBefore always returns false.
func (NeverRule) InsertBefore(StepSequence, int) bool { return false }

// EveryNRule inserts a four-leg-support phase after every N steps.
type EveryNRule struct {
	N int
}

// Name returns the config name of the rule.
func (r EveryNRule) Name() string { return everyNRulePrefix + strconv.Itoa(r.N) }

// InsertBefore reports whether i is a multiple of N.
func (r EveryNRule) InsertBefore(_ StepSequence, i int) bool {
	return i%r.N == 0
}

// Validate returns an error if N is not positive.
func (r EveryNRule) Validate() error {
	if r.N <= 0 {
		return errors.Errorf("every_n rule needs a positive step count, got %d", r.N)
	}
	return nil
}

// SupportRuleFromName returns the built-in rule with the given config name. An empty name selects
// the SideSwitchRule.
func SupportRuleFromName(name string) (SupportRule, error) {
	switch {
	case name == "" || name == SideSwitchRuleName:
		return SideSwitchRule{}, nil
	case name == NeverRuleName:
		return NeverRule{}, nil
	case strings.HasPrefix(name, everyNRulePrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(name, everyNRulePrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid support rule %q", name)
		}
		rule := EveryNRule{N: n}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		return rule, nil
	}
	return nil, errors.Errorf("unknown support rule %q", name)
}

// SupportInsertions evaluates rule over the step sequence and returns, per step, whether a
// four-leg-support phase precedes it. The first entry is always false.
func SupportInsertions(steps StepSequence, rule SupportRule) ([]bool, error) {
	if err := steps.Validate(); err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, errors.New("support rule is nil")
	}
	if v, ok := rule.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	inserted := make([]bool, len(steps))
	for i := 1; i < len(steps); i++ {
		inserted[i] = rule.InsertBefore(steps, i)
	}
	return inserted, nil
}

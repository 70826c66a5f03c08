package gait

import (
	"encoding/json"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// Config is the planner-facing description of one planning problem.
type Config struct {
	Steps       []string     `json:"steps"`
	Timings     PhaseTimings `json:"timings"`
	SupportRule string       `json:"support_rule,omitempty"`

	// Boundary condition of the first spline segment, (x, y).
	InitialPosition [2]float64 `json:"initial_position,omitempty"`
	InitialVelocity [2]float64 `json:"initial_velocity,omitempty"`

	// Width of the center-of-pressure time slices. Zero disables the field.
	CopDt float64 `json:"cop_dt,omitempty"`

	// Level of the problem's logger, e.g. "debug". Empty keeps the level of the logger it is given.
	LogLevel string `json:"log_level,omitempty"`
	// Optional file the problem additionally logs to, rotated by size.
	LogFile string `json:"log_file,omitempty"`
}

// DefaultConfig returns a config with default timings and no steps.
func DefaultConfig() *Config {
	return &Config{
		Timings:     DefaultPhaseTimings(),
		SupportRule: SideSwitchRuleName,
	}
}

// ConfigFromAttributes decodes a generic attribute map, keyed like the JSON form, on top of the
// default config.
func ConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "decoding gait config")
	}
	return cfg, nil
}

// ReadConfig reads a JSON config file on top of the default config.
func ReadConfig(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading gait config %q", path)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing gait config %q", path)
	}
	return cfg, nil
}

// Validate returns every problem of the config combined into one error.
func (c *Config) Validate() error {
	var err error
	if _, stepsErr := c.StepSequence(); stepsErr != nil {
		err = multierr.Append(err, stepsErr)
	}
	err = multierr.Append(err, c.Timings.Validate())
	if _, ruleErr := c.Rule(); ruleErr != nil {
		err = multierr.Append(err, ruleErr)
	}
	if !(c.CopDt >= 0) || !utils.IsFinite(c.CopDt) {
		err = multierr.Append(err, errors.Errorf("cop_dt must be zero or a finite positive duration, got %v", c.CopDt))
	}
	if _, _, levelErr := c.Level(); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}
	return err
}

// Level returns the configured log level. ok is false when the config leaves it unset.
func (c *Config) Level() (level logging.Level, ok bool, err error) {
	if c.LogLevel == "" {
		return logging.INFO, false, nil
	}
	level, err = logging.LevelFromString(c.LogLevel)
	return level, err == nil, err
}

// StepSequence parses and validates the configured steps.
func (c *Config) StepSequence() (StepSequence, error) {
	steps, err := ParseStepSequence(c.Steps)
	if err != nil {
		return nil, err
	}
	if err := steps.Validate(); err != nil {
		return nil, err
	}
	return steps, nil
}

// Rule returns the configured support rule.
func (c *Config) Rule() (SupportRule, error) {
	return SupportRuleFromName(c.SupportRule)
}

// InitialState returns the configured position and velocity of the first spline segment.
func (c *Config) InitialState() (r2.Point, r2.Point) {
	return r2.Point{X: c.InitialPosition[0], Y: c.InitialPosition[1]},
		r2.Point{X: c.InitialVelocity[0], Y: c.InitialVelocity[1]}
}

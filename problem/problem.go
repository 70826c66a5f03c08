// Package problem assembles the parametrizations and optimization variables of one planning
// problem from a gait config.
package problem

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/legplan/cop"
	"go.viam.com/legplan/gait"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/optvars"
	"go.viam.com/legplan/spline"
)

// Problem wires a continuity-resolved CoM spline, and optionally a center-of-pressure field, to the
// variables a solver iterates on. The layout is spline_coeff, footholds, then cop when enabled.
type Problem struct {
	logger logging.Logger
	cfg    *gait.Config
	steps  gait.StepSequence

	vars *optvars.OptimizationVariables
	com  *spline.ContinuousSequence
	cop  *cop.Field

	logFile *logging.FileAppender
}

// rotation of the optional log file.
const (
	logFileMaxSizeMB  = 16
	logFileMaxBackups = 3
)

// New validates cfg and builds a problem with every variable at zero. A nil logger selects the
// global one. The problem logs through a "problem" sublogger that takes the config's log_level and,
// when log_file is set, also writes to that file until Close.
func New(logger logging.Logger, cfg *gait.Config) (_ *Problem, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid gait config")
	}
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.Sublogger("problem")
	level, setLevel, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if setLevel {
		logger.SetLevel(level)
	}
	var logFile *logging.FileAppender
	if cfg.LogFile != "" {
		logFile = logging.NewFileAppender(cfg.LogFile, logFileMaxSizeMB, logFileMaxBackups)
		logger.AddAppender(logFile)
		defer func() {
			if err != nil {
				err = multierr.Append(err, logFile.Close())
			}
		}()
	}
	steps, err := cfg.StepSequence()
	if err != nil {
		return nil, err
	}
	rule, err := cfg.Rule()
	if err != nil {
		return nil, err
	}

	p := &Problem{
		logger:  logger,
		cfg:     cfg,
		steps:   steps,
		logFile: logFile,
		vars:    optvars.NewOptimizationVariables(logger.Sublogger("vars")),
		com:     spline.NewContinuousSequence(logger.Sublogger("com")),
	}
	pos0, vel0 := cfg.InitialState()
	if err := p.com.Init(pos0, vel0, steps, cfg.Timings, rule); err != nil {
		return nil, err
	}
	if err := p.vars.Init(p.com.TotalFreeCoeff(), len(steps)); err != nil {
		return nil, err
	}
	if err := p.vars.Bind(optvars.SplineCoeffName, p.com); err != nil {
		return nil, err
	}

	if cfg.CopDt > 0 {
		p.cop = cop.NewField(logger.Sublogger("cop"))
		if err := p.cop.Init(cfg.CopDt, p.com.TotalTime()); err != nil {
			return nil, err
		}
		if _, err := p.vars.AddVariableSet(cop.Name, p.cop.ParameterCount()); err != nil {
			return nil, err
		}
		if err := p.vars.Bind(cop.Name, p.cop); err != nil {
			return nil, err
		}
	}

	logger.Infow("planning problem ready",
		"steps", steps.Strings(),
		"segments", p.com.SplineCount(),
		"variables", p.vars.OptimizationVariableCount(),
		"total_time", p.com.TotalTime(),
	)
	return p, nil
}

// Steps returns the parsed step sequence.
func (p *Problem) Steps() gait.StepSequence {
	return p.steps
}

// Variables returns the solver-facing variables.
func (p *Problem) Variables() *optvars.OptimizationVariables {
	return p.vars
}

// Com returns the CoM spline kept in sync with the spline_coeff block.
func (p *Problem) Com() *spline.ContinuousSequence {
	return p.com
}

// Cop returns the center-of-pressure field kept in sync with the cop block, if configured.
func (p *Problem) Cop() (*cop.Field, bool) {
	return p.cop, p.cop != nil
}

// Summarize samples the CoM trajectory every dt seconds and logs its speed and acceleration
// statistics.
func (p *Problem) Summarize(dt float64) (spline.Summary, error) {
	samples, err := p.com.Sample(dt)
	if err != nil {
		return spline.Summary{}, err
	}
	summary, err := spline.Summarize(samples)
	if err != nil {
		return spline.Summary{}, err
	}
	p.logger.Infow("com trajectory",
		"duration", summary.Duration,
		"max_speed", summary.MaxSpeed,
		"mean_speed", summary.MeanSpeed,
		"max_acceleration", summary.MaxAcceleration,
	)
	return summary, nil
}

// SetIterate writes a whole solver iterate and refreshes every bound parametrization.
func (p *Problem) SetIterate(x []float64) error {
	return p.vars.SetOptimizationVariables(x)
}

// Close flushes the problem's logger and closes its log file, if any.
func (p *Problem) Close() error {
	err := p.logger.Sync()
	if p.logFile != nil {
		err = multierr.Append(err, p.logFile.Close())
	}
	return err
}

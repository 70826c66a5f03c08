package spline

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Summary condenses a sampled trajectory into the figures a planner checks against robot limits.
type Summary struct {
	Duration        float64
	MaxSpeed        float64
	MeanSpeed       float64
	SpeedStdDev     float64
	MaxAcceleration float64
}

// Summarize computes speed and acceleration statistics over samples.
func Summarize(samples []Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, errors.New("cannot summarize an empty trajectory")
	}
	speeds := stats.Float64Data(lo.Map(samples, func(s Sample, _ int) float64 { return s.Vel.Norm() }))
	accels := stats.Float64Data(lo.Map(samples, func(s Sample, _ int) float64 { return s.Acc.Norm() }))

	var summary Summary
	var err error
	summary.Duration = samples[len(samples)-1].Time - samples[0].Time
	if summary.MaxSpeed, err = speeds.Max(); err != nil {
		return Summary{}, err
	}
	if summary.MeanSpeed, err = speeds.Mean(); err != nil {
		return Summary{}, err
	}
	if summary.SpeedStdDev, err = speeds.StandardDeviation(); err != nil {
		return Summary{}, err
	}
	if summary.MaxAcceleration, err = accels.Max(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

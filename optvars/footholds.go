package optvars

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/legplan/coords"
)

// FootholdsToFlat lays out footholds as (x0, y0, x1, y1, ...) in step order.
func FootholdsToFlat(footholds []r2.Point) []float64 {
	return lo.FlatMap(footholds, func(p r2.Point, _ int) []float64 {
		return []float64{p.X, p.Y}
	})
}

// FlatToFootholds is the inverse of FootholdsToFlat. The input must have even length.
func FlatToFootholds(x []float64) ([]r2.Point, error) {
	if len(x)%coords.Dim2d != 0 {
		return nil, errors.Errorf("flat footholds need an even number of values, got %d", len(x))
	}
	return lo.Map(lo.Chunk(x, coords.Dim2d), func(xy []float64, _ int) r2.Point {
		return r2.Point{X: xy[0], Y: xy[1]}
	}), nil
}

package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, Clamp(-0.1, 0, 4.6), test.ShouldEqual, 0.0)
	test.That(t, Clamp(4.7, 0, 4.6), test.ShouldEqual, 4.6)
	test.That(t, Clamp(2.3, 0, 4.6), test.ShouldEqual, 2.3)

	test.That(t, ClampInt(-1, 0, 6), test.ShouldEqual, 0)
	test.That(t, ClampInt(7, 0, 6), test.ShouldEqual, 6)
	test.That(t, ClampInt(3, 0, 6), test.ShouldEqual, 3)
}

func TestFloatHelpers(t *testing.T) {
	test.That(t, Float64AlmostEqual(0.1+0.2, 0.3, DefaultEpsilon), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(0.1, 0.2, DefaultEpsilon), test.ShouldBeFalse)
	test.That(t, IsFinite(1.5), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
}

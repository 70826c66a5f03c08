package coords

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestComponent(t *testing.T) {
	p := r2.Point{X: 0.4, Y: 3.4}
	test.That(t, Component(p, X), test.ShouldEqual, 0.4)
	test.That(t, Component(p, Y), test.ShouldEqual, 3.4)

	p = WithComponent(p, Y, -1.9)
	test.That(t, p, test.ShouldResemble, r2.Point{X: 0.4, Y: -1.9})
	p = WithComponent(p, X, 1.1)
	test.That(t, p, test.ShouldResemble, r2.Point{X: 1.1, Y: -1.9})
}

func TestAxis(t *testing.T) {
	test.That(t, X.String(), test.ShouldEqual, "x")
	test.That(t, Y.String(), test.ShouldEqual, "y")
	test.That(t, Axis(2).Valid(), test.ShouldBeFalse)
	test.That(t, Axis(2).String(), test.ShouldEqual, "Axis(2)")
	test.That(t, Axes[0], test.ShouldEqual, X)
}

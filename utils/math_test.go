package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldEqual, 90.0)
	test.That(t, RadToDeg(DegToRad(73)), test.ShouldAlmostEqual, 73)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, 0.5)
	test.That(t, Clamp(-2, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, Clamp(7, 0, 1), test.ShouldEqual, 1.0)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-10, 1e-9), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-9), test.ShouldBeFalse)
}

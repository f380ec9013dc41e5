package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

func TestDualQuatTransform(t *testing.T) {
	// Start with point [3, 4, 5] - rotate by 180 degrees around the x-axis and then displace by [4,2,6]
	pt := NewPoseFromPoint(r3.Vector{X: 3., Y: 4., Z: 5.})
	tr := &DualQuaternion{dualquat.Number{Real: quat.Number{Real: 0, Imag: 1}}}
	tr.SetTranslation(4., 2., 6.)

	trAA := NewPoseFromAxisAngle(r3.Vector{X: 4., Y: 2., Z: 6.}, r3.Vector{X: 1, Y: 0, Z: 0}, math.Pi) // same transformation from axis angle
	// ensure the transformation is the same between both definitions
	test.That(t, tr.Real.Real, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Real.Real)
	test.That(t, tr.Real.Imag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Real.Imag)
	test.That(t, tr.Real.Jmag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Real.Jmag)
	test.That(t, tr.Real.Kmag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Real.Kmag)
	test.That(t, tr.Dual.Real, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Dual.Real)
	test.That(t, tr.Dual.Imag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Dual.Imag)
	test.That(t, tr.Dual.Jmag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Dual.Jmag)
	test.That(t, tr.Dual.Kmag, test.ShouldAlmostEqual, NewDualQuaternionFromPose(trAA).Dual.Kmag)

	expectedPoint := r3.Vector{X: 7., Y: -2., Z: 1.}
	transformedPoint := Compose(tr, pt).Point()
	test.That(t, transformedPoint.X, test.ShouldAlmostEqual, expectedPoint.X)
	test.That(t, transformedPoint.Y, test.ShouldAlmostEqual, expectedPoint.Y)
	test.That(t, transformedPoint.Z, test.ShouldAlmostEqual, expectedPoint.Z)
}

func TestCompose(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0})
	b := NewPoseFromPoint(r3.Vector{X: 0, Y: 1, Z: 0})
	test.That(t, R3VectorAlmostEqual(Compose(a, b).Point(), r3.Vector{X: 1, Y: 1, Z: 0}, 1e-12), test.ShouldBeTrue)

	// composition with identity changes nothing
	rotated := NewPoseFromAxisAngle(r3.Vector{X: 2, Y: 3, Z: 4}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/3)
	test.That(t, PoseAlmostEqual(Compose(rotated, NewZeroPose()), rotated), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(NewZeroPose(), rotated), rotated), test.ShouldBeTrue)

	// rotation affects the subsequent translation
	quarter := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/2)
	moved := Compose(quarter, NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0}))
	test.That(t, R3VectorAlmostEqual(moved.Point(), r3.Vector{X: 0, Y: 1, Z: 0}, 1e-12), test.ShouldBeTrue)
}

func TestPoseInverse(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 0, Y: 1, Z: 0}, math.Pi/4)
	roundTrip := Compose(p, PoseInverse(p))
	test.That(t, PoseAlmostEqualEps(roundTrip, NewZeroPose(), 1e-12), test.ShouldBeTrue)

	inv := PoseInverse(NewPoseFromPoint(r3.Vector{X: 1, Y: 1, Z: 0}))
	test.That(t, R3VectorAlmostEqual(inv.Point(), r3.Vector{X: -1, Y: -1, Z: 0}, 1e-12), test.ShouldBeTrue)
}

func TestInterpolate(t *testing.T) {
	p1 := NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 0})
	p2 := NewPoseFromPoint(r3.Vector{X: 10, Y: 0, Z: 0})
	mid := Interpolate(p1, p2, 0.5)
	test.That(t, R3VectorAlmostEqual(mid.Point(), r3.Vector{X: 5, Y: 0, Z: 0}, 1e-9), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(Interpolate(p1, p2, 0), p1), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Interpolate(p1, p2, 1), p2), test.ShouldBeTrue)

	// rotation interpolates spherically
	r1 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, 0)
	r2 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/2)
	rMid := Interpolate(r1, r2, 0.5)
	expected := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/4)
	test.That(t, OrientationAlmostEqual(rMid.Orientation(), expected.Orientation()), test.ShouldBeTrue)
}

func TestSlerp(t *testing.T) {
	q1 := quat.Number{Real: 1}
	q2 := quat.Number{Real: math.Sqrt2 / 2, Kmag: math.Sqrt2 / 2} // 90 degrees about z

	s1 := slerp(q1, q2, 0.5)
	expected := (&R4AA{Theta: math.Pi / 4, RZ: 1}).ToQuat()
	test.That(t, QuaternionAlmostEqual(s1, expected, 1e-9), test.ShouldBeTrue)

	// endpoints are returned exactly
	test.That(t, QuaternionAlmostEqual(slerp(q1, q2, 0), q1, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(slerp(q1, q2, 1), q2, 1e-9), test.ShouldBeTrue)

	// nearly parallel quaternions fall back to nlerp without blowing up
	almost := quat.Number{Real: 1, Kmag: 1e-13}
	s2 := slerp(q1, almost, 0.5)
	test.That(t, QuaternionAlmostEqual(s2, q1, 1e-9), test.ShouldBeTrue)
}

func TestMatrixRoundTrip(t *testing.T) {
	p := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: -2, Z: 3}, r3.Vector{X: 1, Y: 1, Z: 0}, math.Pi/3)
	m := PoseToMatrix(p)
	back := NewPoseFromMatrix(m)
	test.That(t, PoseAlmostEqualEps(back, p, 1e-9), test.ShouldBeTrue)

	// identity pose maps to the identity matrix
	ident := PoseToMatrix(NewZeroPose())
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			expected := 0.
			if r == c {
				expected = 1.
			}
			test.That(t, ident.At(r, c), test.ShouldAlmostEqual, expected)
		}
	}
}

func TestOrientationBetween(t *testing.T) {
	o1 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/4).Orientation()
	o2 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/2).Orientation()
	diff := OrientationBetween(o1, o2)
	expected := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{X: 0, Y: 0, Z: 1}, math.Pi/4).Orientation()
	test.That(t, OrientationAlmostEqual(diff, expected), test.ShouldBeTrue)
}

func TestAxisAngleConversions(t *testing.T) {
	aa := R4AA{Theta: math.Pi / 2, RX: 0, RY: 0, RZ: 1}
	q := aa.ToQuat()
	back := QuatToR4AA(q)
	test.That(t, back.Theta, test.ShouldAlmostEqual, aa.Theta, 1e-9)
	test.That(t, back.RZ, test.ShouldAlmostEqual, 1, 1e-9)

	r3aa := aa.ToR3()
	test.That(t, R3VectorAlmostEqual(r3aa, r3.Vector{X: 0, Y: 0, Z: math.Pi / 2}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3ToR4(r3aa).Theta, test.ShouldAlmostEqual, math.Pi/2, 1e-9)
}

package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the rotation of a rigid object
// or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	AxisAngles() *R4AA
}

// quaternion is an orientation in quaternion representation.
type quaternion quat.Number

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// OrientationBetween returns the orientation representing the difference between the two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// slerp performs spherical linear interpolation between two unit quaternions.
// by which is 0 returns q1 and 1 returns q2.
func slerp(q1, q2 quat.Number, by float64) quat.Number {
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag

	// Take the shorter path around the sphere
	if dot < 0 {
		q2 = Flip(q2)
		dot = -dot
	}

	// Nearly parallel quaternions, fall back to normalized linear interpolation
	if dot > 1-1e-10 {
		q := quat.Add(quat.Scale(1-by, q1), quat.Scale(by, q2))
		return quat.Scale(1/quat.Abs(q), q)
	}

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	s1 := math.Sin((1-by)*theta) / sinTheta
	s2 := math.Sin(by*theta) / sinTheta
	return quat.Add(quat.Scale(s1, q1), quat.Scale(s2, q2))
}

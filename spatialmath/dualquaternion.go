// Package spatialmath defines the rigid transformation math used to carry
// points between coordinate frames.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// DualQuaternion defines functions to perform rigid transformations in 3D.
type DualQuaternion struct {
	dualquat.Number
}

// NewDualQuaternion returns a pointer to a new DualQuaternion object whose quaternion is an identity quaternion.
// Since the real part of a dual quaternion should be a unit quaternion, not all zeroes, this should be used
// instead of &DualQuaternion{}.
func NewDualQuaternion() *DualQuaternion {
	return &DualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// NewDualQuaternionFromRotation returns a pointer to a new DualQuaternion object whose rotation quaternion
// is set from a provided orientation.
func NewDualQuaternionFromRotation(o Orientation) *DualQuaternion {
	return &DualQuaternion{dualquat.Number{
		Real: o.Quaternion(),
		Dual: quat.Number{},
	}}
}

// NewDualQuaternionFromPose returns a pointer to a new DualQuaternion object whose rotation and translation
// are set from a provided Pose.
func NewDualQuaternionFromPose(p Pose) *DualQuaternion {
	if q, ok := p.(*DualQuaternion); ok {
		return q.Clone()
	}
	q := NewDualQuaternionFromRotation(p.Orientation())
	pt := p.Point()
	q.SetTranslation(pt.X, pt.Y, pt.Z)
	return q
}

// Clone returns a DualQuaternion object identical to this one.
func (q *DualQuaternion) Clone() *DualQuaternion {
	// No need for deep copies here, dualquats are primitives all the way down
	return &DualQuaternion{q.Number}
}

// Point returns the translation component as a vector.
func (q *DualQuaternion) Point() r3.Vector {
	tq := dualquat.Mul(q.Number, dualquat.Conj(q.Number))
	return r3.Vector{X: tq.Dual.Imag, Y: tq.Dual.Jmag, Z: tq.Dual.Kmag}
}

// Orientation returns the rotation component.
func (q *DualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

// Rotation returns the rotation quaternion.
func (q *DualQuaternion) Rotation() quat.Number {
	return q.Real
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *DualQuaternion) SetTranslation(x, y, z float64) {
	q.Dual = quat.Number{Real: 0, Imag: x / 2, Jmag: y / 2, Kmag: z / 2}
	q.rotate()
}

// rotate multiplies the dual part of the quaternion by the real part to give the correct rotation.
func (q *DualQuaternion) rotate() {
	q.Dual = quat.Mul(q.Dual, q.Real)
}

// Invert returns a DualQuaternion representing the opposite transformation. So if the transform goes
// from frame A to frame B, the inverted transform goes from frame B to frame A.
func (q *DualQuaternion) Invert() *DualQuaternion {
	return &DualQuaternion{dualquat.ConjQuat(q.Number)}
}

// Transformation multiplies the dual quat contained in this DualQuaternion by another dual quat.
func (q *DualQuaternion) Transformation(by dualquat.Number) dualquat.Number {
	// Ensure we are multiplying by a unit dual quaternion
	if vecLen := quat.Abs(by.Real); vecLen != 1 {
		by.Real = quat.Scale(1/vecLen, by.Real)
	}

	return dualquat.Mul(q.Number, by)
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	denom := Norm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{angle, 1, 0, 0}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation
// but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

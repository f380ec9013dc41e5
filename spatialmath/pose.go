package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Pose represents a 6dof pose, a position and an orientation, in 3D Euclidean space.
type Pose interface {
	// Point returns the translation component of the pose.
	Point() r3.Vector

	// Orientation returns the rotation component of the pose.
	Orientation() Orientation
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return NewDualQuaternion()
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := NewDualQuaternion()
	q.SetTranslation(point.X, point.Y, point.Z)
	return q
}

// NewPoseFromOrientation takes in a position and an orientation and returns a Pose.
func NewPoseFromOrientation(point r3.Vector, o Orientation) Pose {
	q := NewDualQuaternionFromRotation(o)
	q.SetTranslation(point.X, point.Y, point.Z)
	return q
}

// NewPoseFromAxisAngle takes in a position, rotationAxis, and angle and returns a Pose.
// angle is input in radians.
func NewPoseFromAxisAngle(point, rotationAxis r3.Vector, angle float64) Pose {
	aa := R4AA{Theta: angle, RX: rotationAxis.X, RY: rotationAxis.Y, RZ: rotationAxis.Z}
	q := NewDualQuaternion()
	q.Real = aa.ToQuat()
	q.SetTranslation(point.X, point.Y, point.Z)
	return q
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizing the result.
func Compose(a, b Pose) Pose {
	aq := NewDualQuaternionFromPose(a)
	bq := NewDualQuaternionFromPose(b)
	return &DualQuaternion{aq.Transformation(bq.Number)}
}

// PoseInverse will return the inverse of a pose. So if a pose describes the mapping from A to B, PoseInverse will
// return a pose describing the mapping from B to A.
func PoseInverse(p Pose) Pose {
	return NewDualQuaternionFromPose(p).Invert()
}

// Interpolate will return a new Pose that is the interpolation between p1 and p2.
// Note that position and orientation are interpolated separately, this is not a screw motion.
// Orientation is spherically interpolated, position linearly.
// by which is 0 will return p1, by which is 1 will return p2, and 0.5 will return the pose halfway between.
func Interpolate(p1, p2 Pose, by float64) Pose {
	intQ := NewDualQuaternion()
	intQ.Real = slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by)

	pt1 := p1.Point()
	pt2 := p2.Point()
	intQ.SetTranslation(
		pt1.X+(pt2.X-pt1.X)*by,
		pt1.Y+(pt2.Y-pt1.Y)*by,
		pt1.Z+(pt2.Z-pt1.Z)*by,
	)
	return intQ
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// with the allowed deviation given by epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

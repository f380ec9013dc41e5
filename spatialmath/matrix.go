package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// NewPoseFromMatrix creates a pose from a 4x4 affine transformation matrix of the
// kind produced by Eigen's Transform3d, i.e. a rotation block plus a translation column.
func NewPoseFromMatrix(m mgl64.Mat4) Pose {
	qRot := mgl64.Mat4ToQuat(m)
	q := NewDualQuaternion()
	q.Real = quat.Number{Real: qRot.W, Imag: qRot.X(), Jmag: qRot.Y(), Kmag: qRot.Z()}
	q.SetTranslation(m.At(0, 3), m.At(1, 3), m.At(2, 3))
	return q
}

// PoseToMatrix converts a pose to a 4x4 affine transformation matrix.
func PoseToMatrix(p Pose) mgl64.Mat4 {
	o := p.Orientation().Quaternion()
	m := mgl64.Quat{W: o.Real, V: mgl64.Vec3{o.Imag, o.Jmag, o.Kmag}}.Mat4()
	pt := p.Point()
	m.SetCol(3, mgl64.Vec4{pt.X, pt.Y, pt.Z, 1})
	return m
}

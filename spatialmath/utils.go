package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Float64AlmostEqual compares two float64s and returns if their difference is less than epsilon.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) < epsilon
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences
// are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// QuaternionAlmostEqual returns whether two quaternions represent nearly the same orientation,
// accounting for the double cover of rotation space.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return quatAlmostEqual(a, b, tol) || quatAlmostEqual(a, Flip(b), tol)
}

func quatAlmostEqual(a, b quat.Number, tol float64) bool {
	return quat.Abs(quat.Sub(a, b)) < tol
}

package fusion

import (
	"math"

	"github.com/milosgajdos/go-navfusion/matrix"
)

// Quaternion is an attitude quaternion q0 + q1*i + q2*j + q3*k
type Quaternion [4]float64

// Identity returns the identity attitude quaternion
func Identity() Quaternion {
	return Quaternion{1, 0, 0, 0}
}

// Norm returns quaternion norm
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
}

// Normalized returns q scaled to unit norm.
// Zero quaternion is returned unchanged.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if n == 0 {
		return q
	}

	return Quaternion{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// Rotation returns the body frame rotation matrix of q.
func (q Quaternion) Rotation() *matrix.Matrix {
	q0, q1, q2, q3 := q[0], q[1], q[2], q[3]

	return matrix.MustNew(3, 3, []float64{
		q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 + q0*q3), 2 * (q1*q3 - q0*q2),
		2 * (q1*q2 - q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 + q0*q1),
		2 * (q1*q3 + q0*q2), 2 * (q2*q3 - q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3,
	})
}

// Euler returns yaw, pitch and roll of q in radians.
func (q Quaternion) Euler() [3]float64 {
	q0, q1, q2, q3 := q[0], q[1], q[2], q[3]

	// asin argument may drift past 1 for slightly denormalized q
	s := math.Max(-1, math.Min(1, 2*q1*q3+2*q0*q2))

	return [3]float64{
		math.Atan2(2*q1*q2-2*q0*q3, 2*q0*q0+2*q1*q1-1),
		-math.Asin(s),
		math.Atan2(2*q2*q3-2*q0*q1, 2*q0*q0+2*q3*q3-1),
	}
}

// LowPass returns prev moved towards measured by alpha, 0 < alpha < 1.
func LowPass(prev, measured, alpha float64) float64 {
	return prev + alpha*(measured-prev)
}

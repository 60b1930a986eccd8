// Package spatialmath defines rigid-body poses and the orientation math needed to compose them.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose: a position and an orientation relative to some parent frame.
// Poses are immutable.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return &pose{orientation: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose. A nil orientation means no
// rotation; the orientation is normalized to a unit quaternion.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &pose{point: p, orientation: Normalize(o.Quaternion())}
}

// NewPoseFromPoint returns a pose with the given position and no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return &pose{point: p, orientation: quat.Number{Real: 1}}
}

// NewPoseFromOrientation returns a pose at the origin with the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := Quaternion(p.orientation)
	return &q
}

func (p *pose) String() string {
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f qW:%.4f qX:%.4f qY:%.4f qZ:%.4f}",
		p.point.X, p.point.Y, p.point.Z,
		p.orientation.Real, p.orientation.Imag, p.orientation.Jmag, p.orientation.Kmag)
}

// Compose treats a and b as rigid transforms and returns a*b: the pose b, given in the frame
// described by a, expressed in a's parent frame.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &pose{
		point:       a.Point().Add(RotateVector(qa, b.Point())),
		orientation: Normalize(quat.Mul(qa, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns the pose that undoes p, so that Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	return &pose{
		point:       RotateVector(inv, p.Point()).Mul(-1),
		orientation: inv,
	}
}

// PoseBetween returns the pose of b expressed in the frame of a, where both a and b are given in
// the same parent frame: Compose(PoseInverse(a), b).
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same
// within the given epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return PoseAlmostCoincidentEps(a, b, epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses have approximately the
// same position within the given epsilon.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return a.Point().ApproxEqual(b.Point()) || a.Point().Sub(b.Point()).Norm() < epsilon
}

package ros

import (
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// Time is a ROS time stamp.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// NewTime converts a duration since simulation start.
func NewTime(d time.Duration) Time {
	ts := forcetorque.NewTimestamp(d)
	return Time{Secs: ts.Sec, Nsecs: ts.Nsec}
}

// Duration converts t back to a duration since simulation start.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Secs)*time.Second + time.Duration(t.Nsecs)
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is geometry_msgs/Vector3.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func newVector3(v r3.Vector) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Vector returns v as an r3.Vector.
func (v Vector3) Vector() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// Quaternion is geometry_msgs/Quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func newQuaternion(q quat.Number) Quaternion {
	return Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

// Number returns q as a gonum quaternion.
func (q Quaternion) Number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Wrench is geometry_msgs/Wrench.
type Wrench struct {
	Force  Vector3 `json:"force"`
	Torque Vector3 `json:"torque"`
}

// WrenchStamped is geometry_msgs/WrenchStamped.
type WrenchStamped struct {
	Header Header `json:"header"`
	Wrench Wrench `json:"wrench"`
}

// NewWrenchStamped converts a sensor sample.
func NewWrenchStamped(sample forcetorque.WrenchSample) WrenchStamped {
	return WrenchStamped{
		Header: Header{
			Seq:     sample.Seq,
			Stamp:   Time{Secs: sample.Stamp.Sec, Nsecs: sample.Stamp.Nsec},
			FrameID: sample.FrameID,
		},
		Wrench: Wrench{
			Force:  newVector3(sample.Wrench.Force),
			Torque: newVector3(sample.Wrench.Torque),
		},
	}
}

// Transform is geometry_msgs/Transform.
type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// TransformStamped is geometry_msgs/TransformStamped.
type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id"`
	Transform    Transform `json:"transform"`
}

// NewTransformStamped converts one segment of a sensor's frame chain.
func NewTransformStamped(tf referenceframe.Transform, seq uint32) TransformStamped {
	return TransformStamped{
		Header:       Header{Seq: seq, Stamp: NewTime(tf.Stamp), FrameID: tf.Parent},
		ChildFrameID: tf.Child,
		Transform: Transform{
			Translation: newVector3(tf.Pose.Point()),
			Rotation:    newQuaternion(tf.Pose.Orientation().Quaternion()),
		},
	}
}

// TFMessage is tf2_msgs/TFMessage.
type TFMessage struct {
	Transforms []TransformStamped `json:"transforms"`
}

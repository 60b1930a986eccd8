// Package inject provides test doubles whose behavior is set per test through function fields.
package inject

import (
	"github.com/golang/geo/r3"

	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/spatialmath"
)

// Link is an injected physics link.
type Link struct {
	physics.Link
	name               string
	WorldPoseFunc      func() (spatialmath.Pose, error)
	RelativeForceFunc  func() r3.Vector
	RelativeTorqueFunc func() r3.Vector
}

// NewLink returns a new injected link.
func NewLink(name string) *Link {
	return &Link{name: name}
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// WorldPose calls the injected WorldPose or the real version.
func (l *Link) WorldPose() (spatialmath.Pose, error) {
	if l.WorldPoseFunc == nil {
		return l.Link.WorldPose()
	}
	return l.WorldPoseFunc()
}

// RelativeForce calls the injected RelativeForce or the real version.
func (l *Link) RelativeForce() r3.Vector {
	if l.RelativeForceFunc == nil {
		return l.Link.RelativeForce()
	}
	return l.RelativeForceFunc()
}

// RelativeTorque calls the injected RelativeTorque or the real version.
func (l *Link) RelativeTorque() r3.Vector {
	if l.RelativeTorqueFunc == nil {
		return l.Link.RelativeTorque()
	}
	return l.RelativeTorqueFunc()
}

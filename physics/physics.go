// Package physics declares what the simulator's sensors need from a physics engine: named
// links with world poses and body-frame loads, simulation time, and a per-step update event.
package physics

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/spatialmath"
)

// ErrPoseUnavailable is returned by Link.WorldPose when the engine cannot currently report the
// pose of a link that exists in the model.
var ErrPoseUnavailable = errors.New("world pose unavailable")

// A Link is a rigid body of the simulated model.
type Link interface {
	Name() string
	// WorldPose returns the pose of the link's center of gravity in the world frame.
	WorldPose() (spatialmath.Pose, error)
	// RelativeForce returns the force applied to the link's center of gravity, in the link frame.
	RelativeForce() r3.Vector
	// RelativeTorque returns the torque applied to the link's center of gravity, in the link frame.
	RelativeTorque() r3.Vector
}

// A Model resolves links by name.
type Model interface {
	LinkByName(name string) (Link, bool)
}

// A Stepper is a model whose state advances with simulation time.
type Stepper interface {
	Advance(simTime time.Duration)
}

// UpdateInfo is passed to update callbacks once per simulation step.
type UpdateInfo struct {
	// Iteration counts steps since the world started, beginning at 0.
	Iteration uint64
	SimTime   time.Duration
	RealTime  time.Time
}

// UpdateFunc is called synchronously at the beginning of every world update.
type UpdateFunc func(ctx context.Context, info UpdateInfo)

// A Connection is a registered UpdateFunc. Disconnect is idempotent.
type Connection interface {
	Disconnect()
}

// A World is a running simulation.
type World interface {
	Model
	SimTime() time.Duration
	// ConnectWorldUpdateBegin registers fn to be called at the beginning of every world update,
	// after callbacks registered earlier.
	ConnectWorldUpdateBegin(fn UpdateFunc) Connection
}

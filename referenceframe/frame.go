// Package referenceframe describes the chain of frames a sensor reading is expressed in and
// computes the transforms between them.
package referenceframe

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/spatialmath"
)

// World is the string "world", but made into an exported constant.
const World = "world"

// ChainMode enumerates which segments of the frame chain are active.
type ChainMode int

const (
	// SensorInWorld means no parent is configured; the sensor pose is reported in world.
	SensorInWorld ChainMode = iota
	// SensorInParent means a parent is configured and the reference is world or the parent itself.
	SensorInParent
	// SensorInReference means a parent and a distinct reference frame are configured.
	SensorInReference
)

func (m ChainMode) String() string {
	switch m {
	case SensorInWorld:
		return "sensor_in_world"
	case SensorInParent:
		return "sensor_in_parent"
	case SensorInReference:
		return "sensor_in_reference"
	}
	return fmt.Sprintf("ChainMode(%d)", int(m))
}

// FrameConfig names the frames of a sensor chain. Empty Parent or Reference mean World.
type FrameConfig struct {
	Child     string
	Parent    string
	Reference string
}

// NewFrameConfig returns a FrameConfig with empty parent and reference replaced by World.
func NewFrameConfig(child, parent, reference string) FrameConfig {
	if parent == "" {
		parent = World
	}
	if reference == "" {
		reference = World
	}
	return FrameConfig{Child: child, Parent: parent, Reference: reference}
}

// HasParent reports whether a parent other than World is configured.
func (cfg FrameConfig) HasParent() bool {
	return cfg.Parent != "" && cfg.Parent != World
}

// HasReference reports whether a reference distinct from both World and the parent is configured.
func (cfg FrameConfig) HasReference() bool {
	return cfg.Reference != "" && cfg.Reference != World && cfg.Reference != cfg.Parent
}

// Mode returns which transforms a chain with this configuration produces.
func (cfg FrameConfig) Mode() ChainMode {
	switch {
	case !cfg.HasParent():
		return SensorInWorld
	case !cfg.HasReference():
		return SensorInParent
	default:
		return SensorInReference
	}
}

// Validate checks that the configuration describes a chain ComputeChain can build.
func (cfg FrameConfig) Validate() error {
	if cfg.Child == "" {
		return errors.New("child frame must be named")
	}
	if cfg.Child == World {
		return errors.Errorf("child frame cannot be %q", World)
	}
	if cfg.HasParent() && cfg.Parent == cfg.Child {
		return errors.Errorf("frame %q cannot be its own parent", cfg.Child)
	}
	if cfg.HasReference() && !cfg.HasParent() {
		return errors.Errorf("reference frame %q requires a parent frame", cfg.Reference)
	}
	if cfg.HasReference() && cfg.Reference == cfg.Child {
		return errors.Errorf("frame %q cannot be its own reference", cfg.Child)
	}
	return nil
}

// Transform is a directed segment of the chain: the pose of Child expressed in Parent, stamped
// with the time of the reading it accompanies.
type Transform struct {
	Parent string
	Child  string
	Pose   spatialmath.Pose
	Stamp  time.Duration
}

func (tf Transform) String() string {
	return fmt.Sprintf("%s->%s %v @%v", tf.Parent, tf.Child, tf.Pose, tf.Stamp)
}

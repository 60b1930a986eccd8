package referenceframe

import (
	"time"

	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/spatialmath"
)

// ChainPoses are the raw world poses read for one tick. Parent and Reference may be nil when the
// corresponding segment is inactive.
type ChainPoses struct {
	Child     spatialmath.Pose
	Parent    spatialmath.Pose
	Reference spatialmath.Pose
}

// ComputeChain returns the transforms for the active segments of the chain, ordered from the
// sensor outwards:
//
//	SensorInWorld:     world->child
//	SensorInParent:    parent->child
//	SensorInReference: parent->child, reference->parent, world->reference
func ComputeChain(cfg FrameConfig, poses ChainPoses, stamp time.Duration) ([]Transform, error) {
	if poses.Child == nil {
		return nil, NewMissingPoseError(cfg.Child)
	}

	mode := cfg.Mode()
	if mode == SensorInWorld {
		return []Transform{{Parent: World, Child: cfg.Child, Pose: poses.Child, Stamp: stamp}}, nil
	}

	if poses.Parent == nil {
		return nil, NewMissingPoseError(cfg.Parent)
	}
	transforms := []Transform{{
		Parent: cfg.Parent,
		Child:  cfg.Child,
		Pose:   spatialmath.PoseBetween(poses.Parent, poses.Child),
		Stamp:  stamp,
	}}
	if mode == SensorInParent {
		return transforms, nil
	}

	if poses.Reference == nil {
		return nil, NewMissingPoseError(cfg.Reference)
	}
	return append(transforms,
		Transform{
			Parent: cfg.Reference,
			Child:  cfg.Parent,
			Pose:   spatialmath.PoseBetween(poses.Reference, poses.Parent),
			Stamp:  stamp,
		},
		Transform{Parent: World, Child: cfg.Reference, Pose: poses.Reference, Stamp: stamp},
	), nil
}

// ComposeChain walks transforms as returned by ComputeChain from the outermost segment back to
// the sensor and returns the sensor's pose in the outermost parent frame, along with that frame's
// name. For a SensorInWorld or SensorInReference chain that frame is World and the pose is the
// sensor's world pose up to floating point error.
func ComposeChain(transforms []Transform) (spatialmath.Pose, string, error) {
	if len(transforms) == 0 {
		return nil, "", errors.New("cannot compose an empty transform chain")
	}
	root := transforms[len(transforms)-1].Parent
	result := spatialmath.NewZeroPose()
	parent := root
	for i := len(transforms) - 1; i >= 0; i-- {
		tf := transforms[i]
		if tf.Parent != parent {
			return nil, "", NewBrokenChainError(parent, tf.Parent)
		}
		result = spatialmath.Compose(result, tf.Pose)
		parent = tf.Child
	}
	return result, root, nil
}

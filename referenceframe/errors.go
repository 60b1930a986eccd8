package referenceframe

import "github.com/pkg/errors"

// ErrMissingPose is returned when a pose needed by the active chain segments was not supplied.
var ErrMissingPose = errors.New("missing world pose")

// NewMissingPoseError returns an error indicating that the world pose of frame is unavailable.
func NewMissingPoseError(frame string) error {
	return errors.Wrapf(ErrMissingPose, "frame %q", frame)
}

// NewBrokenChainError is returned when a list of transforms does not link parent to child.
func NewBrokenChainError(expectedParent, gotParent string) error {
	return errors.Errorf("transform chain broken: expected parent %q but got %q", expectedParent, gotParent)
}

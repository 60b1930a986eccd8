package forcetorque

import (
	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/utils"
)

// ErrLinkNotFound is returned when a configured link or frame does not exist in the model.
var ErrLinkNotFound = errors.New("link not found")

// ErrClosed is returned by operations on a closed sensor.
var ErrClosed = errors.New("force/torque sensor is closed")

func newLinkNotFoundError(path, role, name string) error {
	return utils.NewConfigValidationError(path, errors.Wrapf(ErrLinkNotFound, "%s %q", role, name))
}

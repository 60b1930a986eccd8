package forcetorque

import (
	"context"

	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// A Publisher delivers sensor output. Publishing is fire-and-forget: the sensor logs a
// returned error and moves on, it never retries or waits.
type Publisher interface {
	PublishWrench(ctx context.Context, role Role, sample WrenchSample) error
	PublishTransform(ctx context.Context, tf referenceframe.Transform) error
	// Close releases the transport. The sensor owns its publisher and closes it on shutdown.
	Close() error
}

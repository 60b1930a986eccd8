package inject

import (
	"context"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// Publisher is an injected force/torque publisher.
type Publisher struct {
	forcetorque.Publisher
	PublishWrenchFunc    func(ctx context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error
	PublishTransformFunc func(ctx context.Context, tf referenceframe.Transform) error
	CloseFunc            func() error
}

// PublishWrench calls the injected PublishWrench or the real version.
func (p *Publisher) PublishWrench(ctx context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error {
	if p.PublishWrenchFunc == nil {
		return p.Publisher.PublishWrench(ctx, role, sample)
	}
	return p.PublishWrenchFunc(ctx, role, sample)
}

// PublishTransform calls the injected PublishTransform or the real version.
func (p *Publisher) PublishTransform(ctx context.Context, tf referenceframe.Transform) error {
	if p.PublishTransformFunc == nil {
		return p.Publisher.PublishTransform(ctx, tf)
	}
	return p.PublishTransformFunc(ctx, tf)
}

// Close calls the injected Close or the real version.
func (p *Publisher) Close() error {
	if p.CloseFunc == nil {
		return p.Publisher.Close()
	}
	return p.CloseFunc()
}

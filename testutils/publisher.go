package testutils

import (
	"context"
	"sync"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// PublishedWrench is a wrench captured by a RecordingPublisher, with the tick it was published on.
type PublishedWrench struct {
	Tick   uint64
	Role   forcetorque.Role
	Sample forcetorque.WrenchSample
}

// RecordingPublisher keeps everything published to it in memory. Set Tick before each update
// to attribute captured messages to that tick.
type RecordingPublisher struct {
	mu         sync.Mutex
	Tick       uint64
	wrenches   []PublishedWrench
	transforms [][]referenceframe.Transform
	closed     int
}

// PublishWrench implements forcetorque.Publisher.
func (p *RecordingPublisher) PublishWrench(_ context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wrenches = append(p.wrenches, PublishedWrench{Tick: p.Tick, Role: role, Sample: sample})
	// transforms for a release follow its wrenches; open a new group per true wrench.
	if role == forcetorque.RoleTrue {
		p.transforms = append(p.transforms, nil)
	}
	return nil
}

// PublishTransform implements forcetorque.Publisher.
func (p *RecordingPublisher) PublishTransform(_ context.Context, tf referenceframe.Transform) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.transforms) == 0 {
		p.transforms = append(p.transforms, nil)
	}
	last := len(p.transforms) - 1
	p.transforms[last] = append(p.transforms[last], tf)
	return nil
}

// Close implements forcetorque.Publisher.
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Wrenches returns the captured wrenches of the given role, in publication order.
func (p *RecordingPublisher) Wrenches(role forcetorque.Role) []PublishedWrench {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PublishedWrench
	for _, w := range p.wrenches {
		if w.Role == role {
			out = append(out, w)
		}
	}
	return out
}

// Transforms returns the transforms captured for each release, in publication order.
func (p *RecordingPublisher) Transforms() [][]referenceframe.Transform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]referenceframe.Transform(nil), p.transforms...)
}

// CloseCount returns how many times Close was called.
func (p *RecordingPublisher) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

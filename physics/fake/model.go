// Package fake implements a kinematic physics model: links move with constant velocities and
// carry scripted body-frame loads. It stands in for a physics engine in tests and in the CLI.
package fake

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/spatialmath"
	"github.com/game-of-drones/rotors-simulator/utils"
)

// LinkConfig describes one fake link.
type LinkConfig struct {
	Name string `json:"name"`
	// Position and Orientation give the pose at simulation time zero.
	Position    r3.Vector                `json:"position"`
	Orientation *spatialmath.EulerAngles `json:"orientation,omitempty"`
	// LinearVelocity is in the world frame; AngularVelocity (rad/s) is about the link's own axes.
	LinearVelocity  r3.Vector `json:"linear_velocity"`
	AngularVelocity r3.Vector `json:"angular_velocity"`
	// Force and Torque are constant loads in the link frame. ForceAmplitude adds a sinusoid at
	// FrequencyHz on top of Force.
	Force          r3.Vector `json:"force"`
	Torque         r3.Vector `json:"torque"`
	ForceAmplitude r3.Vector `json:"force_amplitude"`
	FrequencyHz    float64   `json:"frequency_hz"`
}

// Validate ensures all parts of the config are valid.
func (cfg *LinkConfig) Validate(path string) error {
	if cfg.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if cfg.FrequencyHz < 0 {
		return utils.NewConfigValidationError(path, errors.New("frequency_hz cannot be negative"))
	}
	return nil
}

// Model is a set of fake links sharing one simulation clock.
type Model struct {
	mu      sync.Mutex
	simTime time.Duration
	links   map[string]*Link
	order   []string
}

// NewModel builds a model from link configs. Link names must be unique.
func NewModel(configs []LinkConfig) (*Model, error) {
	m := &Model{links: make(map[string]*Link, len(configs))}
	for idx, cfg := range configs {
		if err := m.AddLink(cfg); err != nil {
			return nil, errors.Wrapf(err, "link %d", idx)
		}
	}
	return m, nil
}

// AddLink adds a link to the model.
func (m *Model) AddLink(cfg LinkConfig) error {
	if err := cfg.Validate(fmt.Sprintf("links.%s", cfg.Name)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[cfg.Name]; ok {
		return errors.Errorf("duplicate link %q", cfg.Name)
	}
	var initial spatialmath.Orientation = spatialmath.NewZeroOrientation()
	if cfg.Orientation != nil {
		initial = cfg.Orientation
	}
	m.links[cfg.Name] = &Link{model: m, cfg: cfg, initial: initial.Quaternion(), poseAvailable: true}
	m.order = append(m.order, cfg.Name)
	return nil
}

// LinkByName implements physics.Model.
func (m *Model) LinkByName(name string) (physics.Link, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[name]
	if !ok {
		return nil, false
	}
	return link, true
}

// LinkNames returns the link names in insertion order.
func (m *Model) LinkNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Advance implements physics.Stepper.
func (m *Model) Advance(simTime time.Duration) {
	m.mu.Lock()
	m.simTime = simTime
	m.mu.Unlock()
}

// SetPoseAvailable makes WorldPose of the named link fail (false) or succeed (true).
func (m *Model) SetPoseAvailable(name string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[name]
	if !ok {
		return errors.Errorf("no link %q", name)
	}
	link.poseAvailable = available
	return nil
}

func (m *Model) now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simTime
}

// Link is a fake link. Its state is a pure function of the model's simulation time.
type Link struct {
	model         *Model
	cfg           LinkConfig
	initial       quat.Number
	poseAvailable bool
}

// Name implements physics.Link.
func (l *Link) Name() string {
	return l.cfg.Name
}

// WorldPose implements physics.Link.
func (l *Link) WorldPose() (spatialmath.Pose, error) {
	l.model.mu.Lock()
	available, t := l.poseAvailable, l.model.simTime.Seconds()
	l.model.mu.Unlock()
	if !available {
		return nil, errors.Wrapf(physics.ErrPoseUnavailable, "link %q", l.cfg.Name)
	}

	position := l.cfg.Position.Add(l.cfg.LinearVelocity.Mul(t))
	orientation := spatialmath.Quaternion(l.initial)
	if rate := l.cfg.AngularVelocity.Norm(); rate > 0 {
		axis := l.cfg.AngularVelocity.Mul(1 / rate)
		spin := &spatialmath.R4AA{Theta: rate * t, RX: axis.X, RY: axis.Y, RZ: axis.Z}
		return spatialmath.Compose(
			spatialmath.NewPose(position, &orientation),
			spatialmath.NewPoseFromOrientation(spin),
		), nil
	}
	return spatialmath.NewPose(position, &orientation), nil
}

// RelativeForce implements physics.Link.
func (l *Link) RelativeForce() r3.Vector {
	if l.cfg.FrequencyHz == 0 || l.cfg.ForceAmplitude == (r3.Vector{}) {
		return l.cfg.Force
	}
	phase := math.Sin(2 * math.Pi * l.cfg.FrequencyHz * l.model.now().Seconds())
	return l.cfg.Force.Add(l.cfg.ForceAmplitude.Mul(phase))
}

// RelativeTorque implements physics.Link.
func (l *Link) RelativeTorque() r3.Vector {
	return l.cfg.Torque
}

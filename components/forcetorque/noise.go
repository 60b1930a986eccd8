package forcetorque

import (
	"math/rand/v2"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseConfig gives, per axis, the standard deviation of the zero-mean Gaussian noise and the
// half-width of the zero-centered uniform noise added to force and torque.
type NoiseConfig struct {
	NormalForce   r3.Vector
	NormalTorque  r3.Vector
	UniformForce  r3.Vector
	UniformTorque r3.Vector
}

// Validate rejects negative deviations and half-widths.
func (cfg NoiseConfig) Validate() error {
	for name, v := range map[string]r3.Vector{
		"noise_normal_force":   cfg.NormalForce,
		"noise_normal_torque":  cfg.NormalTorque,
		"noise_uniform_force":  cfg.UniformForce,
		"noise_uniform_torque": cfg.UniformTorque,
	} {
		if v.X < 0 || v.Y < 0 || v.Z < 0 {
			return errors.Errorf("%s components must be >= 0, got %v", name, v)
		}
	}
	return nil
}

// IsZero reports whether the model adds nothing.
func (cfg NoiseConfig) IsZero() bool {
	return cfg == NoiseConfig{}
}

type noiseChannel struct {
	normal  distuv.Normal
	uniform distuv.Uniform
}

func (c noiseChannel) draw() float64 {
	return c.normal.Rand() + c.uniform.Rand()
}

// NoiseModel draws additive Gaussian plus uniform noise for the six wrench axes from a single
// random source. It is not safe for concurrent use.
type NoiseModel struct {
	force  [3]noiseChannel
	torque [3]noiseChannel
}

// NewSource returns the random source for a NoiseModel. A nil seed seeds from the wall clock.
func NewSource(seed *uint64) rand.Source {
	if seed == nil {
		now := uint64(time.Now().UnixNano())
		return rand.NewPCG(now, now>>32)
	}
	return rand.NewPCG(*seed, *seed)
}

// NewNoiseModel builds a model whose every draw advances src.
func NewNoiseModel(cfg NoiseConfig, src rand.Source) (*NoiseModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("noise model needs a random source")
	}

	channels := func(normal, uniform r3.Vector) [3]noiseChannel {
		sigmas := [3]float64{normal.X, normal.Y, normal.Z}
		bounds := [3]float64{uniform.X, uniform.Y, uniform.Z}
		var out [3]noiseChannel
		for i := range out {
			out[i] = noiseChannel{
				normal:  distuv.Normal{Mu: 0, Sigma: sigmas[i], Src: src},
				uniform: distuv.Uniform{Min: -bounds[i], Max: bounds[i], Src: src},
			}
		}
		return out
	}
	return &NoiseModel{
		force:  channels(cfg.NormalForce, cfg.UniformForce),
		torque: channels(cfg.NormalTorque, cfg.UniformTorque),
	}, nil
}

// Sample draws one noise vector for force and one for torque. Draw order is fixed: force x, y,
// z then torque x, y, z, Gaussian before uniform on each axis.
func (n *NoiseModel) Sample() (force, torque r3.Vector) {
	var f, tq [3]float64
	for i := range f {
		f[i] = n.force[i].draw()
	}
	for i := range tq {
		tq[i] = n.torque[i].draw()
	}
	return r3.Vector{X: f[0], Y: f[1], Z: f[2]}, r3.Vector{X: tq[0], Y: tq[1], Z: tq[2]}
}

// Apply returns w plus one Sample.
func (n *NoiseModel) Apply(w Wrench) Wrench {
	force, torque := n.Sample()
	return w.Add(Wrench{Force: force, Torque: torque})
}

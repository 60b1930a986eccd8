package forcetorque

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/referenceframe"
	"github.com/game-of-drones/rotors-simulator/utils"
)

const (
	defaultTopic      = "force_sensor"
	defaultTruthTopic = "force_sensor_truth"
)

// Config is used for converting force/torque sensor attributes.
type Config struct {
	Namespace string `json:"robot_namespace,omitempty"`
	// LinkName is the link whose force and torque are measured.
	LinkName string `json:"link_name"`
	// SensorFrameID names the sensor frame in published transforms. Defaults to Namespace, then
	// LinkName.
	SensorFrameID    string `json:"sensor_frame_id,omitempty"`
	ParentFrameID    string `json:"parent_frame_id,omitempty"`
	ReferenceFrameID string `json:"reference_frame_id,omitempty"`

	Topic      string `json:"force_sensor_topic,omitempty"`
	TruthTopic string `json:"force_sensor_truth_topic,omitempty"`

	// MeasurementDelay is the number of ticks between taking and publishing a sample.
	MeasurementDelay int `json:"measurement_delay,omitempty"`
	// MeasurementDivisor takes a sample every that many ticks. Unset means every tick.
	MeasurementDivisor *int `json:"measurement_divisor,omitempty"`
	// FixedDelay, in seconds, is added to every sample's timestamp.
	FixedDelay float64 `json:"fixed_delay,omitempty"`

	NoiseNormalForce   r3.Vector `json:"noise_normal_force"`
	NoiseNormalTorque  r3.Vector `json:"noise_normal_torque"`
	NoiseUniformForce  r3.Vector `json:"noise_uniform_force"`
	NoiseUniformTorque r3.Vector `json:"noise_uniform_torque"`

	// RandomSeed makes the noise reproducible. Unset seeds from the wall clock.
	RandomSeed *uint64 `json:"random_seed,omitempty"`
}

// DecodeConfig converts an attribute map into a Config.
func DecodeConfig(attributes map[string]interface{}) (*Config, error) {
	var conf Config
	if err := utils.DecodeAttributes(attributes, &conf); err != nil {
		return nil, utils.NewConfigValidationError("", err)
	}
	return &conf, nil
}

// Validate ensures all parts of the config are valid and returns the names of the links the
// sensor depends on.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.LinkName == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "link_name")
	}
	if conf.MeasurementDelay < 0 {
		return nil, utils.NewConfigValidationError(path,
			errors.Errorf("measurement_delay must be >= 0, got %d", conf.MeasurementDelay))
	}
	if conf.MeasurementDivisor != nil && *conf.MeasurementDivisor < 1 {
		return nil, utils.NewConfigValidationError(path,
			errors.Errorf("measurement_divisor must be >= 1, got %d", *conf.MeasurementDivisor))
	}
	if math.IsNaN(conf.FixedDelay) || math.IsInf(conf.FixedDelay, 0) {
		return nil, utils.NewConfigValidationError(path, errors.New("fixed_delay must be finite"))
	}
	if err := conf.Noise().Validate(); err != nil {
		return nil, utils.NewConfigValidationError(path, err)
	}
	frames := conf.Frames()
	if err := frames.Validate(); err != nil {
		return nil, utils.NewConfigValidationError(path, err)
	}

	deps := []string{conf.LinkName}
	if frames.HasParent() {
		deps = append(deps, frames.Parent)
	}
	if frames.HasReference() {
		deps = append(deps, frames.Reference)
	}
	return deps, nil
}

// Frames returns the frame chain the sensor reports in.
func (conf *Config) Frames() referenceframe.FrameConfig {
	child := conf.SensorFrameID
	if child == "" {
		child = conf.Namespace
	}
	if child == "" {
		child = conf.LinkName
	}
	return referenceframe.NewFrameConfig(child, conf.ParentFrameID, conf.ReferenceFrameID)
}

// Noise returns the noise parameters.
func (conf *Config) Noise() NoiseConfig {
	return NoiseConfig{
		NormalForce:   conf.NoiseNormalForce,
		NormalTorque:  conf.NoiseNormalTorque,
		UniformForce:  conf.NoiseUniformForce,
		UniformTorque: conf.NoiseUniformTorque,
	}
}

// Divisor returns the measurement divisor, defaulting to 1.
func (conf *Config) Divisor() int {
	if conf.MeasurementDivisor == nil {
		return 1
	}
	return *conf.MeasurementDivisor
}

// TimestampOffset returns FixedDelay as a duration.
func (conf *Config) TimestampOffset() time.Duration {
	return time.Duration(conf.FixedDelay * float64(time.Second))
}

// Topics returns the noisy and true wrench topic names, defaulted.
func (conf *Config) Topics() (noisy, truth string) {
	noisy, truth = conf.Topic, conf.TruthTopic
	if noisy == "" {
		noisy = defaultTopic
	}
	if truth == "" {
		truth = defaultTruthTopic
	}
	return noisy, truth
}

package forcetorque

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// Sensor is a simulated force/torque sensor attached to a link of a physics world.
//
// OnTick is driven by the world's update event, one call per step, never concurrently with
// itself. Readings and Close may be called from other goroutines.
type Sensor struct {
	name      string
	frames    referenceframe.FrameConfig
	logger    logging.Logger
	publisher Publisher
	offset    time.Duration

	link          physics.Link
	parentLink    physics.Link
	referenceLink physics.Link
	conn          physics.Connection

	mu        sync.Mutex
	closed    bool
	tick      uint64
	seq       uint32
	queue     *DelayedSampleQueue
	noise     *NoiseModel
	lastTrue  *WrenchSample
	lastNoisy *WrenchSample

	released     atomic.Uint64
	dropped      atomic.Uint64
	skippedTicks atomic.Uint64
}

// NewSensor validates conf, resolves its links in world, and connects the sensor to the
// world's update event. On error nothing is connected. The sensor takes ownership of
// publisher.
func NewSensor(
	ctx context.Context,
	world physics.World,
	conf *Config,
	publisher Publisher,
	logger logging.Logger,
) (*Sensor, error) {
	const path = "forcetorque"
	if _, err := conf.Validate(path); err != nil {
		return nil, err
	}
	if publisher == nil {
		return nil, errors.New("force/torque sensor needs a publisher")
	}

	frames := conf.Frames()
	s := &Sensor{
		name:      frames.Child,
		frames:    frames,
		logger:    logger.Sublogger(frames.Child),
		publisher: publisher,
		offset:    conf.TimestampOffset(),
	}

	var ok bool
	if s.link, ok = world.LinkByName(conf.LinkName); !ok {
		return nil, newLinkNotFoundError(path, "link", conf.LinkName)
	}
	if frames.HasParent() {
		if s.parentLink, ok = world.LinkByName(frames.Parent); !ok {
			return nil, newLinkNotFoundError(path, "parent frame", frames.Parent)
		}
	}
	if frames.HasReference() {
		if s.referenceLink, ok = world.LinkByName(frames.Reference); !ok {
			return nil, newLinkNotFoundError(path, "reference frame", frames.Reference)
		}
	}

	var err error
	if s.queue, err = NewDelayedSampleQueue(conf.MeasurementDelay, conf.Divisor()); err != nil {
		return nil, err
	}
	if s.noise, err = NewNoiseModel(conf.Noise(), NewSource(conf.RandomSeed)); err != nil {
		return nil, err
	}

	if conf.Namespace == "" {
		s.logger.CWarnw(ctx, "no robot namespace set, topics and frames are not namespaced", "sensor_frame", frames.Child)
	}
	s.conn = world.ConnectWorldUpdateBegin(s.OnTick)
	s.logger.CInfow(ctx, "force/torque sensor initialized",
		"link", conf.LinkName,
		"frame_mode", frames.Mode().String(),
		"measurement_delay", s.queue.Delay(),
		"measurement_divisor", s.queue.Divisor(),
		"seeded", conf.RandomSeed != nil,
	)
	return s, nil
}

// Name returns the sensor frame name.
func (s *Sensor) Name() string {
	return s.name
}

// OnTick runs one sensor update. Every call advances the sensor's tick counter by one.
func (s *Sensor) OnTick(ctx context.Context, info physics.UpdateInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	tick := s.tick
	defer func() { s.tick++ }()

	poses, err := s.readPoses()
	if err != nil {
		s.skippedTicks.Inc()
		s.logger.CWarnw(ctx, "skipping tick, frame poses unavailable", "tick", tick, "error", err)
		// Release tick equality would never hold again for a sample due now.
		if sample, ok := s.queue.TryRelease(tick); ok {
			s.dropped.Inc()
			s.logger.CWarnw(ctx, "dropped sample due on skipped tick", "tick", tick, "seq", sample.Seq)
		}
		return
	}

	wrench := Wrench{Force: s.link.RelativeForce(), Torque: s.link.RelativeTorque()}
	stamp := NewTimestamp(info.SimTime + s.offset)
	s.queue.Enqueue(tick, func(releaseTick uint64) WrenchSample {
		sample := WrenchSample{
			Seq:         s.seq,
			ReleaseTick: releaseTick,
			Stamp:       stamp,
			FrameID:     s.frames.Parent,
			Wrench:      wrench,
		}
		s.seq++
		return sample
	})

	sample, ok := s.queue.TryRelease(tick)
	if !ok {
		return
	}
	s.publish(ctx, tick, sample, poses)
}

func (s *Sensor) readPoses() (referenceframe.ChainPoses, error) {
	var poses referenceframe.ChainPoses
	var err error
	if poses.Child, err = s.link.WorldPose(); err != nil {
		return poses, err
	}
	if s.parentLink != nil {
		if poses.Parent, err = s.parentLink.WorldPose(); err != nil {
			return poses, err
		}
	}
	if s.referenceLink != nil {
		if poses.Reference, err = s.referenceLink.WorldPose(); err != nil {
			return poses, err
		}
	}
	return poses, nil
}

func (s *Sensor) publish(ctx context.Context, tick uint64, truth WrenchSample, poses referenceframe.ChainPoses) {
	if err := s.publisher.PublishWrench(ctx, RoleTrue, truth); err != nil {
		s.logger.CDebugw(ctx, "failed to publish true wrench", "tick", tick, "error", err)
	}

	noisy := truth
	noisy.Wrench = s.noise.Apply(truth.Wrench)
	if err := s.publisher.PublishWrench(ctx, RoleNoisy, noisy); err != nil {
		s.logger.CDebugw(ctx, "failed to publish noisy wrench", "tick", tick, "error", err)
	}

	transforms, err := referenceframe.ComputeChain(s.frames, poses, truth.Stamp.Duration())
	if err != nil {
		s.logger.CWarnw(ctx, "cannot compute frame transforms", "tick", tick, "error", err)
	}
	for _, tf := range transforms {
		if err := s.publisher.PublishTransform(ctx, tf); err != nil {
			s.logger.CDebugw(ctx, "failed to publish transform", "tick", tick, "parent", tf.Parent,
				"child", tf.Child, "error", err)
		}
	}

	s.lastTrue, s.lastNoisy = &truth, &noisy
	s.released.Inc()
}

// Readings returns the latest published wrenches and the sensor's counters.
func (s *Sensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	readings := map[string]interface{}{
		"tick":          s.tick,
		"queue_length":  s.queue.Len(),
		"released":      s.released.Load(),
		"dropped":       s.dropped.Load(),
		"skipped_ticks": s.skippedTicks.Load(),
	}
	if s.lastNoisy != nil {
		readings["stamp"] = s.lastNoisy.Stamp.String()
		readings["frame_id"] = s.lastNoisy.FrameID
		readings["force"] = s.lastNoisy.Wrench.Force
		readings["torque"] = s.lastNoisy.Wrench.Torque
		readings["true_force"] = s.lastTrue.Wrench.Force
		readings["true_torque"] = s.lastTrue.Wrench.Torque
	}
	return readings, nil
}

// Close disconnects the sensor from the world and closes its publisher. Samples still waiting
// for release are discarded. Closing twice is a no-op.
func (s *Sensor) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.Disconnect()

	if pending := s.queue.Len(); pending > 0 {
		s.logger.CDebugw(ctx, "discarding unreleased samples", "count", pending)
	}
	return errors.Wrap(s.publisher.Close(), "closing force/torque publisher")
}

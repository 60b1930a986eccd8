package forcetorque_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/physics/fake"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
	"github.com/game-of-drones/rotors-simulator/spatialmath"
	"github.com/game-of-drones/rotors-simulator/testutils"
	"github.com/game-of-drones/rotors-simulator/testutils/inject"
	"github.com/game-of-drones/rotors-simulator/utils"
)

const step = 10 * time.Millisecond

type harness struct {
	model       *fake.Model
	world       *inject.World
	pub         *testutils.RecordingPublisher
	update      physics.UpdateFunc
	connects    int
	disconnects int
	ticks       uint64
}

func newHarness(t *testing.T, links ...fake.LinkConfig) *harness {
	t.Helper()
	model, err := fake.NewModel(links)
	test.That(t, err, test.ShouldBeNil)

	h := &harness{model: model, pub: &testutils.RecordingPublisher{}}
	h.world = &inject.World{
		LinkByNameFunc: model.LinkByName,
		SimTimeFunc:    func() time.Duration { return time.Duration(h.ticks) * step },
		ConnectWorldUpdateBeginFunc: func(fn physics.UpdateFunc) physics.Connection {
			h.connects++
			h.update = fn
			return &inject.Connection{DisconnectFunc: func() { h.disconnects++ }}
		},
	}
	return h
}

func (h *harness) run(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		simTime := time.Duration(h.ticks) * step
		h.model.Advance(simTime)
		h.pub.Tick = h.ticks
		h.update(ctx, physics.UpdateInfo{Iteration: h.ticks, SimTime: simTime, RealTime: time.Now()})
		h.ticks++
	}
}

func intPtr(v int) *int        { return &v }
func seedPtr(v uint64) *uint64 { return &v }

func newSensor(t *testing.T, h *harness, conf *forcetorque.Config) *forcetorque.Sensor {
	t.Helper()
	s, err := forcetorque.NewSensor(context.Background(), h.world, conf, h.pub, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.connects, test.ShouldEqual, 1)
	return s
}

func ticksOf(published []testutils.PublishedWrench) []uint64 {
	out := make([]uint64, 0, len(published))
	for _, p := range published {
		out = append(out, p.Tick)
	}
	return out
}

func TestDelayedRelease(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fake.LinkConfig{Name: "ft_link", Force: r3.Vector{X: 1}})
	s := newSensor(t, h, &forcetorque.Config{
		LinkName:           "ft_link",
		MeasurementDelay:   2,
		MeasurementDivisor: intPtr(1),
		RandomSeed:         seedPtr(42),
	})
	h.run(ctx, 7)

	truth := h.pub.Wrenches(forcetorque.RoleTrue)
	noisy := h.pub.Wrenches(forcetorque.RoleNoisy)
	test.That(t, ticksOf(truth), test.ShouldResemble, []uint64{2, 3, 4, 5, 6})
	test.That(t, ticksOf(noisy), test.ShouldResemble, []uint64{2, 3, 4, 5, 6})

	for i, p := range truth {
		test.That(t, p.Sample.Seq, test.ShouldEqual, uint32(i))
		test.That(t, p.Sample.ReleaseTick, test.ShouldEqual, p.Tick)
		test.That(t, p.Sample.FrameID, test.ShouldEqual, referenceframe.World)
		test.That(t, p.Sample.Wrench.Force, test.ShouldResemble, r3.Vector{X: 1})
		// stamped with the sim time of the tick the sample was taken
		test.That(t, p.Sample.Stamp.Duration(), test.ShouldEqual, time.Duration(p.Tick-2)*step)
		if diff := cmp.Diff(p.Sample, noisy[i].Sample); diff != "" {
			t.Errorf("zero noise changed the sample (-true +noisy):\n%s", diff)
		}
	}

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["tick"], test.ShouldEqual, uint64(7))
	test.That(t, readings["released"], test.ShouldEqual, uint64(5))
	test.That(t, readings["queue_length"], test.ShouldEqual, 2)
	test.That(t, readings["force"], test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, readings["true_force"], test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, readings["frame_id"], test.ShouldEqual, referenceframe.World)
	test.That(t, readings["stamp"], test.ShouldEqual, "0.040000000")
}

func TestDivisorWithoutDelay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fake.LinkConfig{Name: "ft_link", Torque: r3.Vector{Z: 0.5}})
	newSensor(t, h, &forcetorque.Config{
		LinkName:           "ft_link",
		MeasurementDivisor: intPtr(3),
		FixedDelay:         0.5,
	})
	h.run(ctx, 7)

	truth := h.pub.Wrenches(forcetorque.RoleTrue)
	test.That(t, ticksOf(truth), test.ShouldResemble, []uint64{0, 3, 6})
	for i, p := range truth {
		test.That(t, p.Sample.Seq, test.ShouldEqual, uint32(i))
		test.That(t, p.Sample.Stamp.Duration(), test.ShouldEqual, time.Duration(p.Tick)*step+500*time.Millisecond)
		test.That(t, p.Sample.Wrench.Torque, test.ShouldResemble, r3.Vector{Z: 0.5})
	}
}

func TestNoisyOutputIsReproducible(t *testing.T) {
	ctx := context.Background()
	conf := func() *forcetorque.Config {
		return &forcetorque.Config{
			LinkName:           "ft_link",
			MeasurementDelay:   1,
			NoiseNormalForce:   r3.Vector{X: 0.1, Y: 0.1, Z: 0.1},
			NoiseUniformTorque: r3.Vector{X: 0.01, Y: 0.01, Z: 0.01},
			RandomSeed:         seedPtr(42),
		}
	}
	link := fake.LinkConfig{Name: "ft_link", Force: r3.Vector{Z: -9.81}}

	a := newHarness(t, link)
	newSensor(t, a, conf())
	a.run(ctx, 20)
	b := newHarness(t, link)
	newSensor(t, b, conf())
	b.run(ctx, 20)

	noisyA := a.pub.Wrenches(forcetorque.RoleNoisy)
	test.That(t, noisyA, test.ShouldHaveLength, 19)
	test.That(t, cmp.Diff(noisyA, b.pub.Wrenches(forcetorque.RoleNoisy)), test.ShouldBeEmpty)
	test.That(t, noisyA[0].Sample.Wrench, test.ShouldNotResemble, a.pub.Wrenches(forcetorque.RoleTrue)[0].Sample.Wrench)
}

func TestFrameModes(t *testing.T) {
	ctx := context.Background()
	yaw90 := &spatialmath.EulerAngles{Yaw: math.Pi / 2}
	links := []fake.LinkConfig{
		{Name: "base", Position: r3.Vector{X: 1}, Orientation: yaw90, LinearVelocity: r3.Vector{Z: 1}},
		{Name: "ft_link", Position: r3.Vector{X: 1, Y: 1}, AngularVelocity: r3.Vector{X: 0.3}},
		{Name: "odom", Position: r3.Vector{X: -2, Y: 4, Z: 0.5}, Orientation: &spatialmath.EulerAngles{Roll: 0.2}},
	}

	for _, tc := range []struct {
		name      string
		parent    string
		reference string
		frameID   string
		chain     [][2]string
	}{
		{"sensor in world", "", "", referenceframe.World, [][2]string{{referenceframe.World, "ft"}}},
		{"sensor in parent", "base", "", "base", [][2]string{{"base", "ft"}}},
		{"reference equals parent", "base", "base", "base", [][2]string{{"base", "ft"}}},
		{"sensor in reference", "base", "odom", "base", [][2]string{
			{"base", "ft"}, {"odom", "base"}, {referenceframe.World, "odom"},
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, links...)
			newSensor(t, h, &forcetorque.Config{
				LinkName:         "ft_link",
				SensorFrameID:    "ft",
				ParentFrameID:    tc.parent,
				ReferenceFrameID: tc.reference,
			})
			h.run(ctx, 3)

			truth := h.pub.Wrenches(forcetorque.RoleTrue)
			groups := h.pub.Transforms()
			test.That(t, truth, test.ShouldHaveLength, 3)
			test.That(t, groups, test.ShouldHaveLength, 3)

			for i, group := range groups {
				test.That(t, truth[i].Sample.FrameID, test.ShouldEqual, tc.frameID)
				test.That(t, group, test.ShouldHaveLength, len(tc.chain))
				for j, tf := range group {
					test.That(t, [2]string{tf.Parent, tf.Child}, test.ShouldResemble, tc.chain[j])
					test.That(t, tf.Stamp, test.ShouldEqual, truth[i].Sample.Stamp.Duration())
				}

				// the poses were read on the tick the transforms were published
				h.model.Advance(time.Duration(truth[i].Tick) * step)
				sensorPose := mustPose(t, h, "ft_link")
				composed, root, err := referenceframe.ComposeChain(group)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, root, test.ShouldEqual, group[len(group)-1].Parent)
				if root == referenceframe.World {
					test.That(t, spatialmath.PoseAlmostEqual(composed, sensorPose), test.ShouldBeTrue)
				} else {
					test.That(t, spatialmath.PoseAlmostEqual(
						spatialmath.Compose(mustPose(t, h, root), composed), sensorPose), test.ShouldBeTrue)
				}
			}
		})
	}
}

func mustPose(t *testing.T, h *harness, name string) spatialmath.Pose {
	t.Helper()
	link, ok := h.model.LinkByName(name)
	test.That(t, ok, test.ShouldBeTrue)
	pose, err := link.WorldPose()
	test.That(t, err, test.ShouldBeNil)
	return pose
}

func TestPoseUnavailableSkipsTick(t *testing.T) {
	ctx := context.Background()
	logger, logs := logging.NewObservedTestLogger(t)
	h := newHarness(t,
		fake.LinkConfig{Name: "base"},
		fake.LinkConfig{Name: "ft_link", Force: r3.Vector{Y: 2}},
	)
	s, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{
		LinkName:         "ft_link",
		ParentFrameID:    "base",
		MeasurementDelay: 1,
	}, h.pub, logger)
	test.That(t, err, test.ShouldBeNil)

	h.run(ctx, 2)
	test.That(t, h.model.SetPoseAvailable("base", false), test.ShouldBeNil)
	h.run(ctx, 1)
	test.That(t, h.model.SetPoseAvailable("base", true), test.ShouldBeNil)
	h.run(ctx, 2)

	truth := h.pub.Wrenches(forcetorque.RoleTrue)
	test.That(t, ticksOf(truth), test.ShouldResemble, []uint64{1, 4})
	test.That(t, truth[0].Sample.Seq, test.ShouldEqual, uint32(0))
	test.That(t, truth[1].Sample.Seq, test.ShouldEqual, uint32(2))

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["tick"], test.ShouldEqual, uint64(5))
	test.That(t, readings["skipped_ticks"], test.ShouldEqual, uint64(1))
	test.That(t, readings["dropped"], test.ShouldEqual, uint64(1))
	test.That(t, readings["released"], test.ShouldEqual, uint64(2))

	test.That(t, logs.FilterMessage("skipping tick, frame poses unavailable").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("dropped sample due on skipped tick").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("force/torque sensor initialized").Len(), test.ShouldEqual, 1)
}

func TestNamespaceIsOptional(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fake.LinkConfig{Name: "ft_link"})

	logger, logs := logging.NewObservedTestLogger(t)
	s, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{LinkName: "ft_link"}, h.pub, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name(), test.ShouldEqual, "ft_link")
	test.That(t, logs.FilterMessage("no robot namespace set, topics and frames are not namespaced").Len(), test.ShouldEqual, 1)
	test.That(t, s.Close(ctx), test.ShouldBeNil)

	logger, logs = logging.NewObservedTestLogger(t)
	s, err = forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{Namespace: "firefly", LinkName: "ft_link"}, h.pub, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name(), test.ShouldEqual, "firefly")
	test.That(t, logs.FilterMessage("no robot namespace set, topics and frames are not namespaced").Len(), test.ShouldEqual, 0)
	test.That(t, s.Close(ctx), test.ShouldBeNil)
}

func TestNewSensorErrors(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	t.Run("missing link", func(t *testing.T) {
		h := newHarness(t, fake.LinkConfig{Name: "base"})
		_, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{LinkName: "ft_link"}, h.pub, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, forcetorque.ErrLinkNotFound), test.ShouldBeTrue)
		test.That(t, utils.IsConfigValidationError(err), test.ShouldBeTrue)
		test.That(t, h.connects, test.ShouldEqual, 0)
	})

	t.Run("missing reference", func(t *testing.T) {
		h := newHarness(t, fake.LinkConfig{Name: "base"}, fake.LinkConfig{Name: "ft_link"})
		_, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{
			LinkName: "ft_link", ParentFrameID: "base", ReferenceFrameID: "odom",
		}, h.pub, logger)
		test.That(t, errors.Is(err, forcetorque.ErrLinkNotFound), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "odom")
		test.That(t, h.connects, test.ShouldEqual, 0)
	})

	t.Run("invalid config", func(t *testing.T) {
		h := newHarness(t, fake.LinkConfig{Name: "ft_link"})
		_, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{
			LinkName: "ft_link", MeasurementDivisor: intPtr(0),
		}, h.pub, logger)
		test.That(t, utils.IsConfigValidationError(err), test.ShouldBeTrue)
		test.That(t, h.connects, test.ShouldEqual, 0)
	})

	t.Run("nil publisher", func(t *testing.T) {
		h := newHarness(t, fake.LinkConfig{Name: "ft_link"})
		_, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{LinkName: "ft_link"}, nil, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, h.connects, test.ShouldEqual, 0)
	})
}

func TestPublishErrorsDoNotStopSensor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fake.LinkConfig{Name: "ft_link"})
	var wrenches, transforms int
	pub := &inject.Publisher{
		PublishWrenchFunc: func(ctx context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error {
			wrenches++
			return errors.New("no subscribers")
		},
		PublishTransformFunc: func(ctx context.Context, tf referenceframe.Transform) error {
			transforms++
			return errors.New("no subscribers")
		},
		CloseFunc: func() error { return errors.New("already gone") },
	}
	s, err := forcetorque.NewSensor(ctx, h.world, &forcetorque.Config{LinkName: "ft_link"}, pub, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	h.run(ctx, 4)
	test.That(t, wrenches, test.ShouldEqual, 8)
	test.That(t, transforms, test.ShouldEqual, 4)

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["released"], test.ShouldEqual, uint64(4))

	err = s.Close(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already gone")
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fake.LinkConfig{Name: "ft_link"})
	s := newSensor(t, h, &forcetorque.Config{LinkName: "ft_link", MeasurementDelay: 5})
	test.That(t, s.Name(), test.ShouldEqual, "ft_link")
	h.run(ctx, 3)

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["queue_length"], test.ShouldEqual, 3)
	_, hasForce := readings["force"]
	test.That(t, hasForce, test.ShouldBeFalse)

	test.That(t, s.Close(ctx), test.ShouldBeNil)
	test.That(t, s.Close(ctx), test.ShouldBeNil)
	test.That(t, h.disconnects, test.ShouldEqual, 1)
	test.That(t, h.pub.CloseCount(), test.ShouldEqual, 1)

	// a callback already in flight when Close ran must not publish
	h.run(ctx, 10)
	test.That(t, h.pub.Wrenches(forcetorque.RoleTrue), test.ShouldBeEmpty)

	_, err = s.Readings(ctx, nil)
	test.That(t, errors.Is(err, forcetorque.ErrClosed), test.ShouldBeTrue)
}

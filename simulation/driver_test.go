package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/physics/fake"
)

func newTestDriver(t *testing.T, conf Config, clk clock.Clock) (*Driver, *fake.Model) {
	t.Helper()
	model, err := fake.NewModel([]fake.LinkConfig{{Name: "base"}})
	test.That(t, err, test.ShouldBeNil)
	d, err := NewDriver(model, conf, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return d, model
}

func TestConfigValidate(t *testing.T) {
	for _, conf := range []Config{
		{StepSize: -time.Millisecond},
		{RealTimeFactor: -1},
		{Ticks: -3},
	} {
		test.That(t, conf.Validate("simulation"), test.ShouldNotBeNil)
	}
	conf := Config{}
	test.That(t, conf.Validate("simulation"), test.ShouldBeNil)

	_, err := NewDriver(nil, conf, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, Config{}, clock.NewMock())
	test.That(t, d.StepSize(), test.ShouldEqual, DefaultStepSize)

	var order []string
	var infos []physics.UpdateInfo
	d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) {
		order = append(order, "first")
		infos = append(infos, info)
	})
	second := d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) {
		order = append(order, "second")
	})

	test.That(t, d.Run(ctx, 3), test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []string{"first", "second", "first", "second", "first", "second"})
	test.That(t, d.Iterations(), test.ShouldEqual, uint64(3))
	test.That(t, d.SimTime(), test.ShouldEqual, 3*DefaultStepSize)
	for i, info := range infos {
		test.That(t, info.Iteration, test.ShouldEqual, uint64(i))
		test.That(t, info.SimTime, test.ShouldEqual, time.Duration(i)*DefaultStepSize)
	}

	second.Disconnect()
	second.Disconnect()
	order = nil
	test.That(t, d.Step(ctx), test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []string{"first"})
}

func TestStepAdvancesModel(t *testing.T) {
	ctx := context.Background()
	model, err := fake.NewModel([]fake.LinkConfig{{Name: "base", LinearVelocity: r3.Vector{X: 2}}})
	test.That(t, err, test.ShouldBeNil)
	d, err := NewDriver(model, Config{StepSize: 100 * time.Millisecond}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	link, ok := d.LinkByName("base")
	test.That(t, ok, test.ShouldBeTrue)
	var xs []float64
	d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) {
		pose, err := link.WorldPose()
		test.That(t, err, test.ShouldBeNil)
		xs = append(xs, pose.Point().X)
	})
	test.That(t, d.Run(ctx, 3), test.ShouldBeNil)
	test.That(t, xs[0], test.ShouldAlmostEqual, 0)
	test.That(t, xs[1], test.ShouldAlmostEqual, 0.2)
	test.That(t, xs[2], test.ShouldAlmostEqual, 0.4)
}

func TestDisconnectDuringStep(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, Config{}, clock.NewMock())

	var calls int
	var conn physics.Connection
	conn = d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) {
		calls++
		conn.Disconnect()
	})
	var later int
	d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) { later++ })

	test.That(t, d.Run(ctx, 2), test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 1)
	test.That(t, later, test.ShouldEqual, 2)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d, _ := newTestDriver(t, Config{}, clock.NewMock())
	d.ConnectWorldUpdateBegin(func(ctx context.Context, info physics.UpdateInfo) {
		if info.Iteration == 4 {
			cancel()
		}
	})
	err := d.Run(ctx, 0)
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, d.Iterations(), test.ShouldEqual, uint64(5))
}

func TestPacedRun(t *testing.T) {
	mock := clock.NewMock()
	d, _ := newTestDriver(t, Config{StepSize: 10 * time.Millisecond, RealTimeFactor: 2}, mock)

	test.That(t, d.Start(context.Background()), test.ShouldBeNil)
	test.That(t, d.Start(context.Background()), test.ShouldNotBeNil)
	defer d.Stop()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, d.Iterations(), test.ShouldEqual, uint64(1))
	})
	for i := 2; i <= 4; i++ {
		mock.Add(5 * time.Millisecond)
		want := uint64(i)
		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, d.Iterations(), test.ShouldEqual, want)
		})
	}

	d.Stop()
	stopped := d.Iterations()
	mock.Add(time.Second)
	test.That(t, d.Iterations(), test.ShouldEqual, stopped)
	test.That(t, d.SimTime(), test.ShouldEqual, time.Duration(stopped)*10*time.Millisecond)
}

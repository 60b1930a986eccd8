// Package simulation steps a physics model at a fixed rate and fires world update events to
// whoever is attached to it, standing in for the update loop of a physics engine.
package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/physics"
	"github.com/game-of-drones/rotors-simulator/utils"
)

// DefaultStepSize matches the default physics step of the engine the sensors were written for.
const DefaultStepSize = time.Millisecond

// Config controls stepping.
type Config struct {
	StepSize time.Duration `json:"step_size"`
	// RealTimeFactor paces Run so that simulation time advances that many times faster than wall
	// time. Zero runs as fast as possible.
	RealTimeFactor float64 `json:"real_time_factor"`
	// Ticks bounds the number of steps taken by a run. Zero means unbounded.
	Ticks int `json:"ticks"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.StepSize < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("step_size cannot be negative, got %v", conf.StepSize))
	}
	if conf.RealTimeFactor < 0 {
		return utils.NewConfigValidationError(path, errors.New("real_time_factor cannot be negative"))
	}
	if conf.Ticks < 0 {
		return utils.NewConfigValidationError(path, errors.New("ticks cannot be negative"))
	}
	return nil
}

type subscription struct {
	fn     physics.UpdateFunc
	driver *Driver
	once   sync.Once
	active atomic.Bool
}

func (s *subscription) Disconnect() {
	s.once.Do(func() {
		s.active.Store(false)
		s.driver.remove(s)
	})
}

// Driver is a physics.World that advances when stepped. Update callbacks run synchronously on
// the stepping goroutine, in the order they were connected, and never concurrently.
type Driver struct {
	model    physics.Model
	clock    clock.Clock
	logger   logging.Logger
	stepSize time.Duration
	rtf      float64

	stepMu sync.Mutex

	mu          sync.Mutex
	simTime     time.Duration
	subscribers []*subscription
	workers     utils.StoppableWorkers

	iteration atomic.Uint64
}

// NewDriver returns a driver for model. If model also implements physics.Stepper it is advanced
// to the current simulation time before each update. A nil clock uses the wall clock.
func NewDriver(model physics.Model, conf Config, clk clock.Clock, logger logging.Logger) (*Driver, error) {
	if err := conf.Validate("simulation"); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, errors.New("driver needs a model")
	}
	if clk == nil {
		clk = clock.New()
	}
	stepSize := conf.StepSize
	if stepSize == 0 {
		stepSize = DefaultStepSize
	}
	return &Driver{
		model:    model,
		clock:    clk,
		logger:   logger,
		stepSize: stepSize,
		rtf:      conf.RealTimeFactor,
	}, nil
}

// LinkByName implements physics.Model.
func (d *Driver) LinkByName(name string) (physics.Link, bool) {
	return d.model.LinkByName(name)
}

// SimTime returns the simulation time of the next step.
func (d *Driver) SimTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.simTime
}

// Iterations returns the number of completed steps.
func (d *Driver) Iterations() uint64 {
	return d.iteration.Load()
}

// StepSize returns the simulation time advanced per step.
func (d *Driver) StepSize() time.Duration {
	return d.stepSize
}

// ConnectWorldUpdateBegin implements physics.World.
func (d *Driver) ConnectWorldUpdateBegin(fn physics.UpdateFunc) physics.Connection {
	sub := &subscription{fn: fn, driver: d}
	sub.active.Store(true)
	d.mu.Lock()
	d.subscribers = append(d.subscribers, sub)
	d.mu.Unlock()
	return sub
}

func (d *Driver) remove(sub *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subscribers {
		if s == sub {
			d.subscribers = append(d.subscribers[:i:i], d.subscribers[i+1:]...)
			return
		}
	}
}

// Step runs one world update: the model is advanced to the current simulation time, every
// connected callback is called, and then simulation time moves forward by one step.
func (d *Driver) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.stepMu.Lock()
	defer d.stepMu.Unlock()

	d.mu.Lock()
	info := physics.UpdateInfo{Iteration: d.iteration.Load(), SimTime: d.simTime, RealTime: d.clock.Now()}
	subscribers := append([]*subscription(nil), d.subscribers...)
	d.mu.Unlock()

	if stepper, ok := d.model.(physics.Stepper); ok {
		stepper.Advance(info.SimTime)
	}
	// callbacks may disconnect themselves or others, so the lock is not held while they run
	for _, sub := range subscribers {
		if sub.active.Load() {
			sub.fn(ctx, info)
		}
	}

	d.mu.Lock()
	d.simTime += d.stepSize
	d.mu.Unlock()
	d.iteration.Inc()
	return nil
}

// Run steps n times, or until ctx is done when n is zero. With a positive real time factor each
// step waits for the next tick of the driver's clock.
func (d *Driver) Run(ctx context.Context, n int) error {
	if d.rtf <= 0 {
		for i := 0; n == 0 || i < n; i++ {
			if err := d.Step(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	interval := time.Duration(float64(d.stepSize) / d.rtf)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	ticker := d.clock.Ticker(interval)
	defer ticker.Stop()
	for i := 0; n == 0 || i < n; i++ {
		if err := d.Step(ctx); err != nil {
			return err
		}
		if n != 0 && i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Start runs the driver in the background until Stop is called or ctx is done.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.workers != nil {
		return errors.New("driver already started")
	}
	d.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		if err := d.Run(ctx, 0); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.CErrorw(ctx, "simulation stopped", "error", err)
		}
	})
	d.logger.CInfow(ctx, "simulation started", "step_size", d.stepSize, "real_time_factor", d.rtf)
	return nil
}

// Stop stops a driver started with Start and waits for the current step to finish.
func (d *Driver) Stop() {
	d.mu.Lock()
	workers := d.workers
	d.workers = nil
	d.mu.Unlock()
	if workers != nil {
		workers.Stop()
		d.logger.Infow("simulation stopped", "iterations", d.Iterations())
	}
}

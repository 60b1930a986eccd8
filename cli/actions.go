package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/config"
	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/physics/fake"
	"github.com/game-of-drones/rotors-simulator/ros"
	"github.com/game-of-drones/rotors-simulator/simulation"
	"github.com/game-of-drones/rotors-simulator/utils"
)

const defaultTicks = 1000

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("wrenchsim")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.WARN)
	}
	return logger
}

// ValidateAction loads a config and reports whether it can be run.
func ValidateAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(generalFlagConfig), newLogger(c))
	if err != nil {
		return err
	}
	frames := cfg.Sensor.Frames()
	noisy, truth := cfg.Sensor.Topics()
	fmt.Fprintf(c.App.Writer, "%s is valid: sensor %q on link %q, frames %s, topics %s and %s\n",
		cfg.ConfigFilePath, frames.Child, cfg.Sensor.LinkName, frames.Mode(),
		ros.ResolveTopic(cfg.Sensor.Namespace, noisy), ros.ResolveTopic(cfg.Sensor.Namespace, truth))
	fmt.Fprintln(c.App.Writer, cfg.World.String())
	return nil
}

// stdout must outlive the publisher that writes to it.
type unclosable struct {
	io.Writer
}

// RunAction steps the configured simulation and records the sensor output.
func RunAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	cfg, err := config.Read(c.String(generalFlagConfig), logger)
	if err != nil {
		return err
	}
	ticks := cfg.Simulation.Ticks
	if c.IsSet(runFlagTicks) {
		ticks = c.Int(runFlagTicks)
	}
	if ticks <= 0 {
		ticks = defaultTicks
	}

	model, err := fake.NewModel(cfg.World.Links)
	if err != nil {
		return err
	}
	driver, err := simulation.NewDriver(model, cfg.Simulation, nil, logger)
	if err != nil {
		return err
	}

	var out io.Writer = unclosable{c.App.Writer}
	summaryOut := c.App.ErrWriter
	if path := c.String(runFlagOut); path != "" {
		// lumberjack appends to an existing file
		if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "truncating recording")
		}
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    c.Int(runFlagMaxSize),
			MaxBackups: c.Int(runFlagMaxBackups),
		}
		summaryOut = c.App.Writer
	}

	ctx := c.Context
	if c.Bool(runFlagTrace) {
		ctx = logging.EnableDebugMode(ctx, "")
	}

	publisher := ros.NewPublisher(out, ros.TopicsFromConfig(cfg.Sensor), logger)
	guard := utils.NewGuard(func() { err = multierr.Combine(err, publisher.Close()) })
	defer guard.OnFail()

	summary := newNoiseSummary(publisher)
	sensor, err := forcetorque.NewSensor(ctx, driver, cfg.Sensor, summary, logger)
	if err != nil {
		return err
	}
	guard.Success()
	defer func() {
		err = multierr.Combine(err, sensor.Close(ctx))
		if err == nil {
			summary.write(summaryOut, publisher.Counts())
		}
	}()

	logger.CInfow(ctx, "running simulation", "ticks", ticks, "step_size", driver.StepSize())
	return driver.Run(ctx, ticks)
}

// EchoAction prints a recording, one message per line.
func EchoAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("echo takes exactly one recording file")
	}
	var filter func(string) bool
	if topic := c.String(echoFlagTopic); topic != "" {
		filter = func(t string) bool { return t == topic }
	}
	envs, err := ros.ReadRecording(c.Args().First(), filter)
	if err != nil {
		return err
	}

	for _, env := range envs {
		if _, err := fmt.Fprintf(c.App.Writer, "%s %s\n", env.Topic, env.Msg); err != nil {
			return err
		}
	}
	return nil
}

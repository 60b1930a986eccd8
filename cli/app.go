// Package cli contains the wrenchsim command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	runFlagOut        = "out"
	runFlagTicks      = "ticks"
	runFlagMaxSize    = "max-size"
	runFlagMaxBackups = "max-backups"
	runFlagTrace      = "trace"

	echoFlagTopic = "topic"
)

var app = &cli.App{
	Name:            "wrenchsim",
	Usage:           "simulate a force/torque sensor and record what it publishes",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "run",
			Usage:     "step the simulation and record the sensor output as JSON lines",
			UsageText: "wrenchsim run --config FILE [--out FILE] [--ticks N]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
				&cli.StringFlag{
					Name:    runFlagOut,
					Aliases: []string{"o"},
					Usage:   "write the recording to `FILE` instead of stdout",
				},
				&cli.IntFlag{
					Name:  runFlagTicks,
					Usage: "number of simulation steps, overriding simulation.ticks",
				},
				&cli.IntFlag{
					Name:  runFlagMaxSize,
					Value: 100,
					Usage: "rotate the recording file after it reaches `MB` megabytes",
				},
				&cli.IntFlag{
					Name:  runFlagMaxBackups,
					Value: 3,
					Usage: "number of rotated recording files to keep",
				},
				&cli.BoolFlag{
					Name:  runFlagTrace,
					Usage: "log every simulation step at debug level without raising the global log level",
				},
			},
			Action: RunAction,
		},
		{
			Name:  "validate",
			Usage: "check a configuration file without running it",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagConfig,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "load configuration from `FILE`",
				},
			},
			Action: ValidateAction,
		},
		{
			Name:      "echo",
			Usage:     "print the messages of a recording, optionally for a single topic",
			ArgsUsage: "<recording>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  echoFlagTopic,
					Usage: "only print messages on `TOPIC`",
				},
			},
			Action: EchoAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

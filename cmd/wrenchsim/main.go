// Package main is the wrenchsim command.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/game-of-drones/rotors-simulator/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		log.Fatal(err)
	}
}

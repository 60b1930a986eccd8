// Package config defines the structures to configure a simulation run: the sensor, the fake
// world it is attached to, and how the world is stepped.
package config

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/physics/fake"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
	"github.com/game-of-drones/rotors-simulator/simulation"
	"github.com/game-of-drones/rotors-simulator/utils"
)

// Config describes a simulation run.
type Config struct {
	ConfigFilePath string `json:"-"`

	Sensor     *forcetorque.Config `json:"sensor"`
	World      World               `json:"world"`
	Simulation simulation.Config   `json:"simulation"`
}

// World lists the links of the fake physics model.
type World struct {
	Links []fake.LinkConfig `json:"links"`
}

// String renders the links as a table.
func (w World) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Link", "Position", "Orientation", "Force", "Torque"})
	for i, link := range w.Links {
		orientation := ""
		if link.Orientation != nil {
			orientation = fmt.Sprintf("Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				link.Orientation.Roll, link.Orientation.Pitch, link.Orientation.Yaw)
		}
		t.AppendRow(table.Row{
			i,
			link.Name,
			fmt.Sprintf("X:%g, Y:%g, Z:%g", link.Position.X, link.Position.Y, link.Position.Z),
			orientation,
			fmt.Sprintf("X:%g, Y:%g, Z:%g", link.Force.X, link.Force.Y, link.Force.Z),
			fmt.Sprintf("X:%g, Y:%g, Z:%g", link.Torque.X, link.Torque.Y, link.Torque.Z),
		})
	}
	return t.Render()
}

// LinkNames returns the configured link names in order.
func (w *World) LinkNames() []string {
	names := make([]string, 0, len(w.Links))
	for _, link := range w.Links {
		names = append(names, link.Name)
	}
	return names
}

// Validate ensures all parts of the config are valid and that every link the sensor depends
// on exists in the world.
func (c *Config) Validate() error {
	if c.Sensor == nil {
		return utils.NewConfigValidationFieldRequiredError("", "sensor")
	}
	deps, err := c.Sensor.Validate("sensor")
	if err != nil {
		return err
	}

	known := map[string]bool{referenceframe.World: true}
	for idx := range c.World.Links {
		path := fmt.Sprintf("world.links.%d", idx)
		if err := c.World.Links[idx].Validate(path); err != nil {
			return err
		}
		name := c.World.Links[idx].Name
		if known[name] {
			return utils.NewConfigValidationError(path, errors.Errorf("link name %q is not unique", name))
		}
		known[name] = true
	}
	for _, dep := range deps {
		if !known[dep] {
			return utils.NewConfigValidationError("sensor",
				errors.Wrapf(forcetorque.ErrLinkNotFound, "%q is not a world link", dep))
		}
	}

	return c.Simulation.Validate("simulation")
}

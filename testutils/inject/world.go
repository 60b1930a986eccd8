package inject

import (
	"time"

	"github.com/game-of-drones/rotors-simulator/physics"
)

// World is an injected physics world.
type World struct {
	physics.World
	LinkByNameFunc              func(name string) (physics.Link, bool)
	SimTimeFunc                 func() time.Duration
	ConnectWorldUpdateBeginFunc func(fn physics.UpdateFunc) physics.Connection
}

// LinkByName calls the injected LinkByName or the real version.
func (w *World) LinkByName(name string) (physics.Link, bool) {
	if w.LinkByNameFunc == nil {
		return w.World.LinkByName(name)
	}
	return w.LinkByNameFunc(name)
}

// SimTime calls the injected SimTime or the real version.
func (w *World) SimTime() time.Duration {
	if w.SimTimeFunc == nil {
		return w.World.SimTime()
	}
	return w.SimTimeFunc()
}

// ConnectWorldUpdateBegin calls the injected ConnectWorldUpdateBegin or the real version.
func (w *World) ConnectWorldUpdateBegin(fn physics.UpdateFunc) physics.Connection {
	if w.ConnectWorldUpdateBeginFunc == nil {
		return w.World.ConnectWorldUpdateBegin(fn)
	}
	return w.ConnectWorldUpdateBeginFunc(fn)
}

// Connection is an injected update connection.
type Connection struct {
	DisconnectFunc func()
}

// Disconnect calls the injected Disconnect, if any.
func (c *Connection) Disconnect() {
	if c.DisconnectFunc != nil {
		c.DisconnectFunc()
	}
}

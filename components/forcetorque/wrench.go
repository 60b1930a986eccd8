// Package forcetorque implements a simulated six-axis force/torque sensor. Every simulation
// step it samples the load on a link, holds the sample for a fixed number of steps to emulate
// latency, and then publishes the true reading, a noisy reading, and the frame transforms
// needed to interpret them.
package forcetorque

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
)

// Wrench is a force and torque acting at a point.
type Wrench struct {
	Force  r3.Vector `json:"force"`
	Torque r3.Vector `json:"torque"`
}

// Add returns the component-wise sum of two wrenches.
func (w Wrench) Add(other Wrench) Wrench {
	return Wrench{Force: w.Force.Add(other.Force), Torque: w.Torque.Add(other.Torque)}
}

// Timestamp is a simulation time split into whole seconds and nanoseconds, with
// 0 <= Nsec < 1e9.
type Timestamp struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// NewTimestamp splits d into a Timestamp. Negative durations floor towards the earlier second.
func NewTimestamp(d time.Duration) Timestamp {
	sec := int64(d / time.Second)
	nsec := int64(d % time.Second)
	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}
	return Timestamp{Sec: sec, Nsec: nsec}
}

// Duration converts the timestamp back into a duration since simulation start.
func (ts Timestamp) Duration() time.Duration {
	return time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", ts.Sec, ts.Nsec)
}

// WrenchSample is one delayed measurement. Samples are values and never modified once queued.
type WrenchSample struct {
	// Seq increments by one for every sample taken.
	Seq uint32 `json:"seq"`
	// ReleaseTick is the tick at which the sample is due for publication.
	ReleaseTick uint64    `json:"release_tick"`
	Stamp       Timestamp `json:"stamp"`
	FrameID     string    `json:"frame_id"`
	Wrench      Wrench    `json:"wrench"`
}

// Role distinguishes the two wrench outputs.
type Role int

const (
	// RoleNoisy is the reading with noise applied.
	RoleNoisy Role = iota
	// RoleTrue is the undistorted reading.
	RoleTrue
)

func (r Role) String() string {
	switch r {
	case RoleNoisy:
		return "noisy"
	case RoleTrue:
		return "true"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

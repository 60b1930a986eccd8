package forcetorque

import (
	"github.com/pkg/errors"
)

// DelayedSampleQueue holds samples until their release tick. Samples are appended at the back
// and removed from the front only, and since the delay and divisor are fixed while the tick
// strictly increases, front-first order is release-tick order.
type DelayedSampleQueue struct {
	delay   uint64
	divisor uint64
	samples []WrenchSample
}

// NewDelayedSampleQueue returns an empty queue. delay is in ticks and must be >= 0; divisor is
// the sampling decimation and must be >= 1.
func NewDelayedSampleQueue(delay, divisor int) (*DelayedSampleQueue, error) {
	if delay < 0 {
		return nil, errors.Errorf("measurement delay must be >= 0, got %d", delay)
	}
	if divisor < 1 {
		return nil, errors.Errorf("measurement divisor must be >= 1, got %d", divisor)
	}
	return &DelayedSampleQueue{delay: uint64(delay), divisor: uint64(divisor)}, nil
}

// ShouldSample reports whether a sample is taken on tick.
func (q *DelayedSampleQueue) ShouldSample(tick uint64) bool {
	return tick%q.divisor == 0
}

// Enqueue appends build(tick+delay) when tick is a sampling tick and reports whether it did.
// build is not called on other ticks.
func (q *DelayedSampleQueue) Enqueue(tick uint64, build func(releaseTick uint64) WrenchSample) bool {
	if !q.ShouldSample(tick) {
		return false
	}
	sample := build(tick + q.delay)
	sample.ReleaseTick = tick + q.delay
	q.samples = append(q.samples, sample)
	return true
}

// TryRelease removes and returns the front sample if it is due exactly on tick. An empty queue
// or a front sample due on another tick leaves the queue untouched.
func (q *DelayedSampleQueue) TryRelease(tick uint64) (WrenchSample, bool) {
	if len(q.samples) == 0 || q.samples[0].ReleaseTick != tick {
		return WrenchSample{}, false
	}
	sample := q.samples[0]
	q.samples[0] = WrenchSample{}
	q.samples = q.samples[1:]
	return sample, true
}

// Front returns the next sample due without removing it.
func (q *DelayedSampleQueue) Front() (WrenchSample, bool) {
	if len(q.samples) == 0 {
		return WrenchSample{}, false
	}
	return q.samples[0], true
}

// Len returns the number of samples waiting.
func (q *DelayedSampleQueue) Len() int {
	return len(q.samples)
}

// Bound is the most samples the queue holds at any point when it is driven once per tick with
// Enqueue followed by TryRelease.
func (q *DelayedSampleQueue) Bound() int {
	return int(q.delay/q.divisor) + 1
}

// Delay returns the configured delay in ticks.
func (q *DelayedSampleQueue) Delay() uint64 {
	return q.delay
}

// Divisor returns the configured sampling divisor.
func (q *DelayedSampleQueue) Divisor() uint64 {
	return q.divisor
}

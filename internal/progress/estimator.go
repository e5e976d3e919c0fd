// Package progress synthesizes progress feedback for remote calls that
// expose no real progress channel. A ramp approaches a bounded ceiling
// over time; a checkpoint sequence plays out named phases with fixed
// delays. Both only ever move forward and stop when their context is
// cancelled, so a finished job can tear down any pending estimate.
package progress

import (
	"context"
	"time"
)

// defaultTick is the update interval for continuous ramps.
const defaultTick = 100 * time.Millisecond

// Checkpoint is one named phase of a staged progress sequence.
type Checkpoint struct {
	Percent float64
	Message string
	Delay   time.Duration
}

// Estimator produces synthetic progress sequences.
type Estimator struct {
	tick time.Duration
	now  func() time.Time
}

// NewEstimator creates an estimator with the default update interval.
func NewEstimator() *Estimator {
	return &Estimator{tick: defaultTick, now: time.Now}
}

// NewEstimatorWithTick creates an estimator with a custom update interval,
// used by tests to keep runs fast.
func NewEstimatorWithTick(tick time.Duration) *Estimator {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Estimator{tick: tick, now: time.Now}
}

// Ramp emits values from start toward end, linearly over duration,
// clamped to [start, end] and strictly non-decreasing. It reaches exactly
// end once duration has elapsed, then returns. Cancelling ctx stops the
// ramp early without emitting further values. Ramp blocks; run it in its
// own goroutine.
func (e *Estimator) Ramp(ctx context.Context, start, end float64, duration time.Duration, fn func(percent float64)) {
	if fn == nil || end <= start {
		return
	}
	if duration <= 0 {
		fn(end)
		return
	}

	startedAt := e.now()
	last := start
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := e.now().Sub(startedAt)
			value := start + (end-start)*(float64(elapsed)/float64(duration))
			if value > end {
				value = end
			}
			if value > last {
				last = value
				fn(value)
			}
			if value >= end {
				return
			}
		}
	}
}

// PlayCheckpoints waits each checkpoint's delay, then emits its percent
// and message, in order. Cancelling ctx stops playback between steps.
// PlayCheckpoints blocks; run it in its own goroutine.
func (e *Estimator) PlayCheckpoints(ctx context.Context, steps []Checkpoint, fn func(percent float64, message string)) {
	if fn == nil {
		return
	}

	for _, step := range steps {
		timer := time.NewTimer(step.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		fn(step.Percent, step.Message)
	}
}

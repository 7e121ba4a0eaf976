// Package runloop drives a cooperative frame loop that can be paused and
// resumed from inside the loop's own callbacks.
package runloop

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds loop configuration.
type Config struct {
	// TargetFPS caps the frame rate; 0 runs as fast as the callbacks allow.
	TargetFPS int
	// MaxFrames stops the loop after that many iterations; 0 means no limit.
	MaxFrames int
}

// Pump processes pending events. Returning false ends the loop.
type Pump func() bool

// Frame advances and draws one frame.
type Frame func(dt time.Duration) error

// Loop calls Pump on every iteration and Frame on every iteration that is
// not paused.
type Loop struct {
	cfg   Config
	pump  Pump
	frame Frame
	log   *zap.Logger

	paused  atomic.Bool
	stopped atomic.Bool
	running atomic.Bool

	frames  atomic.Uint64
	skipped atomic.Uint64
	err     error
}

// New creates a loop. pump may be nil.
func New(cfg Config, pump Pump, frame Frame, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{cfg: cfg, pump: pump, frame: frame, log: log}
}

// Start runs the loop on the calling goroutine until Stop is called, the
// pump reports quit, MaxFrames is reached or a frame fails. Calling Start
// while the loop runs does nothing.
func (l *Loop) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	defer l.running.Store(false)
	l.stopped.Store(false)
	l.err = nil

	var budget time.Duration
	if l.cfg.TargetFPS > 0 {
		budget = time.Second / time.Duration(l.cfg.TargetFPS)
	}

	l.log.Info("starting loop", zap.Int("targetFPS", l.cfg.TargetFPS))
	last := time.Now()
	fpsTimer := last
	frameCount := 0

	for iter := 0; !l.stopped.Load(); iter++ {
		if l.cfg.MaxFrames > 0 && iter >= l.cfg.MaxFrames {
			break
		}
		start := time.Now()
		dt := start.Sub(last)
		last = start

		if l.pump != nil && !l.pump() {
			break
		}

		if l.paused.Load() {
			l.skipped.Add(1)
		} else if l.frame != nil {
			if err := l.frame(dt); err != nil {
				l.err = err
				l.log.Error("frame failed", zap.Error(err))
				break
			}
			l.frames.Add(1)
			frameCount++
		}

		if time.Since(fpsTimer) >= time.Second {
			l.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if budget > 0 {
			if rest := budget - time.Since(start); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
	l.log.Info("loop stopped",
		zap.Uint64("frames", l.frames.Load()),
		zap.Uint64("skipped", l.skipped.Load()),
	)
}

// Pause stops drawing frames; events are still pumped.
func (l *Loop) Pause() {
	if !l.paused.Swap(true) {
		l.log.Debug("loop paused")
	}
}

// Resume restarts drawing frames.
func (l *Loop) Resume() {
	if l.paused.Swap(false) {
		l.log.Debug("loop resumed")
	}
}

// Stop ends the loop after the current iteration.
func (l *Loop) Stop() { l.stopped.Store(true) }

// Paused reports whether frames are being skipped.
func (l *Loop) Paused() bool { return l.paused.Load() }

// Running reports whether Start is executing.
func (l *Loop) Running() bool { return l.running.Load() }

// Frames returns the number of frames drawn.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Skipped returns the number of iterations skipped while paused.
func (l *Loop) Skipped() uint64 { return l.skipped.Load() }

// Err returns the error that ended the last run, if a frame failed.
func (l *Loop) Err() error { return l.err }

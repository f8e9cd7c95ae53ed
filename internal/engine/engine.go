// Package engine provides the tick loop and the Shop aggregate that wires
// every simulation system together.
package engine

import (
	"log/slog"
	"time"
)

// Engine drives the simulation forward at a fixed real-time cadence.
// Each tick runs every system's update synchronously, in order, to
// completion, so a tick never starts before the previous one finished.
type Engine struct {
	Tick     uint64        // monotonic tick counter
	Speed    float64       // multiplier over Interval; 0 = paused
	Interval time.Duration // base tick period (default 1 second)
	Running  bool

	// OnTick runs every tick with the new counter value.
	OnTick func(tick uint64)
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Run starts the loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation stopped", "tick", e.Tick)
}

// Stop halts the loop after the current tick completes.
func (e *Engine) Stop() {
	e.Running = false
}

func (e *Engine) step() {
	e.Tick++
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
}

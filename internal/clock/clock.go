// Package clock keeps the in-game calendar. Real elapsed seconds are
// converted to game minutes at a configurable multiplier; day/hour
// boundaries crossed during an advance each publish their own event, in
// chronological order.
package clock

import (
	"encoding/json"
	"log/slog"
	"math"

	"github.com/ironquill/forgeward/internal/bus"
)

// Defaults for a fresh game.
const (
	DefaultMinutesPerSecond = 1.0 // 1 real second = 1 game minute
	DefaultWorkStartHour    = 8
	DefaultWorkEndHour      = 20
	StartHour               = 8
)

// Clock owns the in-game time state.
type Clock struct {
	bus *bus.Bus

	day     int
	hour    int
	minute  float64
	elapsed float64 // total game minutes since day 1, 00:00

	multiplier float64 // game minutes per real second
	running    bool

	workStart int
	workEnd   int
}

// New creates a running clock at day 1, opening hour.
func New(b *bus.Bus) *Clock {
	return &Clock{
		bus:        b,
		day:        1,
		hour:       StartHour,
		elapsed:    float64(StartHour) * 60,
		multiplier: DefaultMinutesPerSecond,
		running:    true,
		workStart:  DefaultWorkStartHour,
		workEnd:    DefaultWorkEndHour,
	}
}

// Start resumes time advancement.
func (c *Clock) Start() { c.running = true }

// Stop halts time advancement; Tick becomes a no-op.
func (c *Clock) Stop() { c.running = false }

// SetPaused is Stop/Start under one name for the engine's pause control.
func (c *Clock) SetPaused(paused bool) { c.running = !paused }

// Running reports whether the clock advances on Tick.
func (c *Clock) Running() bool { return c.running }

// SetMultiplier changes how many game minutes elapse per real second.
func (c *Clock) SetMultiplier(m float64) {
	if m > 0 {
		c.multiplier = m
	}
}

// Multiplier returns the current real→game conversion rate.
func (c *Clock) Multiplier() float64 { return c.multiplier }

// Day returns the current in-game day, starting at 1.
func (c *Clock) Day() int { return c.day }

// Hour returns the current in-game hour, 0–23.
func (c *Clock) Hour() int { return c.hour }

// Minute returns the whole-minute part of the current hour.
func (c *Clock) Minute() int { return int(c.minute) }

// TotalMinutes returns game minutes elapsed since day 1, 00:00.
func (c *Clock) TotalMinutes() float64 { return c.elapsed }

// IsWorkHours reports whether the current hour falls inside the workday.
func (c *Clock) IsWorkHours() bool {
	return c.hour >= c.workStart && c.hour < c.workEnd
}

// Tick advances game time by realSeconds at the current multiplier and
// publishes a time:tick plus one event per boundary crossed.
func (c *Clock) Tick(realSeconds float64) {
	if !c.running || realSeconds <= 0 {
		return
	}
	c.advance(realSeconds * c.multiplier)
	c.bus.Publish(bus.TopicTimeTick, bus.TimeTick{
		Day:          c.day,
		Hour:         c.hour,
		Minute:       c.Minute(),
		TotalMinutes: c.elapsed,
	})
}

// SkipTime injects hours and minutes of game time directly, firing every
// boundary event along the way. Not limited by fuel or pause state.
func (c *Clock) SkipTime(hours, minutes int) {
	total := float64(hours)*60 + float64(minutes)
	if total <= 0 {
		return
	}
	c.advance(total)
	slog.Info("time skipped", "hours", hours, "minutes", minutes, "day", c.day, "hour", c.hour)
}

func (c *Clock) advance(gameMinutes float64) {
	c.elapsed += gameMinutes
	c.minute += gameMinutes
	for c.minute >= 60 {
		c.minute -= 60
		c.hour++
		if c.hour >= 24 {
			c.hour = 0
			c.day++
			c.bus.Publish(bus.TopicTimeNewDay, bus.TimeNewDay{Day: c.day})
		}
		c.bus.Publish(bus.TopicTimeHourChange, bus.TimeHourChanged{Hour: c.hour})
		switch c.hour {
		case c.workStart:
			c.bus.Publish(bus.TopicWorkdayStarted, bus.TimeHourChanged{Hour: c.hour})
		case c.workEnd:
			c.bus.Publish(bus.TopicWorkdayEnded, bus.TimeHourChanged{Hour: c.hour})
		}
	}
}

type snapshot struct {
	Day        int     `json:"day"`
	Hour       int     `json:"hour"`
	Minute     float64 `json:"minute"`
	Elapsed    float64 `json:"elapsed"`
	Multiplier float64 `json:"multiplier"`
	Running    bool    `json:"running"`
}

// Component names the clock in save snapshots.
func (c *Clock) Component() string { return "clock" }

// Snapshot serializes the clock state.
func (c *Clock) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{
		Day:        c.day,
		Hour:       c.hour,
		Minute:     c.minute,
		Elapsed:    c.elapsed,
		Multiplier: c.multiplier,
		Running:    c.running,
	})
}

// Restore replaces the clock state from a snapshot. No boundary events
// are replayed.
func (c *Clock) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	c.day = s.Day
	c.hour = s.Hour
	c.minute = s.Minute
	c.elapsed = s.Elapsed
	if s.Multiplier > 0 {
		c.multiplier = s.Multiplier
	}
	c.running = s.Running
	// Guard against hand-edited saves.
	if c.day < 1 || c.hour < 0 || c.hour > 23 || math.IsNaN(c.minute) {
		slog.Warn("clock snapshot out of range, resetting", "day", c.day, "hour", c.hour)
		c.day, c.hour, c.minute = 1, StartHour, 0
		c.elapsed = float64(StartHour) * 60
	}
	return nil
}

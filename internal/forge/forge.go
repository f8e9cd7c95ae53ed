// Package forge owns the fuel gauge gating production. The gauge is a
// percentage that depletes every tick and refills from the ledger's coal
// stock, either automatically at the low threshold or on demand.
package forge

import (
	"encoding/json"
	"log/slog"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/ledger"
)

// Tuning defaults.
const (
	MaxLevel         = 100.0
	DefaultDepletion = 0.5 // percent per tick
	DefaultThreshold = 20.0
	CoalUnitsPerFill = 5.0 // ledger coal units consumed per full refill
	coalMaterial     = "coal"
)

// Forge is the fuel gauge.
type Forge struct {
	bus *bus.Bus
	led *ledger.Ledger

	level         float64
	depletionRate float64
	lowThreshold  float64
	warned        bool // low-fuel notice already fired this episode
}

// New creates a full forge.
func New(b *bus.Bus, led *ledger.Ledger) *Forge {
	return &Forge{
		bus:           b,
		led:           led,
		level:         MaxLevel,
		depletionRate: DefaultDepletion,
		lowThreshold:  DefaultThreshold,
	}
}

// Level returns the current fuel percentage.
func (f *Forge) Level() float64 { return f.level }

// SetLevel clamps and sets the gauge directly. Test and restore hook.
func (f *Forge) SetLevel(level float64) {
	f.level = clamp(level)
}

// SetDepletionRate overrides the per-tick depletion.
func (f *Forge) SetDepletionRate(rate float64) {
	if rate >= 0 {
		f.depletionRate = rate
	}
}

// HasEnoughCoal reports whether the gauge is at or above minLevel.
func (f *Forge) HasEnoughCoal(minLevel float64) bool {
	if minLevel <= 0 {
		minLevel = DefaultThreshold
	}
	return f.level >= minLevel
}

// Update runs once per tick: deplete, then auto-refill or warn at the
// threshold. The low-fuel notice fires once per depletion episode.
func (f *Forge) Update() {
	if f.level > 0 {
		f.level = clamp(f.level - f.depletionRate)
		f.bus.Publish(bus.TopicCoalUpdated, bus.CoalLevel{Level: f.level})
	}
	if f.level <= f.lowThreshold {
		if f.tryAutoRefill() {
			return
		}
		f.warnLow()
	}
}

// Refill tops the gauge to full from the ledger's coal stock. Fails when
// already full or the stock is short.
func (f *Forge) Refill() bool {
	if f.level >= MaxLevel {
		return false
	}
	if !f.led.RemoveMaterial(coalMaterial, CoalUnitsPerFill) {
		f.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: "Not enough coal to refill the forge.",
		})
		return false
	}
	f.level = MaxLevel
	f.warned = false
	f.bus.Publish(bus.TopicCoalRefilled, bus.CoalLevel{Level: f.level})
	f.bus.Publish(bus.TopicCoalUpdated, bus.CoalLevel{Level: f.level})
	return true
}

// ConsumeCoal draws fuel for a production step, independent of passive
// depletion. Fails when the gauge holds less than amount.
func (f *Forge) ConsumeCoal(amount float64) bool {
	if amount < 0 || f.level < amount {
		return false
	}
	f.level = clamp(f.level - amount)
	f.bus.Publish(bus.TopicCoalUpdated, bus.CoalLevel{Level: f.level})
	if f.level <= f.lowThreshold {
		f.warnLow()
	}
	return true
}

func (f *Forge) tryAutoRefill() bool {
	if f.led.MaterialQuantity(coalMaterial) < CoalUnitsPerFill {
		return false
	}
	f.led.RemoveMaterial(coalMaterial, CoalUnitsPerFill)
	f.level = MaxLevel
	f.warned = false
	slog.Debug("forge auto-refilled")
	f.bus.Publish(bus.TopicCoalRefilled, bus.CoalLevel{Level: f.level})
	f.bus.Publish(bus.TopicCoalUpdated, bus.CoalLevel{Level: f.level})
	return true
}

func (f *Forge) warnLow() {
	if f.warned {
		return
	}
	f.warned = true
	f.bus.Publish(bus.TopicCoalLow, bus.CoalLevel{Level: f.level})
	f.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifyWarning,
		Message: "The forge is running low on coal.",
	})
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxLevel {
		return MaxLevel
	}
	return v
}

type snapshot struct {
	Level         float64 `json:"level"`
	DepletionRate float64 `json:"depletion_rate"`
	LowThreshold  float64 `json:"low_threshold"`
	Warned        bool    `json:"warned"`
}

// Component names the forge in save snapshots.
func (f *Forge) Component() string { return "forge" }

// Snapshot serializes the gauge state.
func (f *Forge) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{
		Level:         f.level,
		DepletionRate: f.depletionRate,
		LowThreshold:  f.lowThreshold,
		Warned:        f.warned,
	})
}

// Restore replaces the gauge state from a snapshot.
func (f *Forge) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	f.level = clamp(s.Level)
	if s.DepletionRate >= 0 {
		f.depletionRate = s.DepletionRate
	}
	if s.LowThreshold > 0 {
		f.lowThreshold = s.LowThreshold
	}
	f.warned = s.Warned
	return nil
}

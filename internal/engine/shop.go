package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/catalog"
	"github.com/ironquill/forgeward/internal/clock"
	"github.com/ironquill/forgeward/internal/contracts"
	"github.com/ironquill/forgeward/internal/crafting"
	"github.com/ironquill/forgeward/internal/director"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/forge"
	"github.com/ironquill/forgeward/internal/ledger"
	"github.com/ironquill/forgeward/internal/persistence"
	"github.com/ironquill/forgeward/internal/storefront"
	"github.com/ironquill/forgeward/internal/toolwear"
	"github.com/ironquill/forgeward/internal/workforce"
)

// Config carries the tunable wiring parameters.
type Config struct {
	Seed                 uint64
	GameMinutesPerSecond float64
	AutosaveTicks        uint64
	DBPath               string
	APIPort              int
	AdminKey             string
}

// DefaultConfig returns sensible defaults for a live game.
func DefaultConfig() Config {
	return Config{
		Seed:                 42,
		GameMinutesPerSecond: clock.DefaultMinutesPerSecond,
		AutosaveTicks:        60,
		DBPath:               "data/forgeward.db",
		APIPort:              8080,
	}
}

// Snapshotter is the persistence contract every stateful component
// implements.
type Snapshotter interface {
	Component() string
	Snapshot() (json.RawMessage, error)
	Restore(raw json.RawMessage) error
}

// Shop is the complete simulation: every system plus the fixed tick
// order that keeps their interactions consistent.
type Shop struct {
	Bus        *bus.Bus
	Clock      *clock.Clock
	Ledger     *ledger.Ledger
	Forge      *forge.Forge
	ToolWear   *toolwear.Manager
	Catalog    *catalog.Registry
	Crafting   *crafting.Queue
	Storefront *storefront.Storefront
	Contracts  *contracts.Board
	Workforce  *workforce.Pool
	Director   *director.Director

	saves         *persistence.Store
	autosaveTicks uint64
	components    []Snapshotter
}

// NewShop wires a full shop. The save store may be nil (tests).
func NewShop(cfg Config, rng entropy.Source, saves *persistence.Store) *Shop {
	b := bus.New()

	clk := clock.New(b)
	clk.SetMultiplier(cfg.GameMinutesPerSecond)

	led := ledger.New(b)
	frg := forge.New(b, led)
	wear := toolwear.New(led)
	cat := catalog.New(b, led)
	queue := crafting.New(b, led, frg, wear, cat)
	traffic := storefront.NewTrafficCurve(int64(cfg.Seed))
	store := storefront.New(b, led, clk, rng, traffic)
	board := contracts.New(b, led, cat, rng)
	pool := workforce.New(b, led, queue, frg, rng)
	dir := director.New(b, store, board, pool, led, cat, rng)

	s := &Shop{
		Bus:        b,
		Clock:      clk,
		Ledger:     led,
		Forge:      frg,
		ToolWear:   wear,
		Catalog:    cat,
		Crafting:   queue,
		Storefront: store,
		Contracts:  board,
		Workforce:  pool,
		Director:   dir,

		saves:         saves,
		autosaveTicks: cfg.AutosaveTicks,
	}
	s.components = []Snapshotter{clk, led, frg, cat, queue, store, board, pool, dir}
	return s
}

// NewGame seeds the starting stock for a fresh shop.
func (s *Shop) NewGame() {
	s.Ledger.SeedNewGame()
	slog.Info("new game started", "money", s.Ledger.Money())
}

// Tick runs one full simulation step. Order matters: the clock first so
// boundary events land before systems read them, the forge before the
// crafting queue so a just-depleted gauge pauses the job this same tick,
// and all production systems before the workforce so worker-initiated
// crafts see a settled queue.
func (s *Shop) Tick(tick uint64) {
	s.Clock.Tick(1)
	s.Ledger.SweepPriceModifiers()
	s.Forge.Update()
	s.Crafting.Update()
	s.Storefront.Update()
	s.Contracts.Update()
	s.Workforce.Update()
	s.Director.Update()

	if s.saves != nil && s.autosaveTicks > 0 && tick%s.autosaveTicks == 0 {
		if err := s.Save(persistence.AutoSlot); err != nil {
			slog.Error("autosave failed", "error", err)
		}
	}
}

// Snapshot collects every component's serialized state.
func (s *Shop) Snapshot() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.components))
	for _, c := range s.components {
		raw, err := c.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", c.Component(), err)
		}
		out[c.Component()] = raw
	}
	return out, nil
}

// Restore feeds each component its sub-document. A missing or malformed
// entry degrades that component to its current state with a warning
// instead of aborting the load.
func (s *Shop) Restore(components map[string]json.RawMessage) {
	for _, c := range s.components {
		raw, ok := components[c.Component()]
		if !ok {
			slog.Warn("save has no data for component", "component", c.Component())
			continue
		}
		if err := c.Restore(raw); err != nil {
			slog.Warn("component restore failed, keeping prior state",
				"component", c.Component(), "error", err)
		}
	}
}

// Save writes the full snapshot to a named slot. Failures are reported
// to the player and leave in-memory state untouched.
func (s *Shop) Save(slot string) error {
	if s.saves == nil {
		return fmt.Errorf("no save store configured")
	}
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := s.saves.SaveSlot(slot, snap); err != nil {
		s.Bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: "Saving failed; your progress is still in memory.",
		})
		return err
	}
	return nil
}

// Load restores a named slot. An absent or invalid slot is a warning
// no-op, never fatal.
func (s *Shop) Load(slot string) (bool, error) {
	if s.saves == nil {
		return false, fmt.Errorf("no save store configured")
	}
	snap, ok, err := s.saves.LoadSlot(slot)
	if err != nil {
		return false, err
	}
	if !ok {
		slog.Warn("save slot not loadable", "slot", slot)
		return false, nil
	}
	s.Restore(snap)
	slog.Info("game loaded", "slot", slot)
	return true, nil
}

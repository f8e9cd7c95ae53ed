// Package contracts owns the board of time-limited orders: standard
// contracts generated on a cadence under a population cap, and special
// contracts spawned by random events that bypass both.
//
// Expiry deadlines are wall-clock instants on purpose: a contract's
// real-time deadline holds still even when the game-time multiplier
// stretches or shrinks everything else.
package contracts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
)

// Kind separates standard offers from event-spawned specials.
type Kind uint8

const (
	Standard Kind = iota
	Special
)

// Contract is one offer on the board.
type Contract struct {
	ID          string    `json:"id"`
	Customer    string    `json:"customer"`
	ItemID      string    `json:"item_id"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description"`
	ExpiresAt   time.Time `json:"expires_at"` // wall clock, deliberately
	Payout      float64   `json:"payout"`
	Kind        Kind      `json:"kind"`
}

// Tuning defaults.
const (
	DefaultGenInterval    = 120 // ticks between generation attempts
	DefaultMaxStandard    = 5
	DefaultTimeMultiplier = 1.0 // scales rolled contract durations
)

// UnlockChecker is the narrow capability the generator reads; it keeps
// the board decoupled from the blueprint registry's concrete type.
type UnlockChecker interface {
	IsUnlocked(itemID string) bool
}

// Board owns the contract lists.
type Board struct {
	bus    *bus.Bus
	led    *ledger.Ledger
	unlock UnlockChecker
	rng    entropy.Source
	now    func() time.Time

	standard []*Contract
	special  []*Contract

	genTimer       int
	genInterval    int
	maxStandard    int
	timeMultiplier float64
}

// New creates an empty board.
func New(b *bus.Bus, led *ledger.Ledger, unlock UnlockChecker, rng entropy.Source) *Board {
	return &Board{
		bus:            b,
		led:            led,
		unlock:         unlock,
		rng:            rng,
		now:            time.Now,
		genInterval:    DefaultGenInterval,
		maxStandard:    DefaultMaxStandard,
		timeMultiplier: DefaultTimeMultiplier,
	}
}

// SetNowFunc overrides the wall clock, for tests.
func (b *Board) SetNowFunc(now func() time.Time) { b.now = now }

// SetGenInterval overrides the generation cadence in ticks.
func (b *Board) SetGenInterval(ticks int) {
	if ticks > 0 {
		b.genInterval = ticks
	}
}

// Contracts returns copies of every open contract, standard then special.
func (b *Board) Contracts() []Contract {
	out := make([]Contract, 0, len(b.standard)+len(b.special))
	for _, c := range b.standard {
		out = append(out, *c)
	}
	for _, c := range b.special {
		out = append(out, *c)
	}
	return out
}

// Update runs once per tick: expire first (independent of the cap and
// timer), then advance the generation timer.
func (b *Board) Update() {
	b.CheckExpiredContracts()

	b.genTimer++
	if b.genTimer < b.genInterval {
		return
	}
	// The timer holds at the interval while the board is full, so a slot
	// freed by fulfillment or expiry refills on the next tick instead of
	// waiting out a fresh cycle.
	if len(b.standard) >= b.maxStandard {
		b.genTimer = b.genInterval
		return
	}
	b.genTimer = 0
	if c := b.generate(); c != nil {
		b.standard = append(b.standard, c)
		b.bus.Publish(bus.TopicContractAvailable, view(c))
		b.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyInfo,
			Message: fmt.Sprintf("%s wants %d× %s, paying %s coins.", c.Customer, c.Quantity, itemName(c.ItemID), humanize.FtoaWithDigits(c.Payout, 2)),
		})
	}
}

// generate draws one weighted template among those whose item is
// unlocked and not tool-creating, falling back to the basic set.
func (b *Board) generate() *Contract {
	var eligible []gamedata.ContractDef
	total := 0.0
	for _, def := range gamedata.ContractDefs {
		item, ok := gamedata.ItemByID(def.ItemID)
		if !ok {
			slog.Warn("contract template references unknown item", "item", def.ItemID)
			continue
		}
		if item.IsTool() || !b.unlock.IsUnlocked(def.ItemID) {
			continue
		}
		eligible = append(eligible, def)
		total += def.Weight
	}

	var def gamedata.ContractDef
	switch {
	case len(eligible) > 0:
		roll := b.rng.Float() * total
		def = eligible[len(eligible)-1]
		for _, d := range eligible {
			roll -= d.Weight
			if roll <= 0 {
				def = d
				break
			}
		}
	default:
		itemID := gamedata.FallbackContractItems[b.rng.IntN(len(gamedata.FallbackContractItems))]
		def = gamedata.ContractDef{
			ItemID: itemID, Description: "A neighbor needs whatever you can spare.",
			MinQty: 3, MaxQty: 10, MinDuration: 20, MaxDuration: 40, PayoutMult: 1.3,
		}
	}

	item, _ := gamedata.ItemByID(def.ItemID)
	qty := entropy.Between(b.rng, def.MinQty, def.MaxQty)
	durationMin := entropy.FloatBetween(b.rng, def.MinDuration, def.MaxDuration) * b.timeMultiplier

	return &Contract{
		ID:          uuid.NewString(),
		Customer:    gamedata.ContractCustomers[b.rng.IntN(len(gamedata.ContractCustomers))],
		ItemID:      def.ItemID,
		Quantity:    qty,
		Description: def.Description,
		ExpiresAt:   b.now().Add(time.Duration(durationMin * float64(time.Minute))),
		Payout:      item.BasePrice * float64(qty) * def.PayoutMult,
		Kind:        Standard,
	}
}

// Fulfill delivers a contract: verifies crafted stock, debits it, and
// credits the payout. First failure wins; nothing mutates on failure.
func (b *Board) Fulfill(id string) (bool, string) {
	c, list, idx := b.find(id)
	if c == nil {
		return false, "unknown contract"
	}
	if b.led.ItemQuantity(c.ItemID) < c.Quantity {
		b.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: fmt.Sprintf("You need %d× %s to fulfill %s's contract.", c.Quantity, itemName(c.ItemID), c.Customer),
		})
		return false, "insufficient stock"
	}
	b.led.RemoveItem(c.ItemID, c.Quantity)
	b.led.AddMoney(c.Payout)
	b.remove(list, idx)

	b.bus.Publish(bus.TopicContractCompleted, view(c))
	b.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifySuccess,
		Message: fmt.Sprintf("Contract fulfilled for %s: %s coins.", c.Customer, humanize.FtoaWithDigits(c.Payout, 2)),
	})
	slog.Info("contract fulfilled", "contract", c.ID, "item", c.ItemID, "payout", c.Payout)
	return true, ""
}

// Reject removes a contract without payout.
func (b *Board) Reject(id string) bool {
	c, list, idx := b.find(id)
	if c == nil {
		return false
	}
	b.remove(list, idx)
	slog.Info("contract rejected", "contract", c.ID, "customer", c.Customer)
	return true
}

// AddSpecial places an event-spawned contract, bypassing the standard cap
// and cadence. A zero payout is computed from the item's base price.
func (b *Board) AddSpecial(c Contract) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Kind = Special
	if c.Payout <= 0 {
		if item, ok := gamedata.ItemByID(c.ItemID); ok {
			c.Payout = item.BasePrice * float64(c.Quantity) * 1.5
		}
	}
	b.special = append(b.special, &c)
	b.bus.Publish(bus.TopicContractSpecialAvailable, view(&c))
	b.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifyInfo,
		Message: fmt.Sprintf("Special order! %s wants %d× %s.", c.Customer, c.Quantity, itemName(c.ItemID)),
	})
}

// CheckExpiredContracts removes every contract past its deadline,
// reporting each one.
func (b *Board) CheckExpiredContracts() {
	now := b.now()
	b.standard = b.expireList(b.standard, now)
	b.special = b.expireList(b.special, now)
}

func (b *Board) expireList(list []*Contract, now time.Time) []*Contract {
	kept := list[:0]
	for _, c := range list {
		if now.After(c.ExpiresAt) {
			b.bus.Publish(bus.TopicContractExpired, view(c))
			b.bus.Publish(bus.TopicNotify, bus.Notify{
				Level:   bus.NotifyWarning,
				Message: fmt.Sprintf("%s's contract expired.", c.Customer),
			})
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (b *Board) find(id string) (*Contract, *[]*Contract, int) {
	for i, c := range b.standard {
		if c.ID == id {
			return c, &b.standard, i
		}
	}
	for i, c := range b.special {
		if c.ID == id {
			return c, &b.special, i
		}
	}
	return nil, nil, 0
}

func (b *Board) remove(list *[]*Contract, idx int) {
	*list = append((*list)[:idx], (*list)[idx+1:]...)
}

func view(c *Contract) bus.ContractView {
	return bus.ContractView{
		ID:        c.ID,
		Customer:  c.Customer,
		ItemID:    c.ItemID,
		Quantity:  c.Quantity,
		Payout:    c.Payout,
		ExpiresAt: c.ExpiresAt,
		Special:   c.Kind == Special,
	}
}

func itemName(id string) string {
	if def, ok := gamedata.ItemByID(id); ok {
		return def.Name
	}
	return id
}

type snapshot struct {
	Standard []*Contract `json:"standard"`
	Special  []*Contract `json:"special"`
	GenTimer int         `json:"gen_timer"`
}

// Component names the board in save snapshots.
func (b *Board) Component() string { return "contracts" }

// Snapshot serializes both contract lists and the generation timer.
// Expiry instants round-trip as RFC3339 strings.
func (b *Board) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{Standard: b.standard, Special: b.special, GenTimer: b.genTimer})
}

// Restore replaces the board state from a snapshot.
func (b *Board) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	b.standard = dropUnknown(s.Standard)
	b.special = dropUnknown(s.Special)
	b.genTimer = s.GenTimer
	return nil
}

func dropUnknown(list []*Contract) []*Contract {
	var kept []*Contract
	for _, c := range list {
		if c == nil {
			continue
		}
		if _, ok := gamedata.ItemByID(c.ItemID); !ok {
			slog.Warn("dropping saved contract for unknown item", "item", c.ItemID)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// Package director rolls and applies random economic events: weighted
// draws among eligible definitions, typed effects fanned out to the
// storefront, contract board, workforce, and ledger, and wall-clock
// expiry of everything it applied.
package director

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/contracts"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
	"github.com/ironquill/forgeward/internal/storefront"
	"github.com/ironquill/forgeward/internal/workforce"
)

// Tuning defaults.
const (
	DefaultCheckInterval = 180  // ticks between event rolls
	DefaultEventChance   = 25.0 // percent per roll
	primeTimeBonus       = 1.5
)

// primeHours are the game hours during which rolls get a bonus. The
// bonus clears at the next non-prime hour boundary.
var primeHours = map[int]bool{12: true, 18: true}

// UnlockChecker is the narrow capability eligibility predicates read.
type UnlockChecker interface {
	IsUnlocked(itemID string) bool
}

// ActiveEvent is one triggered event instance with its expiry.
type ActiveEvent struct {
	InstanceID     string    `json:"instance_id"`
	DefID          string    `json:"def_id"`
	Name           string    `json:"name"`
	StartedAt      time.Time `json:"started_at"`
	ExpiresAt      time.Time `json:"expires_at"` // wall clock, matching contract deadlines
	AppliedEffects []string  `json:"applied_effects"`
}

// Director owns the active event list and the roll schedule.
type Director struct {
	bus    *bus.Bus
	store  *storefront.Storefront
	board  *contracts.Board
	pool   *workforce.Pool
	led    *ledger.Ledger
	unlock UnlockChecker
	rng    entropy.Source
	now    func() time.Time

	active        []*ActiveEvent
	checkTimer    int
	checkInterval int
	eventChance   float64
	primeBoost    float64
}

// New wires the director and subscribes it to hour boundaries for the
// prime-time roll bonus.
func New(b *bus.Bus, store *storefront.Storefront, board *contracts.Board, pool *workforce.Pool, led *ledger.Ledger, unlock UnlockChecker, rng entropy.Source) *Director {
	d := &Director{
		bus:           b,
		store:         store,
		board:         board,
		pool:          pool,
		led:           led,
		unlock:        unlock,
		rng:           rng,
		now:           time.Now,
		checkInterval: DefaultCheckInterval,
		eventChance:   DefaultEventChance,
		primeBoost:    1.0,
	}
	b.Subscribe(bus.TopicTimeHourChange, func(payload any) {
		p, ok := payload.(bus.TimeHourChanged)
		if !ok {
			return
		}
		if primeHours[p.Hour] {
			d.primeBoost = primeTimeBonus
		} else {
			d.primeBoost = 1.0
		}
	})
	return d
}

// SetNowFunc overrides the wall clock, for tests.
func (d *Director) SetNowFunc(now func() time.Time) { d.now = now }

// SetCheckInterval overrides the roll cadence in ticks.
func (d *Director) SetCheckInterval(ticks int) {
	if ticks > 0 {
		d.checkInterval = ticks
	}
}

// Active returns copies of the active event instances.
func (d *Director) Active() []ActiveEvent {
	out := make([]ActiveEvent, len(d.active))
	for i, e := range d.active {
		out[i] = *e
	}
	return out
}

// Update runs once per tick: expire finished events, then advance the
// roll timer and maybe trigger a new one.
func (d *Director) Update() {
	d.CheckExpiredEvents()

	d.checkTimer++
	if d.checkTimer < d.checkInterval {
		return
	}
	d.checkTimer = 0

	chance := d.eventChance * d.primeBoost
	if d.rng.Float()*100 > chance {
		return
	}

	def, ok := d.drawEligible()
	if !ok {
		return
	}
	d.trigger(def)
}

// Trigger forces a specific event, bypassing the roll but still enforcing
// eligibility and non-duplication.
func (d *Director) Trigger(defID string) (bool, string) {
	for _, def := range gamedata.EventDefs {
		if def.ID != defID {
			continue
		}
		if !d.eligible(def) {
			return false, "event not eligible"
		}
		if d.isActive(defID) {
			return false, "event already active"
		}
		d.trigger(def)
		return true, ""
	}
	return false, "unknown event"
}

// CheckExpiredEvents removes events past their expiry, publishing each.
// The modifiers an event applied expire on their own timestamps.
func (d *Director) CheckExpiredEvents() {
	now := d.now()
	kept := d.active[:0]
	for _, e := range d.active {
		if now.After(e.ExpiresAt) {
			d.bus.Publish(bus.TopicEventExpired, bus.EventExpired{Event: view(e)})
			d.bus.Publish(bus.TopicNotify, bus.Notify{
				Level:   bus.NotifyInfo,
				Message: fmt.Sprintf("%s has ended.", e.Name),
			})
			continue
		}
		kept = append(kept, e)
	}
	d.active = kept
}

func (d *Director) drawEligible() (gamedata.EventDef, bool) {
	var eligible []gamedata.EventDef
	total := 0.0
	for _, def := range gamedata.EventDefs {
		if !d.eligible(def) || d.isActive(def.ID) {
			continue
		}
		eligible = append(eligible, def)
		total += def.Weight
	}
	if len(eligible) == 0 || total <= 0 {
		return gamedata.EventDef{}, false
	}
	roll := d.rng.Float() * total
	for _, def := range eligible {
		roll -= def.Weight
		if roll <= 0 {
			return def, true
		}
	}
	return eligible[len(eligible)-1], true
}

func (d *Director) eligible(def gamedata.EventDef) bool {
	return def.RequiresUnlocked == "" || d.unlock.IsUnlocked(def.RequiresUnlocked)
}

func (d *Director) isActive(defID string) bool {
	for _, e := range d.active {
		if e.DefID == defID {
			return true
		}
	}
	return false
}

func (d *Director) trigger(def gamedata.EventDef) {
	now := d.now()
	expiresAt := now.Add(time.Duration(def.Duration * float64(time.Minute)))

	inst := &ActiveEvent{
		InstanceID: uuid.NewString(),
		DefID:      def.ID,
		Name:       def.Name,
		StartedAt:  now,
		ExpiresAt:  expiresAt,
	}
	for _, eff := range def.Effects {
		inst.AppliedEffects = append(inst.AppliedEffects, d.apply(eff, expiresAt))
	}
	d.active = append(d.active, inst)

	d.bus.Publish(bus.TopicEventTriggered, bus.EventTriggered{
		Event:          view(inst),
		AppliedEffects: inst.AppliedEffects,
	})
	d.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifyInfo,
		Message: fmt.Sprintf("%s: %s", def.Name, def.Description),
	})
	slog.Info("event triggered", "event", def.ID, "expires", expiresAt)
}

// apply fans one typed effect out to its owning component and returns a
// human-readable description for display.
func (d *Director) apply(eff gamedata.EffectDef, expiresAt time.Time) string {
	switch eff.Kind {
	case gamedata.EffectDemand:
		d.store.SetDemandMultiplier(eff.Target, eff.Multiplier, expiresAt)
		return fmt.Sprintf("Demand for %s ×%.1f", targetName(eff.Target), eff.Multiplier)
	case gamedata.EffectMaterialPrice:
		d.led.SetMaterialPriceModifier(eff.Target, eff.Multiplier, expiresAt)
		return fmt.Sprintf("%s price ×%.1f", targetName(eff.Target), eff.Multiplier)
	case gamedata.EffectSpecialContract:
		item, ok := gamedata.ItemByID(eff.ContractItem)
		if !ok {
			slog.Warn("special contract effect references unknown item", "item", eff.ContractItem)
			return "(skipped special contract)"
		}
		d.board.AddSpecial(contracts.Contract{
			Customer:    eff.ContractCustomer,
			ItemID:      eff.ContractItem,
			Quantity:    eff.ContractQty,
			Description: fmt.Sprintf("Special order: %d× %s", eff.ContractQty, item.Name),
			ExpiresAt:   d.now().Add(time.Duration(eff.ContractDuration * float64(time.Minute))),
			Payout:      item.BasePrice * float64(eff.ContractQty) * eff.ContractPayout,
		})
		return fmt.Sprintf("Special contract: %d× %s", eff.ContractQty, item.Name)
	case gamedata.EffectHiringDiscount:
		d.pool.SetHiringDiscount(eff.Target, eff.Multiplier, expiresAt)
		return fmt.Sprintf("Hiring cost for %s ×%.1f", targetName(eff.Target), eff.Multiplier)
	case gamedata.EffectToolPrice:
		d.led.SetToolPriceModifier(eff.Target, eff.Multiplier, expiresAt)
		return fmt.Sprintf("Tool prices ×%.1f", eff.Multiplier)
	}
	slog.Warn("unknown effect kind", "kind", string(eff.Kind))
	return "(unknown effect)"
}

func targetName(id string) string {
	if id == "all" {
		return "everything"
	}
	if def, ok := gamedata.ItemByID(id); ok {
		return def.Name
	}
	if def, ok := gamedata.MaterialByID(id); ok {
		return def.Name
	}
	if def, ok := gamedata.WorkerTypeByID(id); ok {
		return def.Name
	}
	return id
}

func view(e *ActiveEvent) bus.EventView {
	return bus.EventView{
		InstanceID: e.InstanceID,
		DefID:      e.DefID,
		Name:       e.Name,
		ExpiresAt:  e.ExpiresAt,
	}
}

type snapshot struct {
	Active     []*ActiveEvent `json:"active"`
	CheckTimer int            `json:"check_timer"`
}

// Component names the director in save snapshots.
func (d *Director) Component() string { return "director" }

// Snapshot serializes the active events and roll timer. The modifiers an
// event applied live in their owning components' snapshots.
func (d *Director) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{Active: d.active, CheckTimer: d.checkTimer})
}

// Restore replaces the active event list from a snapshot.
func (d *Director) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	d.active = nil
	for _, e := range s.Active {
		if e != nil {
			d.active = append(d.active, e)
		}
	}
	d.checkTimer = s.CheckTimer
	return nil
}

// Package catalog owns the set of unlocked blueprints, gating both
// production and purchase eligibility. Money deduction for blueprint
// purchases goes straight through the ledger; the registry never holds
// funds itself.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
)

// PurchaseResult reports the outcome of a blueprint purchase attempt.
type PurchaseResult struct {
	OK     bool
	Reason string
}

// Registry tracks which recipes are unlocked.
type Registry struct {
	bus      *bus.Bus
	led      *ledger.Ledger
	unlocked map[string]bool
}

// New seeds the registry from the recipe table's unlocked flags.
func New(b *bus.Bus, led *ledger.Ledger) *Registry {
	unlocked := make(map[string]bool)
	for id, def := range gamedata.Items {
		if def.Unlocked {
			unlocked[id] = true
		}
	}
	return &Registry{bus: b, led: led, unlocked: unlocked}
}

// IsUnlocked reports whether a recipe may be crafted.
func (r *Registry) IsUnlocked(itemID string) bool {
	return r.unlocked[itemID]
}

// Unlock flips a blueprint to unlocked. Idempotent: already-unlocked or
// unknown ids return false and mutate nothing.
func (r *Registry) Unlock(itemID string) bool {
	def, ok := gamedata.ItemByID(itemID)
	if !ok {
		slog.Warn("unlock requested for unknown item", "item", itemID)
		return false
	}
	if r.unlocked[itemID] {
		return false
	}
	r.unlocked[itemID] = true
	r.bus.Publish(bus.TopicBlueprintUnlocked, bus.BlueprintUnlocked{
		ItemID:   itemID,
		ItemName: def.Name,
	})
	return true
}

// Purchase buys and unlocks a blueprint. The recipe must be locked and
// carry a non-zero blueprint price; the ledger debit is a direct
// synchronous call whose failure leaves everything untouched.
func (r *Registry) Purchase(itemID string) PurchaseResult {
	def, ok := gamedata.ItemByID(itemID)
	if !ok {
		return PurchaseResult{Reason: "unknown item"}
	}
	if r.unlocked[itemID] {
		return PurchaseResult{Reason: "already unlocked"}
	}
	if def.BlueprintPrice <= 0 {
		return PurchaseResult{Reason: "blueprint not for sale"}
	}
	if !r.led.RemoveMoney(def.BlueprintPrice) {
		r.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: fmt.Sprintf("Not enough money for the %s blueprint.", def.Name),
		})
		return PurchaseResult{Reason: "insufficient funds"}
	}
	r.Unlock(itemID)
	r.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifySuccess,
		Message: fmt.Sprintf("Blueprint unlocked: %s.", def.Name),
	})
	return PurchaseResult{OK: true}
}

// AvailableForPurchase lists locked recipes that carry a blueprint price,
// sorted by price.
func (r *Registry) AvailableForPurchase() []gamedata.ItemDef {
	var out []gamedata.ItemDef
	for id, def := range gamedata.Items {
		if !r.unlocked[id] && def.BlueprintPrice > 0 {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlueprintPrice < out[j].BlueprintPrice })
	return out
}

// UnlockedItems lists every unlocked recipe, sorted by id.
func (r *Registry) UnlockedItems() []gamedata.ItemDef {
	var out []gamedata.ItemDef
	for id := range r.unlocked {
		if def, ok := gamedata.ItemByID(id); ok {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type snapshot struct {
	Unlocked []string `json:"unlocked"`
}

// Component names the registry in save snapshots.
func (r *Registry) Component() string { return "catalog" }

// Snapshot serializes the unlocked set.
func (r *Registry) Snapshot() (json.RawMessage, error) {
	ids := make([]string, 0, len(r.unlocked))
	for id := range r.unlocked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(snapshot{Unlocked: ids})
}

// Restore replaces the unlocked set, skipping ids the recipe table no
// longer knows.
func (r *Registry) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	r.unlocked = make(map[string]bool)
	for _, id := range s.Unlocked {
		if _, ok := gamedata.ItemByID(id); !ok {
			slog.Warn("dropping unknown unlocked blueprint", "item", id)
			continue
		}
		r.unlocked[id] = true
	}
	return nil
}

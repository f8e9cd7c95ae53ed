// Package ledger owns the shop's mutable stock: raw materials, crafted
// item counts, tool durability records, and the money balance. Every
// mutating operation is all-or-nothing: a failed check leaves the ledger
// untouched and publishes nothing.
package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/gamedata"
)

// Tool is one owned tool's durability record. A tool whose uses reach
// zero is removed immediately; there is no broken-but-owned state.
type Tool struct {
	ID      string  `json:"id"`
	Uses    float64 `json:"uses"`
	MaxUses float64 `json:"max_uses"`
}

// PriceMod is a time-bounded purchase price multiplier.
type PriceMod struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Ledger is the shop's resource store.
type Ledger struct {
	bus *bus.Bus
	now func() time.Time

	materials map[string]float64
	items     map[string]int
	tools     map[string]*Tool
	money     float64

	materialMods map[string]PriceMod // material id → purchase price mod
	toolMods     map[string]PriceMod // tool id or "all" → purchase price mod
}

// New creates an empty ledger.
func New(b *bus.Bus) *Ledger {
	return &Ledger{
		bus:          b,
		now:          time.Now,
		materials:    make(map[string]float64),
		items:        make(map[string]int),
		tools:        make(map[string]*Tool),
		materialMods: make(map[string]PriceMod),
		toolMods:     make(map[string]PriceMod),
	}
}

// SetNowFunc overrides the wall clock, for tests.
func (l *Ledger) SetNowFunc(now func() time.Time) { l.now = now }

// SeedNewGame loads the fresh-game starting stock.
func (l *Ledger) SeedNewGame() {
	for id, qty := range gamedata.StartingMaterials {
		l.materials[id] = qty
	}
	for _, id := range gamedata.StartingTools {
		if def, ok := gamedata.ToolByID(id); ok {
			l.tools[id] = &Tool{ID: id, Uses: def.MaxUses, MaxUses: def.MaxUses}
		}
	}
	l.money = gamedata.StartingMoney
}

// ── Materials ────────────────────────────────────────────────────────

// AddMaterial credits quantity of a material. Non-positive amounts are
// rejected.
func (l *Ledger) AddMaterial(id string, qty float64) bool {
	if qty <= 0 {
		return false
	}
	l.materials[id] += qty
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// RemoveMaterial debits quantity of a material, failing without any
// mutation when the stock is insufficient.
func (l *Ledger) RemoveMaterial(id string, qty float64) bool {
	if qty <= 0 || l.materials[id] < qty {
		return false
	}
	l.materials[id] -= qty
	if l.materials[id] <= 0 {
		delete(l.materials, id)
	}
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// MaterialQuantity returns the current stock of one material.
func (l *Ledger) MaterialQuantity(id string) float64 { return l.materials[id] }

// HasMaterials reports whether every requirement is in stock. Pure check.
func (l *Ledger) HasMaterials(required map[string]float64) bool {
	for id, qty := range required {
		if l.materials[id] < qty {
			return false
		}
	}
	return true
}

// ConsumeMaterials debits every requirement, verifying all of them before
// touching any so a failure never leaves a partial debit.
func (l *Ledger) ConsumeMaterials(required map[string]float64) bool {
	if !l.HasMaterials(required) {
		return false
	}
	for id, qty := range required {
		l.materials[id] -= qty
		if l.materials[id] <= 0 {
			delete(l.materials, id)
		}
	}
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// Materials returns a defensive copy of the material stocks.
func (l *Ledger) Materials() map[string]float64 {
	out := make(map[string]float64, len(l.materials))
	for id, qty := range l.materials {
		out[id] = qty
	}
	return out
}

// ── Crafted items ────────────────────────────────────────────────────

// AddItem credits crafted-item stock.
func (l *Ledger) AddItem(id string, qty int) bool {
	if qty <= 0 {
		return false
	}
	l.items[id] += qty
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// RemoveItem debits crafted-item stock, deleting zero-quantity entries.
func (l *Ledger) RemoveItem(id string, qty int) bool {
	if qty <= 0 || l.items[id] < qty {
		return false
	}
	l.items[id] -= qty
	if l.items[id] == 0 {
		delete(l.items, id)
	}
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// ItemQuantity returns the stock of one crafted item.
func (l *Ledger) ItemQuantity(id string) int { return l.items[id] }

// HasItems reports whether every crafted-item requirement is in stock.
func (l *Ledger) HasItems(required map[string]int) bool {
	for id, qty := range required {
		if l.items[id] < qty {
			return false
		}
	}
	return true
}

// Items returns a defensive copy of the crafted-item stocks.
func (l *Ledger) Items() map[string]int {
	out := make(map[string]int, len(l.items))
	for id, qty := range l.items {
		out[id] = qty
	}
	return out
}

// ── Tools ────────────────────────────────────────────────────────────

// AddOrReplaceTool records a tool at full durability. maxUses <= 0 falls
// back to the tool table's value.
func (l *Ledger) AddOrReplaceTool(id string, maxUses float64) bool {
	if maxUses <= 0 {
		def, ok := gamedata.ToolByID(id)
		if !ok {
			slog.Warn("unknown tool", "tool", id)
			return false
		}
		maxUses = def.MaxUses
	}
	l.tools[id] = &Tool{ID: id, Uses: maxUses, MaxUses: maxUses}
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// UseTool wears a tool down by amount. When uses reach zero the tool is
// removed and tool:broken fires exactly once. Returns false if the tool
// is absent.
func (l *Ledger) UseTool(id string, amount float64) bool {
	t, ok := l.tools[id]
	if !ok {
		return false
	}
	t.Uses -= amount
	if t.Uses <= 0 {
		delete(l.tools, id)
		l.bus.Publish(bus.TopicToolBroken, bus.ToolBroken{ToolID: id})
		l.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyWarning,
			Message: fmt.Sprintf("Your %s broke!", toolName(id)),
		})
	}
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// RepairTool restores durability, clamped to the tool's maximum.
func (l *Ledger) RepairTool(id string, amount float64) bool {
	t, ok := l.tools[id]
	if !ok || amount <= 0 {
		return false
	}
	t.Uses = math.Min(t.Uses+amount, t.MaxUses)
	l.bus.Publish(bus.TopicInventoryUpdated, bus.InventoryUpdated{})
	return true
}

// HasTool reports whether a tool is owned (and therefore usable).
func (l *Ledger) HasTool(id string) bool {
	_, ok := l.tools[id]
	return ok
}

// ToolDurabilityPercentage returns remaining durability 0–100, or 0 for
// an absent tool.
func (l *Ledger) ToolDurabilityPercentage(id string) float64 {
	t, ok := l.tools[id]
	if !ok || t.MaxUses <= 0 {
		return 0
	}
	return t.Uses / t.MaxUses * 100
}

// Tools returns a defensive copy of the tool records.
func (l *Ledger) Tools() map[string]Tool {
	out := make(map[string]Tool, len(l.tools))
	for id, t := range l.tools {
		out[id] = *t
	}
	return out
}

// ── Money ────────────────────────────────────────────────────────────

// AddMoney credits the balance.
func (l *Ledger) AddMoney(amount float64) bool {
	if amount <= 0 {
		return false
	}
	l.money += amount
	l.bus.Publish(bus.TopicMoneyUpdated, bus.MoneyUpdated{Balance: l.money})
	return true
}

// RemoveMoney debits the balance, failing without mutation when the
// amount is non-positive or exceeds the balance.
func (l *Ledger) RemoveMoney(amount float64) bool {
	if amount <= 0 || l.money < amount {
		return false
	}
	l.money -= amount
	l.bus.Publish(bus.TopicMoneyUpdated, bus.MoneyUpdated{Balance: l.money})
	return true
}

// Money returns the current balance.
func (l *Ledger) Money() float64 { return l.money }

// ── Purchasing ───────────────────────────────────────────────────────

// MaterialPrice returns the current unit purchase price of a material,
// including any active price modifier.
func (l *Ledger) MaterialPrice(id string) (float64, bool) {
	def, ok := gamedata.MaterialByID(id)
	if !ok {
		return 0, false
	}
	return def.UnitPrice * l.activeMod(l.materialMods, id), true
}

// BuyMaterial purchases quantity of a material at the modified unit
// price.
func (l *Ledger) BuyMaterial(id string, qty float64) (bool, string) {
	if qty <= 0 {
		return false, "invalid quantity"
	}
	unit, ok := l.MaterialPrice(id)
	if !ok {
		return false, "unknown material"
	}
	cost := unit * qty
	if !l.RemoveMoney(cost) {
		l.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: fmt.Sprintf("Not enough money to buy %s %s.", humanize.FtoaWithDigits(qty, 1), materialName(id)),
		})
		return false, "insufficient funds"
	}
	l.AddMaterial(id, qty)
	slog.Info("material purchased", "material", id, "qty", qty, "cost", humanize.FtoaWithDigits(cost, 2))
	return true, ""
}

// ToolPrice returns the current purchase price of a tool, including any
// active tool price modifier ("all" applies when no id-specific one does).
func (l *Ledger) ToolPrice(id string) (float64, bool) {
	def, ok := gamedata.ToolByID(id)
	if !ok {
		return 0, false
	}
	mult := l.activeMod(l.toolMods, id)
	if mult == 1.0 {
		mult = l.activeMod(l.toolMods, "all")
	}
	return def.Price * mult, true
}

// BuyTool purchases a replacement tool at the modified price and records
// it at full durability.
func (l *Ledger) BuyTool(id string) (bool, string) {
	price, ok := l.ToolPrice(id)
	if !ok {
		return false, "unknown tool"
	}
	if !l.RemoveMoney(price) {
		l.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: fmt.Sprintf("Not enough money to buy a %s.", toolName(id)),
		})
		return false, "insufficient funds"
	}
	def, _ := gamedata.ToolByID(id)
	l.AddOrReplaceTool(id, def.MaxUses)
	slog.Info("tool purchased", "tool", id, "cost", humanize.FtoaWithDigits(price, 2))
	return true, ""
}

// SetMaterialPriceModifier applies a time-bounded purchase price
// multiplier to one material.
func (l *Ledger) SetMaterialPriceModifier(id string, multiplier float64, expiresAt time.Time) {
	l.materialMods[id] = PriceMod{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// SetToolPriceModifier applies a time-bounded purchase price multiplier
// to one tool id, or "all".
func (l *Ledger) SetToolPriceModifier(id string, multiplier float64, expiresAt time.Time) {
	l.toolMods[id] = PriceMod{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// SweepPriceModifiers drops expired modifiers. Called once per tick.
func (l *Ledger) SweepPriceModifiers() {
	now := l.now()
	for id, mod := range l.materialMods {
		if now.After(mod.ExpiresAt) {
			delete(l.materialMods, id)
		}
	}
	for id, mod := range l.toolMods {
		if now.After(mod.ExpiresAt) {
			delete(l.toolMods, id)
		}
	}
}

func (l *Ledger) activeMod(mods map[string]PriceMod, id string) float64 {
	mod, ok := mods[id]
	if !ok || l.now().After(mod.ExpiresAt) {
		return 1.0
	}
	return mod.Multiplier
}

func materialName(id string) string {
	if def, ok := gamedata.MaterialByID(id); ok {
		return def.Name
	}
	return id
}

func toolName(id string) string {
	if def, ok := gamedata.ToolByID(id); ok {
		return def.Name
	}
	return id
}

// ── Persistence ──────────────────────────────────────────────────────

type snapshot struct {
	Materials    map[string]float64  `json:"materials"`
	Items        map[string]int      `json:"items"`
	Tools        map[string]*Tool    `json:"tools"`
	Money        float64             `json:"money"`
	MaterialMods map[string]PriceMod `json:"material_mods"`
	ToolMods     map[string]PriceMod `json:"tool_mods"`
}

// Component names the ledger in save snapshots.
func (l *Ledger) Component() string { return "ledger" }

// Snapshot serializes the full ledger state.
func (l *Ledger) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{
		Materials:    l.materials,
		Items:        l.items,
		Tools:        l.tools,
		Money:        l.money,
		MaterialMods: l.materialMods,
		ToolMods:     l.toolMods,
	})
}

// Restore replaces the ledger state from a snapshot, dropping entries
// that violate the non-negative invariants rather than aborting.
func (l *Ledger) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	l.materials = make(map[string]float64)
	for id, qty := range s.Materials {
		if qty > 0 {
			l.materials[id] = qty
		}
	}
	l.items = make(map[string]int)
	for id, qty := range s.Items {
		if qty > 0 {
			l.items[id] = qty
		}
	}
	l.tools = make(map[string]*Tool)
	for id, t := range s.Tools {
		if t == nil || t.Uses <= 0 || t.MaxUses <= 0 {
			slog.Warn("dropping invalid tool record", "tool", id)
			continue
		}
		if t.Uses > t.MaxUses {
			t.Uses = t.MaxUses
		}
		t.ID = id
		l.tools[id] = t
	}
	l.money = math.Max(0, s.Money)
	l.materialMods = s.MaterialMods
	if l.materialMods == nil {
		l.materialMods = make(map[string]PriceMod)
	}
	l.toolMods = s.ToolMods
	if l.toolMods == nil {
		l.toolMods = make(map[string]PriceMod)
	}
	return nil
}

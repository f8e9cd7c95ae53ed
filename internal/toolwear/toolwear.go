// Package toolwear maps item categories to the tools a craft requires and
// applies per-craft wear through the ledger. Wear scales with the
// recipe's complexity tier.
package toolwear

import (
	"log/slog"

	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
)

// categoryTools lists, in order, the tools a category's recipes need.
var categoryTools = map[string][]string{
	gamedata.CategoryBasic:   {"hammer", "anvil"},
	gamedata.CategoryTools:   {"hammer", "anvil"},
	gamedata.CategoryWeapons: {"hammer", "anvil", "tongs"},
	gamedata.CategoryArmor:   {"hammer", "anvil", "tongs"},
	gamedata.CategoryLuxury:  {"hammer", "anvil", "chisel"},
}

// tierWear is the uses consumed per craft, indexed by complexity tier.
var tierWear = map[int]float64{1: 1, 2: 2, 3: 3}

// Manager applies the wear policy against the ledger's tool records.
type Manager struct {
	led *ledger.Ledger
}

// New creates a wear manager over the given ledger.
func New(led *ledger.Ledger) *Manager {
	return &Manager{led: led}
}

// RequiredTools returns the tool ids a recipe needs.
func RequiredTools(def gamedata.ItemDef) []string {
	return categoryTools[def.Category]
}

// WearFor returns the per-craft wear for a recipe's tier.
func WearFor(def gamedata.ItemDef) float64 {
	if w, ok := tierWear[def.Tier]; ok {
		return w
	}
	return 1
}

// CheckToolsForItem reports whether every required tool is present.
func (m *Manager) CheckToolsForItem(def gamedata.ItemDef) bool {
	for _, id := range RequiredTools(def) {
		if !m.led.HasTool(id) {
			return false
		}
	}
	return true
}

// MissingTools lists the required tools not currently owned.
func (m *Manager) MissingTools(def gamedata.ItemDef) []string {
	var missing []string
	for _, id := range RequiredTools(def) {
		if !m.led.HasTool(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// UseToolsForItem wears every required tool that is present. A tool that
// disappeared mid-craft is skipped; the ledger already notified its
// breakage, but a craft completing without it is unusual enough to log.
func (m *Manager) UseToolsForItem(def gamedata.ItemDef) {
	wear := WearFor(def)
	for _, id := range RequiredTools(def) {
		if !m.led.UseTool(id, wear) {
			slog.Warn("required tool missing at craft completion", "tool", id, "item", def.ID)
		}
	}
}

// ToolDurability is one entry of the durability report.
type ToolDurability struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Uses       float64 `json:"uses"`
	MaxUses    float64 `json:"max_uses"`
	Percentage float64 `json:"percentage"`
}

// DurabilityDetails reports every owned tool's remaining durability.
func (m *Manager) DurabilityDetails() []ToolDurability {
	tools := m.led.Tools()
	out := make([]ToolDurability, 0, len(tools))
	for id, t := range tools {
		name := id
		if def, ok := gamedata.ToolByID(id); ok {
			name = def.Name
		}
		out = append(out, ToolDurability{
			ID:         id,
			Name:       name,
			Uses:       t.Uses,
			MaxUses:    t.MaxUses,
			Percentage: m.led.ToolDurabilityPercentage(id),
		})
	}
	return out
}

// RepairTool restores durability on one tool, clamped to its maximum.
func (m *Manager) RepairTool(id string, amount float64) bool {
	return m.led.RepairTool(id, amount)
}

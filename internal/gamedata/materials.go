// Package gamedata holds the immutable reference tables: materials,
// recipes, worker types, contract templates, and random event definitions.
// Nothing here is mutated at runtime except the recipe unlocked flag,
// which the blueprint registry flips exactly once.
package gamedata

// Material describes one raw material the shop can stock and buy.
type Material struct {
	ID        string
	Name      string
	UnitPrice float64
}

// Materials is the raw material table, keyed by id.
var Materials = map[string]Material{
	"iron":    {ID: "iron", Name: "Iron", UnitPrice: 2.0},
	"coal":    {ID: "coal", Name: "Coal", UnitPrice: 1.0},
	"wood":    {ID: "wood", Name: "Wood", UnitPrice: 0.5},
	"leather": {ID: "leather", Name: "Leather", UnitPrice: 3.0},
	"steel":   {ID: "steel", Name: "Steel", UnitPrice: 5.0},
	"gold":    {ID: "gold", Name: "Gold", UnitPrice: 25.0},
}

// MaterialByID looks up a material definition.
func MaterialByID(id string) (Material, bool) {
	m, ok := Materials[id]
	return m, ok
}

// StartingMaterials seeds a fresh game's ledger.
var StartingMaterials = map[string]float64{
	"iron": 50,
	"coal": 25,
	"wood": 30,
}

// StartingMoney is a fresh game's balance.
const StartingMoney = 100.0

// StartingTools are present and at full durability in a fresh game.
var StartingTools = []string{"hammer", "anvil", "tongs"}

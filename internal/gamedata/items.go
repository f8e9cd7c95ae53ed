package gamedata

// Item categories group recipes for tool requirements and demand modifiers.
const (
	CategoryBasic   = "basic"
	CategoryTools   = "tools"
	CategoryWeapons = "weapons"
	CategoryArmor   = "armor"
	CategoryLuxury  = "luxury"
)

// ItemDef is one craftable recipe. All fields except Unlocked are
// immutable reference data; Unlocked flips false→true exactly once.
type ItemDef struct {
	ID             string
	Name           string
	Category       string
	Tier           int // complexity 1–3, indexes tool wear
	BasePrice      float64
	CraftingTime   float64 // game seconds of progress per unit crafted
	Materials      map[string]float64
	FuelCost       float64 // flat forge draw per craft request
	BatchSize      int     // output units per crafted quantity, 0 = 1
	BlueprintPrice float64 // 0 = not purchasable
	Unlocked       bool
	CreatesTool    string // non-empty: output is this tool, not stock
	MaxUses        float64 // durability when CreatesTool is set
}

// OutputPerUnit returns how many units one crafted quantity delivers.
func (d ItemDef) OutputPerUnit() int {
	if d.BatchSize > 1 {
		return d.BatchSize
	}
	return 1
}

// IsTool reports whether the recipe produces a tool rather than stock.
func (d ItemDef) IsTool() bool { return d.CreatesTool != "" }

// Items is the recipe table, keyed by id.
var Items = map[string]ItemDef{
	"nail": {
		ID: "nail", Name: "Nail", Category: CategoryBasic, Tier: 1,
		BasePrice: 0.5, CraftingTime: 10,
		Materials: map[string]float64{"iron": 0.2},
		FuelCost:  1, BatchSize: 10, Unlocked: true,
	},
	"horseshoe": {
		ID: "horseshoe", Name: "Horseshoe", Category: CategoryBasic, Tier: 1,
		BasePrice: 4, CraftingTime: 25,
		Materials: map[string]float64{"iron": 1},
		FuelCost:  2, Unlocked: true,
	},
	"hook": {
		ID: "hook", Name: "Hook", Category: CategoryBasic, Tier: 1,
		BasePrice: 2, CraftingTime: 15,
		Materials: map[string]float64{"iron": 0.5},
		FuelCost:  1, Unlocked: true,
	},
	"hinge": {
		ID: "hinge", Name: "Hinge", Category: CategoryBasic, Tier: 2,
		BasePrice: 6, CraftingTime: 35,
		Materials: map[string]float64{"iron": 1.5},
		FuelCost:  2, BlueprintPrice: 25, Unlocked: false,
	},
	"dagger": {
		ID: "dagger", Name: "Dagger", Category: CategoryWeapons, Tier: 2,
		BasePrice: 15, CraftingTime: 60,
		Materials: map[string]float64{"iron": 2, "wood": 1},
		FuelCost:  3, BlueprintPrice: 40, Unlocked: false,
	},
	"sword": {
		ID: "sword", Name: "Sword", Category: CategoryWeapons, Tier: 3,
		BasePrice: 45, CraftingTime: 120,
		Materials: map[string]float64{"steel": 3, "wood": 1, "leather": 1},
		FuelCost:  5, BlueprintPrice: 120, Unlocked: false,
	},
	"axe": {
		ID: "axe", Name: "Axe", Category: CategoryWeapons, Tier: 2,
		BasePrice: 20, CraftingTime: 75,
		Materials: map[string]float64{"iron": 2.5, "wood": 2},
		FuelCost:  3, BlueprintPrice: 50, Unlocked: false,
	},
	"breastplate": {
		ID: "breastplate", Name: "Breastplate", Category: CategoryArmor, Tier: 3,
		BasePrice: 80, CraftingTime: 180,
		Materials: map[string]float64{"steel": 5, "leather": 2},
		FuelCost:  8, BlueprintPrice: 200, Unlocked: false,
	},
	"candlestick": {
		ID: "candlestick", Name: "Gilded Candlestick", Category: CategoryLuxury, Tier: 3,
		BasePrice: 120, CraftingTime: 150,
		Materials: map[string]float64{"iron": 1, "gold": 2},
		FuelCost:  4, BlueprintPrice: 300, Unlocked: false,
	},
	"hammer": {
		ID: "hammer", Name: "Smithing Hammer", Category: CategoryTools, Tier: 2,
		BasePrice: 12, CraftingTime: 50,
		Materials: map[string]float64{"iron": 2, "wood": 1},
		FuelCost:  2, Unlocked: true,
		CreatesTool: "hammer", MaxUses: 50,
	},
	"tongs": {
		ID: "tongs", Name: "Forge Tongs", Category: CategoryTools, Tier: 2,
		BasePrice: 10, CraftingTime: 45,
		Materials: map[string]float64{"iron": 1.5},
		FuelCost:  2, Unlocked: true,
		CreatesTool: "tongs", MaxUses: 60,
	},
	"chisel": {
		ID: "chisel", Name: "Chisel", Category: CategoryTools, Tier: 1,
		BasePrice: 6, CraftingTime: 30,
		Materials: map[string]float64{"iron": 1},
		FuelCost:  1, BlueprintPrice: 15, Unlocked: false,
		CreatesTool: "chisel", MaxUses: 40,
	},
}

// ItemByID looks up a recipe definition.
func ItemByID(id string) (ItemDef, bool) {
	d, ok := Items[id]
	return d, ok
}

// ToolDef describes a purchasable tool.
type ToolDef struct {
	ID      string
	Name    string
	Price   float64
	MaxUses float64
}

// Tools is the tool table, keyed by id.
var Tools = map[string]ToolDef{
	"hammer": {ID: "hammer", Name: "Smithing Hammer", Price: 15, MaxUses: 50},
	"anvil":  {ID: "anvil", Name: "Anvil", Price: 60, MaxUses: 200},
	"tongs":  {ID: "tongs", Name: "Forge Tongs", Price: 12, MaxUses: 60},
	"chisel": {ID: "chisel", Name: "Chisel", Price: 8, MaxUses: 40},
}

// ToolByID looks up a tool definition.
func ToolByID(id string) (ToolDef, bool) {
	t, ok := Tools[id]
	return t, ok
}

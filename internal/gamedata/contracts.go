package gamedata

// ContractDef is a weighted template the contract board draws from.
// Quantity and duration are rolled uniformly from their inclusive ranges.
type ContractDef struct {
	ItemID      string
	Description string
	MinQty      int
	MaxQty      int
	MinDuration float64 // real minutes before the offer expires
	MaxDuration float64
	PayoutMult  float64 // payout = base price × quantity × this
	Weight      float64
}

// ContractDefs is the standard contract template table.
var ContractDefs = []ContractDef{
	{ItemID: "nail", Description: "A carpenter needs nails for a barn roof.",
		MinQty: 20, MaxQty: 60, MinDuration: 20, MaxDuration: 45, PayoutMult: 1.4, Weight: 10},
	{ItemID: "horseshoe", Description: "The stable master wants a fresh set of shoes.",
		MinQty: 4, MaxQty: 12, MinDuration: 25, MaxDuration: 50, PayoutMult: 1.5, Weight: 8},
	{ItemID: "hook", Description: "Dock hands keep losing cargo hooks.",
		MinQty: 5, MaxQty: 15, MinDuration: 20, MaxDuration: 40, PayoutMult: 1.3, Weight: 8},
	{ItemID: "hinge", Description: "The new granary doors need sturdy hinges.",
		MinQty: 4, MaxQty: 10, MinDuration: 30, MaxDuration: 60, PayoutMult: 1.5, Weight: 6},
	{ItemID: "dagger", Description: "A caravan guard company is restocking sidearms.",
		MinQty: 2, MaxQty: 6, MinDuration: 35, MaxDuration: 70, PayoutMult: 1.6, Weight: 4},
	{ItemID: "sword", Description: "The garrison commissioned blades for new recruits.",
		MinQty: 1, MaxQty: 4, MinDuration: 45, MaxDuration: 90, PayoutMult: 1.8, Weight: 3},
	{ItemID: "axe", Description: "Loggers upriver wore their axes to stubs.",
		MinQty: 2, MaxQty: 5, MinDuration: 40, MaxDuration: 80, PayoutMult: 1.6, Weight: 4},
	{ItemID: "breastplate", Description: "A knight wants plate fitted before the tourney.",
		MinQty: 1, MaxQty: 2, MinDuration: 60, MaxDuration: 120, PayoutMult: 2.0, Weight: 2},
	{ItemID: "candlestick", Description: "The abbey is refurnishing its chapel.",
		MinQty: 1, MaxQty: 3, MinDuration: 60, MaxDuration: 120, PayoutMult: 2.2, Weight: 1},
}

// FallbackContractItems are offered when no unlocked recipe matches any
// template (a fresh game with everything sold off, for instance).
var FallbackContractItems = []string{"nail", "horseshoe", "hook"}

// ContractCustomers feeds contract customer-name generation.
var ContractCustomers = []string{
	"Farmer Aldwin", "Mistress Greta", "Captain Roderick", "Brother Anselm",
	"Trader Yusuf", "Dame Ingrid", "Old Tom the Wheelwright", "The Harbormaster",
	"Squire Benedict", "Widow Marta", "Master Builder Corin", "The Stable Master",
}

package gamedata

// EffectKind enumerates what a random event effect targets.
type EffectKind string

const (
	EffectDemand          EffectKind = "demand"           // storefront demand multiplier
	EffectMaterialPrice   EffectKind = "material-price"   // ledger material purchase price
	EffectSpecialContract EffectKind = "special-contract" // contract board special offer
	EffectHiringDiscount  EffectKind = "hiring-discount"  // workforce hire cost
	EffectToolPrice       EffectKind = "tool-price"       // ledger tool purchase price
)

// EffectDef is one typed effect inside an event definition. Target is the
// item/material/tool/worker-type id the effect applies to; "all" where a
// component supports it. The contract fields are used only by
// EffectSpecialContract.
type EffectDef struct {
	Kind       EffectKind
	Target     string
	Multiplier float64

	ContractItem     string
	ContractQty      int
	ContractPayout   float64 // payout multiplier over base price × qty
	ContractDuration float64 // real minutes
	ContractCustomer string
}

// EventDef is a weighted random event template. RequiresUnlocked, when
// non-empty, names a blueprint that must be unlocked for the event to be
// eligible.
type EventDef struct {
	ID               string
	Name             string
	Description      string
	Duration         float64 // real minutes the effects stay active
	Weight           float64
	RequiresUnlocked string
	Effects          []EffectDef
}

// EventDefs is the random event table.
var EventDefs = []EventDef{
	{
		ID: "market_day", Name: "Market Day",
		Description: "The weekly market floods the square with buyers.",
		Duration:    15, Weight: 10,
		Effects: []EffectDef{
			{Kind: EffectDemand, Target: "all", Multiplier: 1.5},
		},
	},
	{
		ID: "iron_shortage", Name: "Iron Shortage",
		Description: "A collapsed mine shaft has iron prices climbing.",
		Duration:    20, Weight: 6,
		Effects: []EffectDef{
			{Kind: EffectMaterialPrice, Target: "iron", Multiplier: 1.8},
			{Kind: EffectMaterialPrice, Target: "steel", Multiplier: 1.5},
		},
	},
	{
		ID: "coal_glut", Name: "Coal Glut",
		Description: "A new seam opened; coal is nearly given away.",
		Duration:    20, Weight: 6,
		Effects: []EffectDef{
			{Kind: EffectMaterialPrice, Target: "coal", Multiplier: 0.5},
		},
	},
	{
		ID: "harvest_festival", Name: "Harvest Festival",
		Description: "Festival wagons need repairs, and fast.",
		Duration:    25, Weight: 5,
		Effects: []EffectDef{
			{Kind: EffectDemand, Target: "nail", Multiplier: 2.0},
			{Kind: EffectDemand, Target: "hinge", Multiplier: 1.8},
			{
				Kind: EffectSpecialContract, ContractItem: "nail", ContractQty: 40,
				ContractPayout: 2.0, ContractDuration: 20,
				ContractCustomer: "The Festival Committee",
			},
		},
	},
	{
		ID: "war_rumors", Name: "Rumors of War",
		Description: "Talk of border raids has everyone arming up.",
		Duration:    30, Weight: 3, RequiresUnlocked: "dagger",
		Effects: []EffectDef{
			{Kind: EffectDemand, Target: "dagger", Multiplier: 2.5},
			{Kind: EffectDemand, Target: "sword", Multiplier: 2.0},
			{
				Kind: EffectSpecialContract, ContractItem: "dagger", ContractQty: 5,
				ContractPayout: 2.2, ContractDuration: 30,
				ContractCustomer: "Captain of the Watch",
			},
		},
	},
	{
		ID: "guild_recruits", Name: "Guild Recruitment Drive",
		Description: "The smiths' guild is placing apprentices cheaply.",
		Duration:    20, Weight: 4,
		Effects: []EffectDef{
			{Kind: EffectHiringDiscount, Target: "apprentice", Multiplier: 0.5},
		},
	},
	{
		ID: "labor_fair", Name: "Labor Fair",
		Description: "Journeymen from three towns over seek placement.",
		Duration:    15, Weight: 3,
		Effects: []EffectDef{
			{Kind: EffectHiringDiscount, Target: "all", Multiplier: 0.75},
		},
	},
	{
		ID: "toolmaker_visit", Name: "Traveling Toolmaker",
		Description: "A toolmaker's cart is parked outside, undercutting everyone.",
		Duration:    15, Weight: 4,
		Effects: []EffectDef{
			{Kind: EffectToolPrice, Target: "all", Multiplier: 0.6},
		},
	},
	{
		ID: "tourney", Name: "Tournament Announced",
		Description: "Knights are fitting out for the spring tourney.",
		Duration:    30, Weight: 2, RequiresUnlocked: "breastplate",
		Effects: []EffectDef{
			{Kind: EffectDemand, Target: "breastplate", Multiplier: 2.0},
			{
				Kind: EffectSpecialContract, ContractItem: "breastplate", ContractQty: 1,
				ContractPayout: 2.5, ContractDuration: 45,
				ContractCustomer: "Sir Percival",
			},
		},
	},
}

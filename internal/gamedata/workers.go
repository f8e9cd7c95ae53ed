package gamedata

// WorkerTypeDef describes one tier of hireable worker.
type WorkerTypeDef struct {
	ID           string
	Name         string
	Speed        float64 // crafting speed multiplier
	FatigueRate  float64 // scales per-tick fatigue accrual while crafting
	RecoveryRate float64 // scales per-tick recovery while resting
	MaxFatigue   float64
	Salary       float64 // daily wage
	HireCost     float64
}

// WorkerTypes is the hireable worker table, keyed by id.
var WorkerTypes = map[string]WorkerTypeDef{
	"apprentice": {
		ID: "apprentice", Name: "Apprentice",
		Speed: 0.8, FatigueRate: 1.4, RecoveryRate: 1.0,
		MaxFatigue: 100, Salary: 5, HireCost: 20,
	},
	"journeyman": {
		ID: "journeyman", Name: "Journeyman",
		Speed: 1.1, FatigueRate: 1.0, RecoveryRate: 1.2,
		MaxFatigue: 120, Salary: 12, HireCost: 60,
	},
	"master": {
		ID: "master", Name: "Master Smith",
		Speed: 1.6, FatigueRate: 0.7, RecoveryRate: 1.5,
		MaxFatigue: 150, Salary: 30, HireCost: 180,
	},
}

// WorkerTypeByID looks up a worker type definition.
func WorkerTypeByID(id string) (WorkerTypeDef, bool) {
	t, ok := WorkerTypes[id]
	return t, ok
}

// WorkerNames feeds hired-worker name generation.
var WorkerNames = []string{
	"Aldric", "Berta", "Cedric", "Dagny", "Edmund", "Freya",
	"Gareth", "Hilda", "Ivar", "Jorun", "Kellan", "Liesl",
	"Magnus", "Nessa", "Osric", "Petra", "Quentin", "Runa",
	"Sigurd", "Thyra", "Ulric", "Vigdis", "Wendel", "Ysolde",
}

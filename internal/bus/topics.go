package bus

import "time"

// Topic names every event the shop systems publish. The catalog is closed:
// each topic has exactly one payload type, declared below, so call sites
// and handlers agree on shape even though the bus itself dispatches by tag.
type Topic string

const (
	TopicInventoryUpdated Topic = "inventory:updated"
	TopicMoneyUpdated     Topic = "money:updated"

	TopicCoalUpdated  Topic = "coal:updated"
	TopicCoalLow      Topic = "coal:low"
	TopicCoalRefilled Topic = "coal:refilled"

	TopicToolBroken Topic = "tool:broken"

	TopicCraftingStarted      Topic = "crafting:started"
	TopicCraftingProgress     Topic = "crafting:progress"
	TopicCraftingPaused       Topic = "crafting:paused"
	TopicCraftingResumed      Topic = "crafting:resumed"
	TopicCraftingCompleted    Topic = "crafting:completed"
	TopicCraftingCanceled     Topic = "crafting:canceled"
	TopicCraftingQueueUpdated Topic = "crafting:queue-updated"

	TopicBlueprintUnlocked Topic = "blueprint:unlocked"

	TopicStorefrontUpdated Topic = "storefront:updated"
	TopicItemSold          Topic = "item:sold"

	TopicContractAvailable        Topic = "contract:available"
	TopicContractSpecialAvailable Topic = "contract:special-available"
	TopicContractCompleted        Topic = "contract:completed"
	TopicContractExpired          Topic = "contract:expired"

	TopicWorkerHired        Topic = "worker:hired"
	TopicWorkerFired        Topic = "worker:fired"
	TopicWorkerTaskAssigned Topic = "worker:task-assigned"
	TopicWorkerResting      Topic = "worker:resting"

	TopicEventTriggered Topic = "event:triggered"
	TopicEventExpired   Topic = "event:expired"

	TopicTimeTick       Topic = "time:tick"
	TopicTimeNewDay     Topic = "time:new-day"
	TopicTimeHourChange Topic = "time:hour-changed"
	TopicWorkdayStarted Topic = "time:workday-started"
	TopicWorkdayEnded   Topic = "time:workday-ended"

	// TopicNotify carries user-facing messages for the presentation layer.
	TopicNotify Topic = "ui:notify"
)

// InventoryUpdated has no fields; consumers re-read the ledger.
type InventoryUpdated struct{}

// MoneyUpdated reports the balance after any money mutation.
type MoneyUpdated struct {
	Balance float64
}

// CoalLevel is published on every forge level change, on the one-shot
// low-fuel warning, and on refill.
type CoalLevel struct {
	Level float64
}

// ToolBroken fires exactly once, the tick a tool's uses reach zero.
type ToolBroken struct {
	ToolID string
}

// CraftingStarted announces a job entering the queue or becoming active.
type CraftingStarted struct {
	JobID    string
	ItemID   string
	ItemName string
	Quantity int
	WorkerID string
	Queued   bool
}

// CraftingProgress is published each tick the active job advances.
type CraftingProgress struct {
	ItemID     string
	Progress   float64
	Total      float64
	Percentage float64
}

// CraftingPaused carries the reason the active job stopped advancing.
type CraftingPaused struct {
	ItemID string
	Reason string
}

// CraftingResumed fires when a paused job starts advancing again.
type CraftingResumed struct {
	ItemID string
}

// CraftingCompleted reports delivered output.
type CraftingCompleted struct {
	ItemID   string
	ItemName string
	Quantity int
	WorkerID string
}

// CraftingCanceled names the canceled item.
type CraftingCanceled struct {
	ItemName string
}

// QueuedJob is the read-only view of one backlog entry.
type QueuedJob struct {
	JobID    string
	ItemID   string
	ItemName string
	Quantity int
}

// CraftingQueueUpdated snapshots the backlog after any change to it.
type CraftingQueueUpdated struct {
	Queue []QueuedJob
}

// BlueprintUnlocked fires once per blueprint, on the false→true flip.
type BlueprintUnlocked struct {
	ItemID   string
	ItemName string
}

// ListingView is the read-only view of one storefront listing.
type ListingView struct {
	ItemID   string
	Quantity int
	Price    float64
	LastSale time.Time
}

// StorefrontUpdated snapshots the listings after any change.
type StorefrontUpdated struct {
	Listings []ListingView
}

// ItemSold reports one completed sale, simulated or player-initiated.
type ItemSold struct {
	ItemID   string
	Price    float64
	Quantity int
}

// ContractView is the read-only view of a contract offer.
type ContractView struct {
	ID        string
	Customer  string
	ItemID    string
	Quantity  int
	Payout    float64
	ExpiresAt time.Time
	Special   bool
}

// WorkerView is the read-only view of a worker for hire/fire events.
type WorkerView struct {
	ID     string
	Name   string
	TypeID string
}

// WorkerTaskAssigned reports a task replacing a worker's current one.
type WorkerTaskAssigned struct {
	WorkerID string
	Task     string
}

// WorkerResting fires when a worker starts or stops resting.
type WorkerResting struct {
	WorkerID string
	Name     string
	Resting  bool
	Forced   bool
}

// EventView is the read-only view of an active random event.
type EventView struct {
	InstanceID string
	DefID      string
	Name       string
	ExpiresAt  time.Time
}

// EventTriggered carries the event plus human-readable effect summaries.
type EventTriggered struct {
	Event          EventView
	AppliedEffects []string
}

// EventExpired reports a random event leaving play.
type EventExpired struct {
	Event EventView
}

// TimeTick is published once per tick with the current game time.
type TimeTick struct {
	Day          int
	Hour         int
	Minute       int
	TotalMinutes float64
}

// TimeNewDay fires once per day boundary crossed.
type TimeNewDay struct {
	Day int
}

// TimeHourChanged fires once per hour boundary crossed.
type TimeHourChanged struct {
	Hour int
}

// NotifyLevel classifies a user-facing notification.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Notify is the user-facing notification payload consumed by the
// presentation layer; core systems never subscribe to it.
type Notify struct {
	Level   NotifyLevel
	Message string
}

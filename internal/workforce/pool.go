// Package workforce owns hired workers: task assignment, fatigue
// accumulation and recovery, wage liability, and the automation they
// provide over production and fuel.
package workforce

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/crafting"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/forge"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
)

// Status is a worker's explicit activity state.
type Status uint8

const (
	Idle Status = iota
	Working
	Resting
)

// String names the status for logs and payloads.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Working:
		return "working"
	case Resting:
		return "resting"
	}
	return "unknown"
}

// TaskKind enumerates what a worker can be assigned.
type TaskKind uint8

const (
	TaskNone TaskKind = iota
	TaskCraft
	TaskFuel
)

// Task is a worker's current assignment. Craft tasks carry the item id.
type Task struct {
	Kind   TaskKind `json:"kind"`
	ItemID string   `json:"item_id,omitempty"`
}

// String names the task for event payloads.
func (t Task) String() string {
	switch t.Kind {
	case TaskCraft:
		return "craft:" + t.ItemID
	case TaskFuel:
		return "fuel-watch"
	}
	return "none"
}

// Worker is one hired smith.
type Worker struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	TypeID  string  `json:"type_id"`
	Fatigue float64 `json:"fatigue"`
	Status  Status  `json:"status"`
	Task    Task    `json:"task"`

	// highWarned debounces the high-fatigue warning; it re-arms once
	// fatigue drops below half the maximum.
	HighWarned bool `json:"high_warned"`
}

// Discount is a time-bounded hiring cost multiplier.
type Discount struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Fatigue tuning.
const (
	recoverPerTick   = 0.2
	craftFatiguePer  = 0.2
	fuelFatiguePer   = 0.05
	idleFatiguePer   = 0.1
	fuelWatchLevel   = 20.0
	highFatigueAt    = 0.8 // fraction of max
	highFatigueRearm = 0.5
)

// Pool owns the hired workers.
type Pool struct {
	bus   *bus.Bus
	led   *ledger.Ledger
	queue *crafting.Queue
	frg   *forge.Forge
	rng   entropy.Source
	now   func() time.Time

	workers   []*Worker
	discounts map[string]Discount // worker type id or "all"
	wageDebt  float64
}

// New wires the pool and subscribes it to the day boundary for payroll.
func New(b *bus.Bus, led *ledger.Ledger, queue *crafting.Queue, frg *forge.Forge, rng entropy.Source) *Pool {
	p := &Pool{
		bus:       b,
		led:       led,
		queue:     queue,
		frg:       frg,
		rng:       rng,
		now:       time.Now,
		discounts: make(map[string]Discount),
	}
	b.Subscribe(bus.TopicTimeNewDay, func(any) { p.payWages() })
	return p
}

// SetNowFunc overrides the wall clock, for tests.
func (p *Pool) SetNowFunc(now func() time.Time) { p.now = now }

// Workers returns copies of every worker record.
func (p *Pool) Workers() []Worker {
	out := make([]Worker, len(p.workers))
	for i, w := range p.workers {
		out[i] = *w
	}
	return out
}

// WageDebt returns outstanding unpaid wages.
func (p *Pool) WageDebt() float64 { return p.wageDebt }

// HireCost returns a type's hire cost under any active discount;
// a type-specific discount takes precedence over an "all" one.
func (p *Pool) HireCost(typeID string) (float64, bool) {
	def, ok := gamedata.WorkerTypeByID(typeID)
	if !ok {
		return 0, false
	}
	return def.HireCost * p.discountFor(typeID), true
}

// Hire recruits a worker of the given type, debiting the discounted hire
// cost. Hiring is blocked while wages are owed.
func (p *Pool) Hire(typeID string) (bool, string) {
	def, ok := gamedata.WorkerTypeByID(typeID)
	if !ok {
		return false, "unknown worker type"
	}
	if p.wageDebt > 0 {
		p.notify(bus.NotifyError, "No one will sign on while wages are owed.")
		return false, "outstanding wages"
	}
	cost := def.HireCost * p.discountFor(typeID)
	if !p.led.RemoveMoney(cost) {
		p.notify(bus.NotifyError, fmt.Sprintf("Not enough money to hire a %s.", def.Name))
		return false, "insufficient funds"
	}

	w := &Worker{
		ID:     uuid.NewString(),
		Name:   gamedata.WorkerNames[p.rng.IntN(len(gamedata.WorkerNames))],
		TypeID: typeID,
		Status: Idle,
	}
	p.workers = append(p.workers, w)

	p.bus.Publish(bus.TopicWorkerHired, bus.WorkerView{ID: w.ID, Name: w.Name, TypeID: typeID})
	p.notify(bus.NotifySuccess, fmt.Sprintf("%s the %s joins the shop for %s coins.", w.Name, def.Name, humanize.FtoaWithDigits(cost, 2)))
	slog.Info("worker hired", "worker", w.ID, "type", typeID, "cost", cost)
	return true, ""
}

// Fire removes a worker unconditionally. No refund.
func (p *Pool) Fire(id string) bool {
	for i, w := range p.workers {
		if w.ID == id {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			p.bus.Publish(bus.TopicWorkerFired, bus.WorkerView{ID: w.ID, Name: w.Name, TypeID: w.TypeID})
			slog.Info("worker fired", "worker", id)
			return true
		}
	}
	return false
}

// AssignTask replaces a worker's current task. Resting or exhausted
// workers, and malformed tasks, are rejected.
func (p *Pool) AssignTask(id string, task Task) (bool, string) {
	w := p.byID(id)
	if w == nil {
		return false, "unknown worker"
	}
	def, _ := gamedata.WorkerTypeByID(w.TypeID)
	if w.Status == Resting {
		return false, "worker is resting"
	}
	if w.Fatigue >= def.MaxFatigue {
		return false, "worker is exhausted"
	}
	if task.Kind == TaskCraft && task.ItemID == "" {
		return false, "crafting task needs an item"
	}
	w.Task = task
	p.bus.Publish(bus.TopicWorkerTaskAssigned, bus.WorkerTaskAssigned{WorkerID: id, Task: task.String()})
	return true, ""
}

// SetResting puts a worker to rest (clearing the task) or back to idle.
func (p *Pool) SetResting(id string, resting bool) bool {
	w := p.byID(id)
	if w == nil {
		return false
	}
	if resting {
		w.Status = Resting
		w.Task = Task{}
	} else {
		w.Status = Idle
	}
	p.bus.Publish(bus.TopicWorkerResting, bus.WorkerResting{
		WorkerID: w.ID, Name: w.Name, Resting: resting,
	})
	return true
}

// Update runs once per tick: recovery for resters, forced rest at the
// fatigue cap, task execution, then fatigue accrual.
func (p *Pool) Update() {
	p.sweepDiscounts()

	for _, w := range p.workers {
		def, ok := gamedata.WorkerTypeByID(w.TypeID)
		if !ok {
			continue
		}

		if w.Status == Resting {
			p.recover(w, def)
			continue
		}

		if w.Fatigue >= def.MaxFatigue {
			w.Status = Resting
			w.Task = Task{}
			p.bus.Publish(bus.TopicWorkerResting, bus.WorkerResting{
				WorkerID: w.ID, Name: w.Name, Resting: true, Forced: true,
			})
			p.notify(bus.NotifyWarning, fmt.Sprintf("%s is exhausted and must rest.", w.Name))
			continue
		}

		p.runTask(w, def)
		p.accrueFatigue(w, def)
	}
}

func (p *Pool) recover(w *Worker, def gamedata.WorkerTypeDef) {
	if w.Fatigue <= 0 {
		return
	}
	w.Fatigue = math.Max(0, w.Fatigue-recoverPerTick*def.RecoveryRate)
	if w.Fatigue == 0 {
		w.Status = Idle
		w.HighWarned = false
		p.bus.Publish(bus.TopicWorkerResting, bus.WorkerResting{
			WorkerID: w.ID, Name: w.Name, Resting: false,
		})
		p.notify(bus.NotifyInfo, fmt.Sprintf("%s is fully rested.", w.Name))
	}
}

func (p *Pool) runTask(w *Worker, def gamedata.WorkerTypeDef) {
	switch w.Task.Kind {
	case TaskCraft:
		// Start a craft only when the pipeline is fully idle so worker
		// crafts never starve the player's queue.
		if !p.queue.Idle() {
			return
		}
		prev := p.queue.SpeedMultiplier()
		p.queue.SetSpeedMultiplier(def.Speed)
		ok, reason := p.queue.StartCrafting(w.Task.ItemID, 1, w.ID)
		p.queue.SetSpeedMultiplier(prev)
		if !ok {
			p.notify(bus.NotifyWarning, fmt.Sprintf("%s stopped crafting: %s.", w.Name, reason))
			w.Task = Task{}
			w.Status = Idle
			return
		}
		w.Status = Working
	case TaskFuel:
		if p.frg.Level() <= fuelWatchLevel {
			if p.frg.Refill() {
				slog.Info("worker refilled forge", "worker", w.Name)
			}
		}
		w.Status = Working
	}
}

func (p *Pool) accrueFatigue(w *Worker, def gamedata.WorkerTypeDef) {
	var gain float64
	switch w.Task.Kind {
	case TaskCraft:
		gain = craftFatiguePer * def.FatigueRate
	case TaskFuel:
		gain = fuelFatiguePer
	default:
		gain = idleFatiguePer
	}
	w.Fatigue = math.Min(def.MaxFatigue, w.Fatigue+gain)

	switch {
	case !w.HighWarned && w.Fatigue >= highFatigueAt*def.MaxFatigue:
		w.HighWarned = true
		p.notify(bus.NotifyWarning, fmt.Sprintf("%s is getting very tired.", w.Name))
	case w.HighWarned && w.Fatigue < highFatigueRearm*def.MaxFatigue:
		w.HighWarned = false
	}
}

// payWages runs on the day boundary: clear any outstanding debt first,
// then the day's payroll. A shortfall accrues into WageDebt.
func (p *Pool) payWages() {
	if p.wageDebt > 0 && p.led.RemoveMoney(p.wageDebt) {
		p.notify(bus.NotifyInfo, fmt.Sprintf("Paid off %s coins of owed wages.", humanize.FtoaWithDigits(p.wageDebt, 2)))
		p.wageDebt = 0
	}

	total := 0.0
	for _, w := range p.workers {
		if def, ok := gamedata.WorkerTypeByID(w.TypeID); ok {
			total += def.Salary
		}
	}
	if total == 0 {
		return
	}
	if p.led.RemoveMoney(total) {
		p.notify(bus.NotifyInfo, fmt.Sprintf("Paid %s coins in wages.", humanize.FtoaWithDigits(total, 2)))
		return
	}
	p.wageDebt += total
	p.notify(bus.NotifyError, fmt.Sprintf("Could not pay %s coins in wages; debt is now %s.", humanize.FtoaWithDigits(total, 2), humanize.FtoaWithDigits(p.wageDebt, 2)))
	slog.Warn("wage shortfall", "owed", total, "debt", p.wageDebt)
}

// SetHiringDiscount applies a time-bounded hire cost multiplier to one
// worker type, or "all".
func (p *Pool) SetHiringDiscount(typeIDOrAll string, multiplier float64, expiresAt time.Time) {
	p.discounts[typeIDOrAll] = Discount{Multiplier: multiplier, ExpiresAt: expiresAt}
}

func (p *Pool) discountFor(typeID string) float64 {
	now := p.now()
	if d, ok := p.discounts[typeID]; ok && now.Before(d.ExpiresAt) {
		return d.Multiplier
	}
	if d, ok := p.discounts["all"]; ok && now.Before(d.ExpiresAt) {
		return d.Multiplier
	}
	return 1.0
}

func (p *Pool) sweepDiscounts() {
	now := p.now()
	for id, d := range p.discounts {
		if now.After(d.ExpiresAt) {
			delete(p.discounts, id)
		}
	}
}

func (p *Pool) byID(id string) *Worker {
	for _, w := range p.workers {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (p *Pool) notify(level bus.NotifyLevel, msg string) {
	p.bus.Publish(bus.TopicNotify, bus.Notify{Level: level, Message: msg})
}

type snapshot struct {
	Workers   []*Worker           `json:"workers"`
	Discounts map[string]Discount `json:"discounts"`
	WageDebt  float64             `json:"wage_debt"`
}

// Component names the pool in save snapshots.
func (p *Pool) Component() string { return "workforce" }

// Snapshot serializes workers, discounts, and wage debt.
func (p *Pool) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{Workers: p.workers, Discounts: p.discounts, WageDebt: p.wageDebt})
}

// Restore replaces pool state, dropping workers of unknown types.
func (p *Pool) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	p.workers = nil
	for _, w := range s.Workers {
		if w == nil {
			continue
		}
		if _, ok := gamedata.WorkerTypeByID(w.TypeID); !ok {
			slog.Warn("dropping saved worker of unknown type", "type", w.TypeID)
			continue
		}
		p.workers = append(p.workers, w)
	}
	p.discounts = s.Discounts
	if p.discounts == nil {
		p.discounts = make(map[string]Discount)
	}
	p.wageDebt = math.Max(0, s.WageDebt)
	return nil
}

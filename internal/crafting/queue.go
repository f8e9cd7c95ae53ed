// Package crafting owns the production pipeline: one active job advancing
// per tick plus a FIFO backlog. Resources, fuel, and tool wear are
// reserved at start time; cancellation refunds by completion fraction.
package crafting

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/forge"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
	"github.com/ironquill/forgeward/internal/toolwear"
)

// JobState is the explicit job lifecycle. Queued jobs sit in the backlog;
// at most one job is Active or Paused at a time. Completed and Canceled
// are terminal.
type JobState uint8

const (
	JobQueued JobState = iota
	JobActive
	JobPaused
	JobCompleted
	JobCanceled
)

// String names the state for logs and payloads.
func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobActive:
		return "active"
	case JobPaused:
		return "paused"
	case JobCompleted:
		return "completed"
	case JobCanceled:
		return "canceled"
	}
	return "unknown"
}

// PauseReasonFuel is the only pause cause the pipeline produces.
const PauseReasonFuel = "insufficient fuel"

// Job is one crafting request moving through the pipeline.
type Job struct {
	ID          string   `json:"id"`
	ItemID      string   `json:"item_id"`
	Quantity    int      `json:"quantity"` // requested multiples of the recipe
	OutputQty   int      `json:"output_qty"`
	Progress    float64  `json:"progress"`
	Duration    float64  `json:"duration"`
	Rate        float64  `json:"rate"` // progress per tick, fixed at start
	WorkerID    string   `json:"worker_id,omitempty"`
	State       JobState `json:"state"`
	PauseReason string   `json:"pause_reason,omitempty"`
}

func (j *Job) pause(reason string) {
	j.State = JobPaused
	j.PauseReason = reason
}

func (j *Job) resume() {
	j.State = JobActive
	j.PauseReason = ""
}

// Fraction returns completion progress in [0, 1].
func (j *Job) Fraction() float64 {
	if j.Duration <= 0 {
		return 1
	}
	return math.Min(j.Progress/j.Duration, 1)
}

// Queue is the production pipeline.
type Queue struct {
	bus  *bus.Bus
	led  *ledger.Ledger
	frg  *forge.Forge
	wear *toolwear.Manager
	cat  Unlocks

	current *Job
	backlog []*Job
	speed   float64
}

// Unlocks is the narrow blueprint capability the pipeline needs.
type Unlocks interface {
	IsUnlocked(itemID string) bool
}

// New wires the pipeline and subscribes it to forge refills so a
// fuel-paused job resumes the moment fuel is restored.
func New(b *bus.Bus, led *ledger.Ledger, frg *forge.Forge, wear *toolwear.Manager, cat Unlocks) *Queue {
	q := &Queue{bus: b, led: led, frg: frg, wear: wear, cat: cat, speed: 1.0}
	b.Subscribe(bus.TopicCoalRefilled, func(any) { q.resumeIfFuelPaused() })
	return q
}

// SpeedMultiplier returns the progress rate stamped onto newly started
// jobs.
func (q *Queue) SpeedMultiplier() float64 { return q.speed }

// SetSpeedMultiplier overrides the rate given to jobs started after the
// call; jobs already in flight keep the rate they started with. Callers
// using a transient override (worker-assisted crafts) must restore the
// previous value afterwards.
func (q *Queue) SetSpeedMultiplier(m float64) {
	if m > 0 {
		q.speed = m
	}
}

// CurrentJob returns a copy of the active job, or nil.
func (q *Queue) CurrentJob() *Job {
	if q.current == nil {
		return nil
	}
	c := *q.current
	return &c
}

// QueuedJobs returns copies of the backlog in order.
func (q *Queue) QueuedJobs() []Job {
	out := make([]Job, len(q.backlog))
	for i, j := range q.backlog {
		out[i] = *j
	}
	return out
}

// Idle reports whether nothing is active and the backlog is empty,
// the signal worker-initiated crafts wait for.
func (q *Queue) Idle() bool {
	return q.current == nil && len(q.backlog) == 0
}

// CanCraft mirrors StartCrafting's validation order without mutating
// anything; the first failed check wins.
func (q *Queue) CanCraft(itemID string) (bool, string) {
	def, ok := gamedata.ItemByID(itemID)
	if !ok {
		return false, "unknown item"
	}
	if !q.cat.IsUnlocked(itemID) {
		return false, "blueprint not unlocked"
	}
	if missing := q.wear.MissingTools(def); len(missing) > 0 {
		return false, "missing tools: " + strings.Join(missing, ", ")
	}
	if !q.led.HasMaterials(def.Materials) {
		return false, "insufficient materials"
	}
	if q.frg.Level() < def.FuelCost {
		return false, PauseReasonFuel
	}
	return true, ""
}

// StartCrafting validates, reserves, and enqueues a crafting request.
// Materials are debited for every requested multiple; the recipe's flat
// fuel cost is drawn once. The job becomes active immediately when
// nothing else is, otherwise it joins the backlog.
func (q *Queue) StartCrafting(itemID string, quantity int, workerID string) (bool, string) {
	if quantity <= 0 {
		return false, "invalid quantity"
	}
	def, ok := gamedata.ItemByID(itemID)
	if !ok {
		return false, "unknown item"
	}
	if !q.cat.IsUnlocked(itemID) {
		q.notifyFail(def, "blueprint not unlocked")
		return false, "blueprint not unlocked"
	}
	if missing := q.wear.MissingTools(def); len(missing) > 0 {
		reason := "missing tools: " + strings.Join(missing, ", ")
		q.notifyFail(def, reason)
		return false, reason
	}
	needed := scaleMaterials(def.Materials, quantity)
	if !q.led.HasMaterials(needed) {
		q.notifyFail(def, "insufficient materials")
		return false, "insufficient materials"
	}
	if !q.frg.ConsumeCoal(def.FuelCost) {
		q.notifyFail(def, PauseReasonFuel)
		return false, PauseReasonFuel
	}
	q.led.ConsumeMaterials(needed)

	job := &Job{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		Quantity:  quantity,
		OutputQty: quantity * def.OutputPerUnit(),
		Duration:  def.CraftingTime * float64(quantity),
		Rate:      q.speed,
		WorkerID:  workerID,
		State:     JobQueued,
	}

	queued := q.current != nil
	if queued {
		q.backlog = append(q.backlog, job)
		q.publishQueue()
	} else {
		job.State = JobActive
		q.current = job
	}

	q.bus.Publish(bus.TopicCraftingStarted, bus.CraftingStarted{
		JobID:    job.ID,
		ItemID:   itemID,
		ItemName: def.Name,
		Quantity: quantity,
		WorkerID: workerID,
		Queued:   queued,
	})
	slog.Info("crafting started", "item", itemID, "quantity", quantity, "queued", queued, "worker", workerID)
	return true, ""
}

// Update advances the pipeline one tick: promote, pause on dry fuel, or
// progress and complete.
func (q *Queue) Update() {
	if q.current == nil {
		q.promote()
		if q.current == nil {
			return
		}
	}

	job := q.current
	if job.State == JobPaused {
		return
	}

	if q.frg.Level() <= 0 {
		job.pause(PauseReasonFuel)
		q.bus.Publish(bus.TopicCraftingPaused, bus.CraftingPaused{
			ItemID: job.ItemID,
			Reason: job.PauseReason,
		})
		q.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyWarning,
			Message: "Crafting paused: the forge is out of coal.",
		})
		return
	}

	rate := job.Rate
	if rate <= 0 {
		// Jobs from saves predating the per-job rate default to normal speed.
		rate = 1
	}
	job.Progress += rate
	q.bus.Publish(bus.TopicCraftingProgress, bus.CraftingProgress{
		ItemID:     job.ItemID,
		Progress:   job.Progress,
		Total:      job.Duration,
		Percentage: job.Fraction() * 100,
	})

	if job.Progress >= job.Duration {
		q.complete(job)
	}
}

func (q *Queue) complete(job *Job) {
	def, ok := gamedata.ItemByID(job.ItemID)
	if !ok {
		// Reference data changed under a live save; drop the job.
		slog.Warn("completing job for unknown item, output lost", "item", job.ItemID)
		q.current = nil
		q.promote()
		return
	}

	q.wear.UseToolsForItem(def)

	if def.IsTool() {
		q.led.AddOrReplaceTool(def.CreatesTool, def.MaxUses)
	} else {
		q.led.AddItem(job.ItemID, job.OutputQty)
	}

	job.State = JobCompleted
	q.current = nil

	q.bus.Publish(bus.TopicCraftingCompleted, bus.CraftingCompleted{
		ItemID:   job.ItemID,
		ItemName: def.Name,
		Quantity: job.OutputQty,
		WorkerID: job.WorkerID,
	})
	q.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifySuccess,
		Message: fmt.Sprintf("Finished crafting %d× %s.", job.OutputQty, def.Name),
	})
	slog.Info("crafting completed", "item", job.ItemID, "output", job.OutputQty)

	q.promote()
}

// CancelCurrentCraft cancels the active job. Materials are refunded only
// below 50% completion, scaled by the uncrafted fraction and truncated
// per material to whole units. The next queued job is promoted.
func (q *Queue) CancelCurrentCraft() bool {
	job := q.current
	if job == nil {
		return false
	}

	def, _ := gamedata.ItemByID(job.ItemID)
	fraction := job.Fraction()
	if fraction < 0.5 {
		ratio := 1 - fraction
		for id, qty := range scaleMaterials(def.Materials, job.Quantity) {
			refund := math.Trunc(qty * ratio)
			if refund > 0 {
				q.led.AddMaterial(id, refund)
			}
		}
	}

	job.State = JobCanceled
	q.current = nil
	q.bus.Publish(bus.TopicCraftingCanceled, bus.CraftingCanceled{ItemName: def.Name})
	slog.Info("crafting canceled", "item", job.ItemID, "fraction", fraction)

	q.promote()
	return true
}

// CancelQueuedCraft removes a backlog entry with a full material refund
// and no tool wear. The active job is unaffected.
func (q *Queue) CancelQueuedCraft(index int) bool {
	if index < 0 || index >= len(q.backlog) {
		return false
	}
	job := q.backlog[index]
	q.backlog = append(q.backlog[:index], q.backlog[index+1:]...)

	def, _ := gamedata.ItemByID(job.ItemID)
	for id, qty := range scaleMaterials(def.Materials, job.Quantity) {
		q.led.AddMaterial(id, qty)
	}
	job.State = JobCanceled

	q.bus.Publish(bus.TopicCraftingCanceled, bus.CraftingCanceled{ItemName: def.Name})
	q.publishQueue()
	return true
}

func (q *Queue) promote() {
	if len(q.backlog) == 0 {
		return
	}
	next := q.backlog[0]
	q.backlog = q.backlog[1:]
	next.State = JobActive
	q.current = next
	q.publishQueue()
}

func (q *Queue) resumeIfFuelPaused() {
	job := q.current
	if job == nil || job.State != JobPaused || job.PauseReason != PauseReasonFuel {
		return
	}
	job.resume()
	q.bus.Publish(bus.TopicCraftingResumed, bus.CraftingResumed{ItemID: job.ItemID})
}

func (q *Queue) publishQueue() {
	view := make([]bus.QueuedJob, len(q.backlog))
	for i, j := range q.backlog {
		name := j.ItemID
		if def, ok := gamedata.ItemByID(j.ItemID); ok {
			name = def.Name
		}
		view[i] = bus.QueuedJob{JobID: j.ID, ItemID: j.ItemID, ItemName: name, Quantity: j.Quantity}
	}
	q.bus.Publish(bus.TopicCraftingQueueUpdated, bus.CraftingQueueUpdated{Queue: view})
}

func (q *Queue) notifyFail(def gamedata.ItemDef, reason string) {
	q.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifyError,
		Message: fmt.Sprintf("Cannot craft %s: %s.", def.Name, reason),
	})
}

func scaleMaterials(materials map[string]float64, quantity int) map[string]float64 {
	out := make(map[string]float64, len(materials))
	for id, qty := range materials {
		out[id] = qty * float64(quantity)
	}
	return out
}

type snapshot struct {
	Current *Job    `json:"current,omitempty"`
	Backlog []*Job  `json:"backlog"`
	Speed   float64 `json:"speed"`
}

// Component names the pipeline in save snapshots.
func (q *Queue) Component() string { return "crafting" }

// Snapshot serializes the active job, backlog, and speed.
func (q *Queue) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{Current: q.current, Backlog: q.backlog, Speed: q.speed})
}

// Restore replaces the pipeline state, dropping jobs whose recipes no
// longer exist.
func (q *Queue) Restore(raw json.RawMessage) error {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	q.current = nil
	if s.Current != nil {
		if _, ok := gamedata.ItemByID(s.Current.ItemID); ok {
			q.current = s.Current
		} else {
			slog.Warn("dropping saved job for unknown item", "item", s.Current.ItemID)
		}
	}
	q.backlog = nil
	for _, j := range s.Backlog {
		if _, ok := gamedata.ItemByID(j.ItemID); ok {
			q.backlog = append(q.backlog, j)
		} else {
			slog.Warn("dropping saved job for unknown item", "item", j.ItemID)
		}
	}
	if s.Speed > 0 {
		q.speed = s.Speed
	}
	return nil
}

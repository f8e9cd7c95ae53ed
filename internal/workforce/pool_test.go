package workforce

import (
	"testing"
	"time"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/catalog"
	"github.com/ironquill/forgeward/internal/crafting"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/forge"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
	"github.com/ironquill/forgeward/internal/toolwear"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	bus   *bus.Bus
	led   *ledger.Ledger
	frg   *forge.Forge
	queue *crafting.Queue
	pool  *Pool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := bus.New()
	led := ledger.New(b)
	frg := forge.New(b, led)
	wear := toolwear.New(led)
	cat := catalog.New(b, led)
	queue := crafting.New(b, led, frg, wear, cat)
	pool := New(b, led, queue, frg, &entropy.Sequence{})
	pool.SetNowFunc(func() time.Time { return testEpoch })
	led.SetNowFunc(func() time.Time { return testEpoch })
	return &fixture{bus: b, led: led, frg: frg, queue: queue, pool: pool}
}

func (f *fixture) hire(t *testing.T, typeID string) *Worker {
	t.Helper()
	f.led.AddMoney(gamedata.WorkerTypes[typeID].HireCost)
	if ok, reason := f.pool.Hire(typeID); !ok {
		t.Fatalf("hire failed: %s", reason)
	}
	return f.pool.workers[len(f.pool.workers)-1]
}

func TestHireDebitsDiscountedCost(t *testing.T) {
	f := newFixture(t)
	f.led.AddMoney(100)
	f.pool.SetHiringDiscount("apprentice", 0.5, testEpoch.Add(time.Hour))

	// apprentice hire cost 20, discounted to 10
	if cost, ok := f.pool.HireCost("apprentice"); !ok || cost != 10 {
		t.Fatalf("discounted cost = %f, want 10", cost)
	}
	if ok, reason := f.pool.Hire("apprentice"); !ok {
		t.Fatalf("hire failed: %s", reason)
	}
	if f.led.Money() != 90 {
		t.Fatalf("expected balance 90, got %f", f.led.Money())
	}
	if len(f.pool.Workers()) != 1 {
		t.Fatalf("worker not added")
	}
}

func TestTypeDiscountBeatsAllDiscount(t *testing.T) {
	f := newFixture(t)
	later := testEpoch.Add(time.Hour)
	f.pool.SetHiringDiscount("all", 0.9, later)
	f.pool.SetHiringDiscount("journeyman", 0.5, later)

	if cost, _ := f.pool.HireCost("journeyman"); cost != 30 {
		t.Fatalf("type discount should win, got %f", cost)
	}
	if cost, _ := f.pool.HireCost("apprentice"); cost != 18 {
		t.Fatalf("all discount should apply, got %f", cost)
	}
}

func TestExpiredDiscountIsNeutral(t *testing.T) {
	f := newFixture(t)
	f.pool.SetHiringDiscount("apprentice", 0.5, testEpoch.Add(-time.Minute))
	if cost, _ := f.pool.HireCost("apprentice"); cost != 20 {
		t.Fatalf("expired discount should be neutral, got %f", cost)
	}
}

func TestHireRejections(t *testing.T) {
	f := newFixture(t)
	if ok, reason := f.pool.Hire("wizard"); ok || reason != "unknown worker type" {
		t.Fatalf("got %v %q", ok, reason)
	}
	if ok, reason := f.pool.Hire("apprentice"); ok || reason != "insufficient funds" {
		t.Fatalf("got %v %q", ok, reason)
	}
}

func TestWageShortfallAccruesDebtAndBlocksHiring(t *testing.T) {
	f := newFixture(t)
	f.hire(t, "apprentice") // salary 5, balance now 0

	f.bus.Publish(bus.TopicTimeNewDay, bus.TimeNewDay{Day: 2})
	if got := f.pool.WageDebt(); got != 5 {
		t.Fatalf("expected 5 coins of debt, got %f", got)
	}

	f.led.AddMoney(100)
	if ok, reason := f.pool.Hire("apprentice"); ok || reason != "outstanding wages" {
		t.Fatalf("hiring must be blocked while in debt, got %v %q", ok, reason)
	}

	// Next payday clears the debt first, then the day's payroll.
	f.bus.Publish(bus.TopicTimeNewDay, bus.TimeNewDay{Day: 3})
	if f.pool.WageDebt() != 0 {
		t.Fatalf("debt should be cleared, got %f", f.pool.WageDebt())
	}
	if f.led.Money() != 90 {
		t.Fatalf("expected 100-5-5=90, got %f", f.led.Money())
	}
	if ok, _ := f.pool.Hire("apprentice"); !ok {
		t.Fatalf("hiring should resume once wages are settled")
	}
}

func TestAssignTaskRejections(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice")

	if ok, reason := f.pool.AssignTask("nobody", Task{Kind: TaskFuel}); ok || reason != "unknown worker" {
		t.Fatalf("got %v %q", ok, reason)
	}
	if ok, reason := f.pool.AssignTask(w.ID, Task{Kind: TaskCraft}); ok || reason != "crafting task needs an item" {
		t.Fatalf("got %v %q", ok, reason)
	}

	f.pool.SetResting(w.ID, true)
	if ok, reason := f.pool.AssignTask(w.ID, Task{Kind: TaskFuel}); ok || reason != "worker is resting" {
		t.Fatalf("got %v %q", ok, reason)
	}

	f.pool.SetResting(w.ID, false)
	w.Fatigue = gamedata.WorkerTypes["apprentice"].MaxFatigue
	if ok, reason := f.pool.AssignTask(w.ID, Task{Kind: TaskFuel}); ok || reason != "worker is exhausted" {
		t.Fatalf("got %v %q", ok, reason)
	}
}

func TestExhaustionForcesRest(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice")
	w.Task = Task{Kind: TaskFuel}
	w.Fatigue = gamedata.WorkerTypes["apprentice"].MaxFatigue

	var forced []bus.WorkerResting
	f.bus.Subscribe(bus.TopicWorkerResting, func(p any) {
		forced = append(forced, p.(bus.WorkerResting))
	})

	f.pool.Update()
	if w.Status != Resting || w.Task.Kind != TaskNone {
		t.Fatalf("exhausted worker should be forced to rest, got %+v", w)
	}
	if len(forced) != 1 || !forced[0].Forced {
		t.Fatalf("expected a forced rest event, got %v", forced)
	}
}

func TestRestingRecoversToIdle(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice") // recovery rate 1.0 so 0.2 per tick
	w.Fatigue = 0.4
	f.pool.SetResting(w.ID, true)

	var rested []bus.WorkerResting
	f.bus.Subscribe(bus.TopicWorkerResting, func(p any) {
		rested = append(rested, p.(bus.WorkerResting))
	})

	f.pool.Update()
	if w.Status != Resting {
		t.Fatalf("still tired, should keep resting")
	}
	f.pool.Update()
	if w.Fatigue != 0 || w.Status != Idle {
		t.Fatalf("expected full recovery to idle, got %+v", w)
	}
	if len(rested) != 1 || rested[0].Resting {
		t.Fatalf("expected one wake-up event, got %v", rested)
	}
}

func TestHighFatigueWarnsOnceAndRearms(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice") // max fatigue 100, warn at 80

	warnings := 0
	f.bus.Subscribe(bus.TopicNotify, func(p any) {
		if p.(bus.Notify).Level == bus.NotifyWarning {
			warnings++
		}
	})

	w.Fatigue = 79.95
	f.pool.Update() // idle accrual pushes past 80
	f.pool.Update()
	if warnings != 1 {
		t.Fatalf("expected one high-fatigue warning, got %d", warnings)
	}

	w.Fatigue = 40 // below the re-arm line
	f.pool.Update()
	w.Fatigue = 79.95
	f.pool.Update()
	if warnings != 2 {
		t.Fatalf("warning should re-arm below half fatigue, got %d", warnings)
	}
}

func TestFuelWatchRefillsTheForge(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice")
	f.pool.AssignTask(w.ID, Task{Kind: TaskFuel})

	f.led.AddMaterial("coal", forge.CoalUnitsPerFill)
	f.frg.SetLevel(15)
	f.pool.Update()
	if f.frg.Level() != forge.MaxLevel {
		t.Fatalf("fuel watcher should refill, gauge at %f", f.frg.Level())
	}
	if w.Status != Working {
		t.Fatalf("watcher should report working")
	}
	if w.Fatigue != fuelFatiguePer {
		t.Fatalf("fuel duty fatigue = %f, want %f", w.Fatigue, fuelFatiguePer)
	}
}

func TestCraftTaskStartsWhenQueueIdle(t *testing.T) {
	f := newFixture(t)
	f.led.AddMaterial("iron", 10)
	f.led.AddOrReplaceTool("hammer", 0)
	f.led.AddOrReplaceTool("anvil", 0)
	w := f.hire(t, "apprentice")
	f.pool.AssignTask(w.ID, Task{Kind: TaskCraft, ItemID: "nail"})

	f.pool.Update()
	cur := f.queue.CurrentJob()
	if cur == nil || cur.WorkerID != w.ID || cur.ItemID != "nail" {
		t.Fatalf("worker craft not started: %+v", cur)
	}
	if w.Status != Working {
		t.Fatalf("worker should be working")
	}
	if f.queue.SpeedMultiplier() != 1.0 {
		t.Fatalf("speed override must be restored, got %f", f.queue.SpeedMultiplier())
	}

	// The pipeline is busy now; the next tick must not queue a second job.
	f.pool.Update()
	if len(f.queue.QueuedJobs()) != 0 {
		t.Fatalf("worker crafts must wait for an idle pipeline")
	}
}

func TestMasterCraftFinishesEarly(t *testing.T) {
	f := newFixture(t)
	f.led.AddMaterial("iron", 10)
	f.led.AddOrReplaceTool("hammer", 0)
	f.led.AddOrReplaceTool("anvil", 0)
	w := f.hire(t, "master")
	f.pool.AssignTask(w.ID, Task{Kind: TaskCraft, ItemID: "nail"})
	f.pool.Update()

	cur := f.queue.CurrentJob()
	if cur == nil {
		t.Fatalf("craft not started")
	}
	if want := gamedata.WorkerTypes["master"].Speed; cur.Rate != want {
		t.Fatalf("job rate = %f, want the master's speed %f", cur.Rate, want)
	}

	// duration 10 at speed 1.6 completes on the 7th tick, not the 10th
	for i := 0; i < 7; i++ {
		f.queue.Update()
	}
	if f.queue.CurrentJob() != nil {
		t.Fatalf("master-assisted craft still running after 7 ticks")
	}
	if f.led.ItemQuantity("nail") == 0 {
		t.Fatalf("craft produced no output")
	}
}

func TestCraftTaskClearsOnFailure(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice")
	f.pool.AssignTask(w.ID, Task{Kind: TaskCraft, ItemID: "sword"}) // locked

	f.pool.Update()
	if w.Task.Kind != TaskNone || w.Status != Idle {
		t.Fatalf("failed craft should clear the task, got %+v", w)
	}
}

func TestFireRemovesWorker(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "apprentice")
	if !f.pool.Fire(w.ID) {
		t.Fatalf("fire failed")
	}
	if len(f.pool.Workers()) != 0 {
		t.Fatalf("worker still on the books")
	}
	if f.pool.Fire(w.ID) {
		t.Fatalf("firing twice should fail")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t)
	w := f.hire(t, "journeyman")
	w.Fatigue = 12.5
	f.pool.AssignTask(w.ID, Task{Kind: TaskFuel})
	f.pool.SetHiringDiscount("all", 0.8, testEpoch.Add(time.Hour))
	f.pool.wageDebt = 7

	raw, err := f.pool.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	g := newFixture(t)
	if err := g.pool.Restore(raw); err != nil {
		t.Fatalf("restore: %v", err)
	}
	ws := g.pool.Workers()
	if len(ws) != 1 || ws[0].Fatigue != 12.5 || ws[0].Task.Kind != TaskFuel {
		t.Fatalf("worker state lost: %+v", ws)
	}
	if g.pool.WageDebt() != 7 {
		t.Fatalf("wage debt lost: %f", g.pool.WageDebt())
	}
	if cost, _ := g.pool.HireCost("apprentice"); cost != 16 {
		t.Fatalf("discount lost, cost %f", cost)
	}
}

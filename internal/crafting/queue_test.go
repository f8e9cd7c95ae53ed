package crafting

import (
	"testing"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/catalog"
	"github.com/ironquill/forgeward/internal/forge"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
	"github.com/ironquill/forgeward/internal/toolwear"
)

type fixture struct {
	bus *bus.Bus
	led *ledger.Ledger
	frg *forge.Forge
	cat *catalog.Registry
	q   *Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := bus.New()
	led := ledger.New(b)
	frg := forge.New(b, led)
	wear := toolwear.New(led)
	cat := catalog.New(b, led)
	led.AddMaterial("iron", 50)
	led.AddMaterial("wood", 30)
	led.AddOrReplaceTool("hammer", 0)
	led.AddOrReplaceTool("anvil", 0)
	return &fixture{bus: b, led: led, frg: frg, cat: cat, q: New(b, led, frg, wear, cat)}
}

func TestNailCraftReservesOnceAndBatches(t *testing.T) {
	f := newFixture(t)

	// nail: 0.2 iron, 1 fuel, 10 ticks, batch of 10
	ok, reason := f.q.StartCrafting("nail", 1, "")
	if !ok {
		t.Fatalf("start failed: %s", reason)
	}
	if got := f.led.MaterialQuantity("iron"); got != 49.8 {
		t.Fatalf("iron debited wrong: %f", got)
	}
	if f.frg.Level() != 99 {
		t.Fatalf("fuel should be drawn once at start, got %f", f.frg.Level())
	}

	for i := 0; i < 9; i++ {
		f.q.Update()
	}
	if f.led.ItemQuantity("nail") != 0 {
		t.Fatalf("nails appeared before the job finished")
	}
	if f.frg.Level() != 99 {
		t.Fatalf("progress ticks must not draw fuel, got %f", f.frg.Level())
	}

	f.q.Update() // tick 10 completes
	if got := f.led.ItemQuantity("nail"); got != 10 {
		t.Fatalf("expected a batch of 10 nails, got %d", got)
	}
	if f.q.CurrentJob() != nil {
		t.Fatalf("pipeline should be empty after completion")
	}
}

func TestJobKeepsItsStartRate(t *testing.T) {
	f := newFixture(t)

	f.q.SetSpeedMultiplier(2.0)
	ok, reason := f.q.StartCrafting("nail", 1, "")
	if !ok {
		t.Fatalf("start failed: %s", reason)
	}
	f.q.SetSpeedMultiplier(1.0)

	cur := f.q.CurrentJob()
	if cur.Rate != 2.0 {
		t.Fatalf("job rate = %f, want the multiplier at start time", cur.Rate)
	}

	// duration 10 at rate 2 completes on the 5th tick
	for i := 0; i < 4; i++ {
		f.q.Update()
	}
	if f.led.ItemQuantity("nail") != 0 {
		t.Fatalf("job finished too early")
	}
	f.q.Update()
	if got := f.led.ItemQuantity("nail"); got != 10 {
		t.Fatalf("fast job should be done on tick 5, have %d nails", got)
	}
}

func TestCompletionWearsTools(t *testing.T) {
	f := newFixture(t)
	f.q.StartCrafting("nail", 1, "")
	for i := 0; i < 10; i++ {
		f.q.Update()
	}
	hammer := f.led.Tools()["hammer"]
	if want := gamedata.Tools["hammer"].MaxUses - 1; hammer.Uses != want {
		t.Fatalf("hammer uses = %f, want %f", hammer.Uses, want)
	}
}

func TestLockedBlueprintDebitsNothing(t *testing.T) {
	f := newFixture(t)
	f.led.AddMaterial("steel", 10)
	f.led.AddMaterial("leather", 10)

	ok, reason := f.q.StartCrafting("sword", 1, "")
	if ok || reason != "blueprint not unlocked" {
		t.Fatalf("unexpected result %v %q", ok, reason)
	}
	if f.led.MaterialQuantity("steel") != 10 || f.frg.Level() != forge.MaxLevel {
		t.Fatalf("rejected start must not touch resources")
	}
}

func TestBacklogIsFIFO(t *testing.T) {
	f := newFixture(t)

	f.q.StartCrafting("nail", 1, "")
	f.q.StartCrafting("horseshoe", 1, "")
	f.q.StartCrafting("hook", 1, "")

	if f.q.CurrentJob().ItemID != "nail" {
		t.Fatalf("first job should be active")
	}
	queued := f.q.QueuedJobs()
	if len(queued) != 2 || queued[0].ItemID != "horseshoe" || queued[1].ItemID != "hook" {
		t.Fatalf("backlog out of order: %v", queued)
	}

	for i := 0; i < 10; i++ {
		f.q.Update()
	}
	if cur := f.q.CurrentJob(); cur == nil || cur.ItemID != "horseshoe" {
		t.Fatalf("expected horseshoe promoted, got %v", cur)
	}
	if len(f.q.QueuedJobs()) != 1 {
		t.Fatalf("backlog should shrink on promotion")
	}
}

func TestFuelPauseAndResumeOnRefill(t *testing.T) {
	f := newFixture(t)
	f.q.StartCrafting("nail", 1, "")
	f.q.Update()

	paused := 0
	resumed := 0
	f.bus.Subscribe(bus.TopicCraftingPaused, func(any) { paused++ })
	f.bus.Subscribe(bus.TopicCraftingResumed, func(any) { resumed++ })

	f.frg.SetLevel(0)
	f.q.Update()
	cur := f.q.CurrentJob()
	if cur.State != JobPaused || cur.PauseReason != PauseReasonFuel {
		t.Fatalf("expected fuel pause, got %+v", cur)
	}
	if paused != 1 {
		t.Fatalf("expected one pause event, got %d", paused)
	}

	progressBefore := cur.Progress
	f.q.Update()
	if f.q.CurrentJob().Progress != progressBefore {
		t.Fatalf("paused job must not advance")
	}

	f.led.AddMaterial("coal", forge.CoalUnitsPerFill)
	if !f.frg.Refill() {
		t.Fatalf("refill failed")
	}
	if resumed != 1 {
		t.Fatalf("refill should resume the paused job, got %d resumes", resumed)
	}
	if f.q.CurrentJob().State != JobActive {
		t.Fatalf("job should be active after resume")
	}
}

func TestCancelEarlyRefundsTruncated(t *testing.T) {
	f := newFixture(t)

	// horseshoe x4: 4 iron consumed, duration 100 ticks.
	f.q.StartCrafting("horseshoe", 4, "")
	if f.led.MaterialQuantity("iron") != 46 {
		t.Fatalf("iron debit wrong: %f", f.led.MaterialQuantity("iron"))
	}
	for i := 0; i < 10; i++ { // 10% done
		f.q.Update()
	}
	if !f.q.CancelCurrentCraft() {
		t.Fatalf("cancel failed")
	}
	// refund trunc(4 * 0.9) = 3
	if got := f.led.MaterialQuantity("iron"); got != 49 {
		t.Fatalf("expected 49 iron after refund, got %f", got)
	}
}

func TestCancelLateRefundsNothing(t *testing.T) {
	f := newFixture(t)
	f.q.StartCrafting("horseshoe", 4, "")
	for i := 0; i < 60; i++ { // 60% done
		f.q.Update()
	}
	f.q.CancelCurrentCraft()
	if got := f.led.MaterialQuantity("iron"); got != 46 {
		t.Fatalf("late cancel should forfeit materials, got %f iron", got)
	}
}

func TestCancelQueuedRefundsInFull(t *testing.T) {
	f := newFixture(t)
	f.q.StartCrafting("nail", 1, "")
	f.q.StartCrafting("horseshoe", 4, "")

	if !f.q.CancelQueuedCraft(0) {
		t.Fatalf("cancel queued failed")
	}
	if got := f.led.MaterialQuantity("iron"); got != 49.8 {
		t.Fatalf("queued cancel should refund all materials, got %f", got)
	}
	if cur := f.q.CurrentJob(); cur == nil || cur.ItemID != "nail" {
		t.Fatalf("active job must survive a queued cancel")
	}
	if f.q.CancelQueuedCraft(5) {
		t.Fatalf("out-of-range index should fail")
	}
}

func TestCanCraftChecksInOrder(t *testing.T) {
	f := newFixture(t)

	if ok, reason := f.q.CanCraft("no-such-item"); ok || reason != "unknown item" {
		t.Fatalf("got %v %q", ok, reason)
	}
	if ok, reason := f.q.CanCraft("sword"); ok || reason != "blueprint not unlocked" {
		t.Fatalf("got %v %q", ok, reason)
	}

	f.cat.Unlock("candlestick") // needs a chisel we do not own
	if ok, reason := f.q.CanCraft("candlestick"); ok || reason != "missing tools: chisel" {
		t.Fatalf("got %v %q", ok, reason)
	}

	f.led.RemoveMaterial("iron", 50)
	if ok, reason := f.q.CanCraft("nail"); ok || reason != "insufficient materials" {
		t.Fatalf("got %v %q", ok, reason)
	}

	f.led.AddMaterial("iron", 1)
	f.frg.SetLevel(0.5)
	if ok, reason := f.q.CanCraft("nail"); ok || reason != PauseReasonFuel {
		t.Fatalf("got %v %q", ok, reason)
	}
}

func TestToolRecipeProducesTool(t *testing.T) {
	f := newFixture(t)
	f.led.UseTool("hammer", 40) // worn down to 10 uses

	f.q.StartCrafting("hammer", 1, "")
	for i := 0; i < 50; i++ {
		f.q.Update()
	}
	hammer, ok := f.led.Tools()["hammer"]
	if !ok {
		t.Fatalf("expected a fresh hammer")
	}
	// Completion wears the old hammer by the recipe's tier, then the
	// fresh one replaces it at full durability.
	if hammer.Uses != gamedata.Items["hammer"].MaxUses {
		t.Fatalf("replacement hammer should be pristine, got %f", hammer.Uses)
	}
	if f.led.ItemQuantity("hammer") != 0 {
		t.Fatalf("tool recipes must not stock sellable items")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.q.StartCrafting("nail", 1, "")
	f.q.StartCrafting("horseshoe", 2, "")
	f.q.Update()
	f.q.Update()

	raw, err := f.q.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	g := newFixture(t)
	if err := g.q.Restore(raw); err != nil {
		t.Fatalf("restore: %v", err)
	}
	cur := g.q.CurrentJob()
	if cur == nil || cur.ItemID != "nail" || cur.Progress != 2 {
		t.Fatalf("active job lost in round trip: %+v", cur)
	}
	queued := g.q.QueuedJobs()
	if len(queued) != 1 || queued[0].ItemID != "horseshoe" {
		t.Fatalf("backlog lost in round trip: %v", queued)
	}
}

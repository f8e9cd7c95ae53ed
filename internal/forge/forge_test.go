package forge

import (
	"testing"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/ledger"
)

func newForge() (*Forge, *ledger.Ledger, *bus.Bus) {
	b := bus.New()
	led := ledger.New(b)
	return New(b, led), led, b
}

func TestDepletionWarnsOnceAndClampsAtZero(t *testing.T) {
	f, _, b := newForge() // no coal in the ledger, so no auto-refill
	f.SetLevel(25)

	lowEvents := 0
	b.Subscribe(bus.TopicCoalLow, func(any) { lowEvents++ })

	for i := 0; i < 10; i++ {
		f.Update()
	}
	if f.Level() != 20 {
		t.Fatalf("expected level 20 after 10 ticks, got %f", f.Level())
	}
	if lowEvents != 1 {
		t.Fatalf("expected exactly one coal:low, got %d", lowEvents)
	}

	f.Update()
	if f.Level() != 19.5 {
		t.Fatalf("expected 19.5, got %f", f.Level())
	}
	if lowEvents != 1 {
		t.Fatalf("low warning refired while still in the same episode")
	}

	for i := 0; i < 100; i++ {
		f.Update()
	}
	if f.Level() != 0 {
		t.Fatalf("expected level clamped at 0, got %f", f.Level())
	}
}

func TestRefillResetsWarningEpisode(t *testing.T) {
	f, led, b := newForge()
	f.SetLevel(20)

	lowEvents := 0
	b.Subscribe(bus.TopicCoalLow, func(any) { lowEvents++ })

	f.Update() // warns
	if lowEvents != 1 {
		t.Fatalf("expected one warning, got %d", lowEvents)
	}

	led.AddMaterial("coal", CoalUnitsPerFill)
	if !f.Refill() {
		t.Fatalf("expected refill to succeed")
	}
	if f.Level() != MaxLevel {
		t.Fatalf("expected full gauge, got %f", f.Level())
	}
	if led.MaterialQuantity("coal") != 0 {
		t.Fatalf("expected refill to consume the coal stock")
	}

	// Deplete back into the threshold: warning fires again.
	f.SetLevel(20)
	f.Update()
	if lowEvents != 2 {
		t.Fatalf("expected warning to re-arm after refill, got %d", lowEvents)
	}
}

func TestRefillFailsWhenFullOrShortOnCoal(t *testing.T) {
	f, led, _ := newForge()
	if f.Refill() {
		t.Fatalf("expected refill at full gauge to fail")
	}
	f.SetLevel(50)
	if f.Refill() {
		t.Fatalf("expected refill without coal to fail")
	}
	led.AddMaterial("coal", CoalUnitsPerFill-1)
	if f.Refill() {
		t.Fatalf("expected refill with short coal to fail")
	}
	if f.Level() != 50 {
		t.Fatalf("failed refills must not move the gauge, got %f", f.Level())
	}
}

func TestAutoRefillFromLedgerStock(t *testing.T) {
	f, led, b := newForge()
	led.AddMaterial("coal", CoalUnitsPerFill)
	f.SetLevel(20.3)

	refilled := 0
	b.Subscribe(bus.TopicCoalRefilled, func(any) { refilled++ })

	f.Update() // 19.8, below threshold, coal present
	if f.Level() != MaxLevel {
		t.Fatalf("expected auto-refill to full, got %f", f.Level())
	}
	if refilled != 1 {
		t.Fatalf("expected one refilled event, got %d", refilled)
	}
}

func TestConsumeCoal(t *testing.T) {
	f, _, _ := newForge()
	f.SetLevel(10)
	if f.ConsumeCoal(15) {
		t.Fatalf("expected draw beyond gauge to fail")
	}
	if !f.ConsumeCoal(4) || f.Level() != 6 {
		t.Fatalf("expected level 6, got %f", f.Level())
	}
	if !f.HasEnoughCoal(5) {
		t.Fatalf("expected 6 >= 5")
	}
	if f.HasEnoughCoal(0) { // zero falls back to the default threshold of 20
		t.Fatalf("expected 6 < default threshold")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f, _, _ := newForge()
	f.SetLevel(33.5)
	f.Update()

	raw, err := f.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	g, _, _ := newForge()
	if err := g.Restore(raw); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if g.Level() != f.Level() {
		t.Fatalf("level mismatch after restore: %f vs %f", g.Level(), f.Level())
	}
}

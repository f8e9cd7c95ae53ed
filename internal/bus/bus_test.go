package bus

import "testing"

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := New()
	var got []int
	b.Subscribe(TopicNotify, func(any) { got = append(got, 1) })
	b.Subscribe(TopicNotify, func(any) { got = append(got, 2) })
	b.Subscribe(TopicNotify, func(any) { got = append(got, 3) })

	if !b.Publish(TopicNotify, Notify{}) {
		t.Fatalf("expected hadListeners true")
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected delivery order 1,2,3 got %v", got)
	}
}

func TestPublishWithoutListeners(t *testing.T) {
	b := New()
	if b.Publish(TopicMoneyUpdated, MoneyUpdated{Balance: 5}) {
		t.Fatalf("expected hadListeners false")
	}
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	calls := 0
	unsub := b.Subscribe(TopicCoalLow, func(any) { calls += 100 })
	b.Subscribe(TopicCoalLow, func(any) { calls++ })

	unsub()
	b.Publish(TopicCoalLow, CoalLevel{Level: 10})
	if calls != 1 {
		t.Fatalf("expected only the remaining handler to run, calls=%d", calls)
	}
	// Second call is a no-op.
	unsub()
	b.Publish(TopicCoalLow, CoalLevel{Level: 10})
	if calls != 2 {
		t.Fatalf("expected calls=2 got %d", calls)
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := New()
	ran := false
	b.Subscribe(TopicToolBroken, func(any) { panic("boom") })
	b.Subscribe(TopicToolBroken, func(any) { ran = true })

	b.Publish(TopicToolBroken, ToolBroken{ToolID: "hammer"})
	if !ran {
		t.Fatalf("expected second handler to run after first panicked")
	}
}

func TestUnsubscribeAllAndReset(t *testing.T) {
	b := New()
	b.Subscribe(TopicItemSold, func(any) {})
	b.Subscribe(TopicItemSold, func(any) {})
	b.Subscribe(TopicCoalLow, func(any) {})

	b.UnsubscribeAll(TopicItemSold)
	if b.SubscriberCount(TopicItemSold) != 0 {
		t.Fatalf("expected no item:sold subscribers")
	}
	if b.SubscriberCount(TopicCoalLow) != 1 {
		t.Fatalf("expected coal:low subscriber to survive")
	}

	b.Reset()
	if b.SubscriberCount(TopicCoalLow) != 0 {
		t.Fatalf("expected reset to drop everything")
	}
}

func TestUnsubscribeDuringDispatchKeepsPeers(t *testing.T) {
	b := New()
	calls := 0
	var unsub func()
	unsub = b.Subscribe(TopicNotify, func(any) { unsub() })
	b.Subscribe(TopicNotify, func(any) { calls++ })

	b.Publish(TopicNotify, Notify{})
	if calls != 1 {
		t.Fatalf("expected peer handler to still run, calls=%d", calls)
	}
}

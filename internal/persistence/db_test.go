package persistence

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	components := map[string]json.RawMessage{
		"ledger": json.RawMessage(`{"money":250.5}`),
		"forge":  json.RawMessage(`{"level":80}`),
	}
	if err := s.SaveSlot("slot1", components); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := s.LoadSlot("slot1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(loaded["ledger"]) != `{"money":250.5}` {
		t.Fatalf("ledger sub-document drifted: %s", loaded["ledger"])
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two components, got %d", len(loaded))
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	s := openStore(t)
	s.SaveSlot("auto", map[string]json.RawMessage{"clock": json.RawMessage(`{"day":1}`)})
	s.SaveSlot("auto", map[string]json.RawMessage{"clock": json.RawMessage(`{"day":9}`)})

	loaded, ok, err := s.LoadSlot("auto")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(loaded["clock"]) != `{"day":9}` {
		t.Fatalf("overwrite lost: %s", loaded["clock"])
	}

	slots, err := s.ListSlots()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 1 || slots[0].Slot != "auto" || slots[0].SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected slot list: %+v", slots)
	}
}

func TestAbsentSlotIsNotAnError(t *testing.T) {
	s := openStore(t)
	loaded, ok, err := s.LoadSlot("nothing-here")
	if err != nil {
		t.Fatalf("absent slot must not error: %v", err)
	}
	if ok || loaded != nil {
		t.Fatalf("absent slot should report ok=false")
	}
}

func TestCorruptSlotIsIgnored(t *testing.T) {
	s := openStore(t)
	_, err := s.conn.Exec(
		`INSERT INTO save_slots (slot, schema_version, saved_at, data) VALUES (?, ?, ?, ?)`,
		"bad", SchemaVersion, "2026-03-01T09:00:00Z", "{not json",
	)
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	loaded, ok, err := s.LoadSlot("bad")
	if err != nil || ok || loaded != nil {
		t.Fatalf("corrupt slot should be skipped quietly, got ok=%v err=%v", ok, err)
	}
}

func TestNewerSchemaIsIgnored(t *testing.T) {
	s := openStore(t)
	_, err := s.conn.Exec(
		`INSERT INTO save_slots (slot, schema_version, saved_at, data) VALUES (?, ?, ?, ?)`,
		"future", SchemaVersion+1, "2026-03-01T09:00:00Z", "{}",
	)
	if err != nil {
		t.Fatalf("seed future row: %v", err)
	}

	_, ok, err := s.LoadSlot("future")
	if err != nil || ok {
		t.Fatalf("newer-schema slot should be skipped, got ok=%v err=%v", ok, err)
	}
}

func TestDeleteSlot(t *testing.T) {
	s := openStore(t)
	s.SaveSlot("gone", map[string]json.RawMessage{"x": json.RawMessage(`1`)})
	if err := s.DeleteSlot("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.LoadSlot("gone"); ok {
		t.Fatalf("slot survived deletion")
	}
	if err := s.DeleteSlot("gone"); err != nil {
		t.Fatalf("deleting an absent slot should be a no-op: %v", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := openStore(t)
	if _, ok, err := s.GetMeta("seed"); ok || err != nil {
		t.Fatalf("absent meta: ok=%v err=%v", ok, err)
	}
	if err := s.SetMeta("seed", "42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetMeta("seed", "43"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.GetMeta("seed")
	if err != nil || !ok || v != "43" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

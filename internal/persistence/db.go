// Package persistence stores full-game snapshots in SQLite, keyed by
// save-slot name. Each stateful component contributes one JSON
// sub-document; a metadata row records when and under which schema
// version the slot was written.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SchemaVersion is bumped when snapshot shapes change incompatibly.
const SchemaVersion = 1

// AutoSlot is the reserved autosave slot name.
const AutoSlot = "auto"

// Store wraps the SQLite connection for save slots.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the save database at path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS save_slots (
		slot TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SlotInfo describes one saved slot.
type SlotInfo struct {
	Slot          string    `db:"slot" json:"slot"`
	SchemaVersion int       `db:"schema_version" json:"schema_version"`
	SavedAt       time.Time `json:"saved_at"`
}

// SaveSlot writes a full snapshot under the given slot name, replacing
// any previous save there.
func (s *Store) SaveSlot(slot string, components map[string]json.RawMessage) error {
	data, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.conn.Exec(
		`INSERT INTO save_slots (slot, schema_version, saved_at, data)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   schema_version = excluded.schema_version,
		   saved_at = excluded.saved_at,
		   data = excluded.data`,
		slot, SchemaVersion, time.Now().UTC().Format(time.RFC3339), string(data),
	)
	if err != nil {
		return fmt.Errorf("write slot %q: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot)
	return nil
}

// LoadSlot reads a snapshot. An absent slot returns ok=false with no
// error; a structurally invalid one is reported the same way with a
// warning, never as a fatal error.
func (s *Store) LoadSlot(slot string) (map[string]json.RawMessage, bool, error) {
	var row struct {
		SchemaVersion int    `db:"schema_version"`
		Data          string `db:"data"`
	}
	err := s.conn.Get(&row, `SELECT schema_version, data FROM save_slots WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %q: %w", slot, err)
	}
	if row.SchemaVersion > SchemaVersion {
		slog.Warn("save slot written by newer schema, ignoring", "slot", slot, "version", row.SchemaVersion)
		return nil, false, nil
	}
	var components map[string]json.RawMessage
	if err := json.Unmarshal([]byte(row.Data), &components); err != nil {
		slog.Warn("save slot is corrupt, ignoring", "slot", slot, "error", err)
		return nil, false, nil
	}
	return components, true, nil
}

// DeleteSlot removes a save slot. Deleting an absent slot is a no-op.
func (s *Store) DeleteSlot(slot string) error {
	_, err := s.conn.Exec(`DELETE FROM save_slots WHERE slot = ?`, slot)
	return err
}

// ListSlots returns every saved slot, newest first.
func (s *Store) ListSlots() ([]SlotInfo, error) {
	var rows []struct {
		Slot          string `db:"slot"`
		SchemaVersion int    `db:"schema_version"`
		SavedAt       string `db:"saved_at"`
	}
	err := s.conn.Select(&rows, `SELECT slot, schema_version, saved_at FROM save_slots ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	out := make([]SlotInfo, 0, len(rows))
	for _, r := range rows {
		at, err := time.Parse(time.RFC3339, r.SavedAt)
		if err != nil {
			slog.Warn("slot has malformed timestamp", "slot", r.Slot, "saved_at", r.SavedAt)
		}
		out = append(out, SlotInfo{Slot: r.Slot, SchemaVersion: r.SchemaVersion, SavedAt: at})
	}
	return out, nil
}

// SetMeta writes one incidental key/value pair.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMeta reads one key; ok is false when absent.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var value string
	err := s.conn.Get(&value, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Package persistence checkpoints table snapshots to SQLite so a table
// actor can resume its hand in progress after a process restart, instead
// of replaying every message since the table was created.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vctt94/pokerbisonrelay/pkg/poker"
)

// Store is a SQLite-backed poker.Checkpointer. One row per table, the full
// snapshot stored as a JSON blob under its current state_version — simpler
// than db.go's column-per-field table_states/player_states split, but
// grounded on the same "one row per table, overwrite in place" shape.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database at path and ensures the
// checkpoint table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS table_checkpoints (
			table_id      TEXT PRIMARY KEY,
			state_version INTEGER NOT NULL,
			snapshot_json TEXT NOT NULL,
			updated_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save upserts the table's latest snapshot, overwriting any prior one.
// Writes are idempotent on state_version: a snapshot older than the stored
// one leaves the stored row unchanged, and Save still returns nil, so
// persisted state never regresses.
func (s *Store) Save(snap poker.TableSnapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot for table %s: %w", snap.TableID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO table_checkpoints (table_id, state_version, snapshot_json, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(table_id) DO UPDATE SET
			state_version = excluded.state_version,
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at
		WHERE excluded.state_version >= table_checkpoints.state_version
	`, snap.TableID, snap.StateVersion, string(blob))
	if err != nil {
		return fmt.Errorf("persistence: save table %s: %w", snap.TableID, err)
	}
	return nil
}

// Load fetches the most recent snapshot for tableID. The bool return is
// false (with a nil error) when no checkpoint exists yet.
func (s *Store) Load(tableID string) (*poker.TableSnapshot, bool, error) {
	var blob string
	err := s.db.QueryRow(`SELECT snapshot_json FROM table_checkpoints WHERE table_id = ?`, tableID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persistence: load table %s: %w", tableID, err)
	}
	var snap poker.TableSnapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return nil, false, fmt.Errorf("persistence: unmarshal snapshot for table %s: %w", tableID, err)
	}
	return &snap, true, nil
}

// ListTableIDs returns every table with a checkpoint, for recovery on
// startup: the registry restores each one as a TableActor before accepting
// new gateway connections.
func (s *Store) ListTableIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT table_id FROM table_checkpoints`)
	if err != nil {
		return nil, fmt.Errorf("persistence: list tables: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

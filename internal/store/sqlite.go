package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

// SQLiteStore keeps histories in an embedded SQLite database, one row per
// committed record.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transfer_records (
	owner       TEXT    NOT NULL,
	transfer_id TEXT    NOT NULL,
	sender      TEXT    NOT NULL,
	recipient   TEXT    NOT NULL,
	amount      INTEGER NOT NULL,
	counter     INTEGER NOT NULL,
	actor_sig   BLOB    NOT NULL,
	group_sig   BLOB    NOT NULL,
	created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (owner, transfer_id)
);
CREATE INDEX IF NOT EXISTS idx_transfer_records_sender_counter
	ON transfer_records (owner, sender, counter);
`

// NewSQLite opens (creating if needed) a SQLite-backed store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append commits a record; replays are no-ops, conflicting content under
// a committed id is a safety violation.
func (s *SQLiteStore) Append(ctx context.Context, owner transfer.AccountID, rec history.Record) error {
	existing, err := s.get(ctx, owner, rec.Transfer.ID)
	if err == nil {
		if !recordsEqual(existing, rec) {
			return transfer.ErrSafetyViolation
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check existing record: %w", err)
	}

	row := encodeRecord(owner, rec)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transfer_records (owner, transfer_id, sender, recipient, amount, counter, actor_sig, group_sig)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, transfer_id) DO NOTHING
	`, row.owner, row.transferID, row.sender, row.recipient, row.amount, row.counter, row.actorSig, row.groupSig)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Load reassembles the owner's history from committed rows.
func (s *SQLiteStore) Load(ctx context.Context, owner transfer.AccountID) (*history.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender, recipient, amount, counter, actor_sig, group_sig
		FROM transfer_records
		WHERE owner = ?
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	h := history.New(owner)
	for rows.Next() {
		var r recordRow
		if err := rows.Scan(&r.sender, &r.recipient, &r.amount, &r.counter, &r.actorSig, &r.groupSig); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := r.decode()
		if err != nil {
			return nil, err
		}
		if err := h.Append(rec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return h, nil
}

// Contains reports whether the transfer is committed for the owner.
func (s *SQLiteStore) Contains(ctx context.Context, owner transfer.AccountID, id transfer.TransferID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM transfer_records WHERE owner = ? AND transfer_id = ?
	`, owner.String(), id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check record: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) get(ctx context.Context, owner transfer.AccountID, id transfer.TransferID) (history.Record, error) {
	var r recordRow
	err := s.db.QueryRowContext(ctx, `
		SELECT sender, recipient, amount, counter, actor_sig, group_sig
		FROM transfer_records
		WHERE owner = ? AND transfer_id = ?
	`, owner.String(), id.String()).Scan(&r.sender, &r.recipient, &r.amount, &r.counter, &r.actorSig, &r.groupSig)
	if err != nil {
		return history.Record{}, err
	}
	return r.decode()
}

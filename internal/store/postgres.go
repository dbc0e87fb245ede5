package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

// PostgresStore keeps histories in PostgreSQL for multi-process replica
// deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS transfer_records (
	owner       TEXT   NOT NULL,
	transfer_id TEXT   NOT NULL,
	sender      TEXT   NOT NULL,
	recipient   TEXT   NOT NULL,
	amount      BIGINT NOT NULL,
	counter     BIGINT NOT NULL,
	actor_sig   BYTEA  NOT NULL,
	group_sig   BYTEA  NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, transfer_id)
);
CREATE INDEX IF NOT EXISTS idx_transfer_records_sender_counter
	ON transfer_records (owner, sender, counter);
`

// NewPostgres connects to databaseURL and ensures the schema exists.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres store: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// Append commits a record; replays are no-ops, conflicting content under
// a committed id is a safety violation.
func (s *PostgresStore) Append(ctx context.Context, owner transfer.AccountID, rec history.Record) error {
	existing, err := s.get(ctx, owner, rec.Transfer.ID)
	if err == nil {
		if !recordsEqual(existing, rec) {
			return transfer.ErrSafetyViolation
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check existing record: %w", err)
	}

	row := encodeRecord(owner, rec)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO transfer_records (owner, transfer_id, sender, recipient, amount, counter, actor_sig, group_sig)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner, transfer_id) DO NOTHING
	`, row.owner, row.transferID, row.sender, row.recipient, row.amount, row.counter, row.actorSig, row.groupSig)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Load reassembles the owner's history from committed rows.
func (s *PostgresStore) Load(ctx context.Context, owner transfer.AccountID) (*history.History, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sender, recipient, amount, counter, actor_sig, group_sig
		FROM transfer_records
		WHERE owner = $1
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
func (s *PostgresStore) Contains(ctx context.Context, owner transfer.AccountID, id transfer.TransferID) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM transfer_records WHERE owner = $1 AND transfer_id = $2
	`, owner.String(), id.String()).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check record: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) get(ctx context.Context, owner transfer.AccountID, id transfer.TransferID) (history.Record, error) {
	var r recordRow
	err := s.pool.QueryRow(ctx, `
		SELECT sender, recipient, amount, counter, actor_sig, group_sig
		FROM transfer_records
		WHERE owner = $1 AND transfer_id = $2
	`, owner.String(), id.String()).Scan(&r.sender, &r.recipient, &r.amount, &r.counter, &r.actorSig, &r.groupSig)
	if err != nil {
		return history.Record{}, err
	}
	return r.decode()
}

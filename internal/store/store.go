// Package store persists committed account histories. The protocol core
// depends only on the Store interface; backends are pluggable. Appends
// are idempotent and keyed by (owner, transfer id): replaying a commit
// is a no-op, while a conflicting record under a committed key is
// surfaced as a safety violation.
package store

import (
	"context"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

// Store is the durable, append-only history collaborator. Records are
// never updated or deleted.
type Store interface {
	// Append commits a record to the owner's history.
	Append(ctx context.Context, owner transfer.AccountID, rec history.Record) error
	// Load returns the owner's committed history; empty if none exists.
	Load(ctx context.Context, owner transfer.AccountID) (*history.History, error)
	// Contains reports whether a transfer is committed for the owner.
	Contains(ctx context.Context, owner transfer.AccountID, id transfer.TransferID) (bool, error)
}

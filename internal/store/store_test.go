package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

func acct(b byte) transfer.AccountID {
	var id transfer.AccountID
	id[0] = b
	return id
}

func rec(sender, recipient transfer.AccountID, amount transfer.Money, counter uint64) history.Record {
	tr := transfer.NewTransfer(sender, recipient, amount, counter)
	return history.Record{
		Transfer: tr,
		Cert: transfer.Certificate{
			Debit: transfer.DebitProposal{Transfer: tr, ActorSig: []byte{0x01}},
			Sig:   []byte{0x02},
		},
	}
}

// exerciseStore runs the Store contract against any backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	a, b := acct(1), acct(2)

	// Empty history for an unknown account.
	h, err := s.Load(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())

	ok, err := s.Contains(ctx, a, transfer.TransferID{})
	require.NoError(t, err)
	assert.False(t, ok)

	genesis := rec(transfer.GenesisAccount, a, 100, 1)
	debit := rec(a, b, 30, 1)
	require.NoError(t, s.Append(ctx, a, genesis))
	require.NoError(t, s.Append(ctx, a, debit))

	// Replayed append is a no-op.
	require.NoError(t, s.Append(ctx, a, debit))

	// Conflicting content under a committed id is flagged.
	forged := debit
	forged.Cert.Sig = []byte{0xFF}
	assert.ErrorIs(t, s.Append(ctx, a, forged), transfer.ErrSafetyViolation)

	ok, err = s.Contains(ctx, a, debit.Transfer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	h, err = s.Load(ctx, a)
	require.NoError(t, err)
	require.Equal(t, 2, h.Len())
	bal, err := h.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(70), bal)
	assert.Equal(t, uint64(2), h.NextCounter())

	// Accounts are independent.
	h, err = s.Load(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := acct(1)
	require.NoError(t, s.Append(ctx, a, rec(transfer.GenesisAccount, a, 100, 1)))

	h, err := s.Load(ctx, a)
	require.NoError(t, err)
	require.NoError(t, h.Append(rec(a, acct(2), 10, 1)))

	// Mutating the loaded copy must not leak into the store.
	h2, err := s.Load(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, h2.Len())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "at2.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "at2.db")
	a := acct(1)

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, a, rec(transfer.GenesisAccount, a, 100, 1)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	h, err := s.Load(ctx, a)
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())
	bal, err := h.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(100), bal)
}

package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/at2/internal/transfer"
)

func acct(b byte) transfer.AccountID {
	var id transfer.AccountID
	id[0] = b
	return id
}

func rec(sender, recipient transfer.AccountID, amount transfer.Money, counter uint64) Record {
	tr := transfer.NewTransfer(sender, recipient, amount, counter)
	return Record{
		Transfer: tr,
		Cert: transfer.Certificate{
			Debit: transfer.DebitProposal{Transfer: tr, ActorSig: []byte{0xAA}},
			Sig:   []byte{0xBB},
		},
	}
}

func alwaysValid(Record) bool { return true }

func TestAppendAndBalance(t *testing.T) {
	a, b := acct(1), acct(2)
	h := New(a)

	require.NoError(t, h.Append(rec(transfer.GenesisAccount, a, 100, 1)))
	require.NoError(t, h.Append(rec(a, b, 30, 1)))

	bal, err := h.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(70), bal)

	// Idempotent re-append.
	require.NoError(t, h.Append(rec(a, b, 30, 1)))
	assert.Equal(t, 2, h.Len())

	// A record not involving the owner is rejected.
	err = h.Append(rec(acct(3), acct(4), 5, 1))
	assert.ErrorIs(t, err, transfer.ErrUnknownAccount)
}

func TestAppendConflictingRecordFlagged(t *testing.T) {
	a, b := acct(1), acct(2)
	h := New(a)

	r := rec(a, b, 30, 1)
	require.NoError(t, h.Append(r))

	forged := r
	forged.Cert.Sig = []byte{0xCC}
	assert.ErrorIs(t, h.Append(forged), transfer.ErrSafetyViolation)
}

func TestNextCounter(t *testing.T) {
	a, b := acct(1), acct(2)
	h := New(a)
	assert.Equal(t, uint64(1), h.NextCounter())

	require.NoError(t, h.Append(rec(transfer.GenesisAccount, a, 100, 1)))
	// Credits do not advance the debit counter.
	assert.Equal(t, uint64(1), h.NextCounter())

	require.NoError(t, h.Append(rec(a, b, 10, 1)))
	require.NoError(t, h.Append(rec(a, b, 10, 2)))
	assert.Equal(t, uint64(3), h.NextCounter())
}

func TestCounterMonotonicity(t *testing.T) {
	a, b := acct(1), acct(2)
	h := New(a)
	require.NoError(t, h.Append(rec(transfer.GenesisAccount, a, 100, 1)))
	for c := uint64(1); c <= 5; c++ {
		require.NoError(t, h.Append(rec(a, b, 1, c)))
	}

	debits := h.Debits()
	require.Len(t, debits, 5)
	for i, d := range debits {
		assert.Equal(t, uint64(i+1), d.Transfer.Counter)
	}
}

func TestMergeAlgebra(t *testing.T) {
	owner, b := acct(1), acct(2)

	h1 := New(owner)
	require.NoError(t, h1.Append(rec(transfer.GenesisAccount, owner, 100, 1)))
	require.NoError(t, h1.Append(rec(owner, b, 10, 1)))

	h2 := New(owner)
	require.NoError(t, h2.Append(rec(owner, b, 10, 1)))
	require.NoError(t, h2.Append(rec(owner, b, 20, 2)))

	h3 := New(owner)
	require.NoError(t, h3.Append(rec(b, owner, 5, 7)))

	// Commutative.
	ab, err := Merge(h1, h2, alwaysValid)
	require.NoError(t, err)
	ba, err := Merge(h2, h1, alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, ab.Records(), ba.Records())

	// Associative.
	abc1, err := Merge(ab, h3, alwaysValid)
	require.NoError(t, err)
	bc, err := Merge(h2, h3, alwaysValid)
	require.NoError(t, err)
	abc2, err := Merge(h1, bc, alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, abc1.Records(), abc2.Records())

	// Idempotent: merge(A, A) == A.
	aa, err := Merge(h1, h1, alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, h1.Records(), aa.Records())

	// Balance recomputed from the merged set.
	bal, err := abc1.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(100-10-20+5), bal)

	// Inputs untouched.
	assert.Equal(t, 2, h1.Len())
	assert.Equal(t, 2, h2.Len())
}

func TestMergeCounterSlotConflict(t *testing.T) {
	owner, b, c := acct(1), acct(2), acct(3)

	good := rec(owner, b, 10, 1)
	forged := rec(owner, c, 99, 1) // same slot, different transfer

	h1 := New(owner)
	require.NoError(t, h1.Append(good))
	h2 := New(owner)
	require.NoError(t, h2.Append(forged))

	// Only the genuine record verifies: it wins, in either merge order.
	onlyGood := func(r Record) bool { return r.Transfer.ID == good.Transfer.ID }

	m, err := Merge(h1, h2, onlyGood)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	assert.True(t, m.Contains(good.Transfer.ID))

	m, err = Merge(h2, h1, onlyGood)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	assert.True(t, m.Contains(good.Transfer.ID))

	// Both verifying is a protocol safety violation, never silently resolved.
	_, err = Merge(h1, h2, alwaysValid)
	assert.ErrorIs(t, err, transfer.ErrSafetyViolation)

	// Neither verifying rejects the merge.
	_, err = Merge(h1, h2, func(Record) bool { return false })
	assert.ErrorIs(t, err, transfer.ErrCertificateInvalid)
}

func TestMergeRejectsDifferentOwners(t *testing.T) {
	_, err := Merge(New(acct(1)), New(acct(2)), alwaysValid)
	assert.ErrorIs(t, err, transfer.ErrUnknownAccount)
}

func TestNoDoubleSpendInvariant(t *testing.T) {
	a, b := acct(1), acct(2)
	h := New(a)
	require.NoError(t, h.Append(rec(transfer.GenesisAccount, a, 50, 1)))
	require.NoError(t, h.Append(rec(a, b, 30, 1)))
	require.NoError(t, h.Append(rec(a, b, 30, 2)))

	// Outgoing exceeds incoming: the fold reports it instead of wrapping.
	_, err := h.Balance()
	assert.ErrorIs(t, err, transfer.ErrInsufficientBalance)
}

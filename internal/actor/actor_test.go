package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/at2/internal/identity"
	"github.com/example/at2/internal/logging"
	"github.com/example/at2/internal/replica"
	"github.com/example/at2/internal/store"
	"github.com/example/at2/internal/threshold"
	"github.com/example/at2/internal/transfer"
)

type cluster struct {
	group    *threshold.Group
	signers  []*threshold.Signer
	replicas []*replica.Replica
}

func newCluster(t *testing.T, n, faults int) *cluster {
	t.Helper()
	group, signers, err := threshold.Generate(n, faults)
	require.NoError(t, err)
	c := &cluster{group: group, signers: signers}
	for _, s := range signers {
		c.replicas = append(c.replicas, replica.New(s, store.NewMemory(), logging.Discard()))
	}
	return c
}

func (c *cluster) mint(t *testing.T, recipient transfer.AccountID, amount transfer.Money) {
	t.Helper()
	ctx := context.Background()
	tr := transfer.NewTransfer(transfer.GenesisAccount, recipient, amount, 1)
	prop := transfer.DebitProposal{Transfer: tr}
	agg := threshold.NewAggregator(c.group)
	for _, s := range c.signers {
		share, err := s.Sign(prop.SigningBytes())
		require.NoError(t, err)
		_, err = agg.AddShare(tr.ID, prop.SigningBytes(), share)
		require.NoError(t, err)
	}
	sig, err := agg.TryAggregate(tr.ID)
	require.NoError(t, err)
	cp := transfer.CreditProposal{
		Cert:      transfer.Certificate{Debit: prop, Sig: sig},
		Recipient: recipient,
		Amount:    amount,
	}
	for _, r := range c.replicas {
		_, err := r.ValidateCredit(ctx, cp)
		require.NoError(t, err)
	}
}

func newFundedActor(t *testing.T, c *cluster, amount transfer.Money) *Actor {
	t.Helper()
	a, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)
	c.mint(t, a.ID(), amount)
	syncActor(t, a, c)
	return a
}

// syncActor pulls the actor's account history from the first replica.
func syncActor(t *testing.T, a *Actor, c *cluster) {
	t.Helper()
	hist, err := c.replicas[0].History(context.Background(), a.ID())
	require.NoError(t, err)
	require.NoError(t, a.Synchronize(hist))
}

// The actor-driven happy path: initiate, collect shares until quorum,
// register the certificate, propagate the credit, commit locally.
func TestActorTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)
	bob, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)

	bal, err := alice.Balance()
	require.NoError(t, err)
	require.Equal(t, transfer.Money(100), bal)

	prop, err := alice.InitiateTransfer(bob.ID(), 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prop.Transfer.Counter)

	// In-flight funds are not spendable.
	bal, err = alice.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(70), bal)

	// First share is below quorum.
	share0, err := c.replicas[0].ValidateDebit(ctx, prop)
	require.NoError(t, err)
	credit, err := alice.ReceiveShare(share0)
	require.NoError(t, err)
	assert.Nil(t, credit)

	// Second share reaches quorum of two.
	share1, err := c.replicas[1].ValidateDebit(ctx, prop)
	require.NoError(t, err)
	credit, err = alice.ReceiveShare(share1)
	require.NoError(t, err)
	require.NotNil(t, credit)

	// Redelivered share returns the cached result.
	again, err := alice.ReceiveShare(share0)
	require.NoError(t, err)
	assert.Equal(t, credit, again)

	cert, ok := alice.Certificate(prop.Transfer.ID)
	require.True(t, ok)
	for _, r := range c.replicas {
		require.NoError(t, r.RegisterCertificate(ctx, cert))
		_, err := r.ValidateCredit(ctx, *credit)
		require.NoError(t, err)
	}
	require.NoError(t, alice.CommitTransfer(cert))

	bal, err = alice.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(70), bal)

	// The recipient sees the credit after synchronizing.
	syncActor(t, bob, c)
	bal, err = bob.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(30), bal)

	// The pending slot is free again.
	prop2, err := alice.InitiateTransfer(bob.ID(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), prop2.Transfer.Counter)
}

func TestInitiateTransferRejections(t *testing.T) {
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)
	bob, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)

	_, err = alice.InitiateTransfer(bob.ID(), 0)
	assert.ErrorIs(t, err, transfer.ErrInvalidAmount)

	_, err = alice.InitiateTransfer(alice.ID(), 10)
	assert.ErrorIs(t, err, transfer.ErrSelfTransfer)

	_, err = alice.InitiateTransfer(bob.ID(), 101)
	assert.ErrorIs(t, err, transfer.ErrInsufficientBalance)

	// One transfer in flight at a time.
	_, err = alice.InitiateTransfer(bob.ID(), 10)
	require.NoError(t, err)
	_, err = alice.InitiateTransfer(bob.ID(), 10)
	assert.ErrorIs(t, err, transfer.ErrPendingProposal)
}

func TestReceiveShareUnknownTransfer(t *testing.T) {
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)

	_, err := alice.ReceiveShare(transfer.PartialSignature{
		TransferID: transfer.TransferID{0xAA},
		Share:      []byte{0x01},
	})
	assert.ErrorIs(t, err, transfer.ErrUnknownTransfer)
}

func TestAbandonReleasesPendingSlot(t *testing.T) {
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)
	bob, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)

	prop, err := alice.InitiateTransfer(bob.ID(), 30)
	require.NoError(t, err)
	alice.Abandon(prop.Transfer.ID)

	bal, err := alice.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(100), bal)

	// The counter slot is reused by the next proposal.
	prop2, err := alice.InitiateTransfer(bob.ID(), 40)
	require.NoError(t, err)
	assert.Equal(t, prop.Transfer.Counter, prop2.Transfer.Counter)
}

func TestSynchronizeRetiresCommittedPending(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)
	bob, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)

	prop, err := alice.InitiateTransfer(bob.ID(), 30)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		share, err := c.replicas[i].ValidateDebit(ctx, prop)
		require.NoError(t, err)
		_, err = alice.ReceiveShare(share)
		require.NoError(t, err)
	}
	cert, ok := alice.Certificate(prop.Transfer.ID)
	require.True(t, ok)
	for _, r := range c.replicas {
		require.NoError(t, r.RegisterCertificate(ctx, cert))
	}

	// The actor lost its own CommitTransfer call; synchronizing the
	// replica view retires the pending transfer anyway.
	syncActor(t, alice, c)
	bal, err := alice.Balance()
	require.NoError(t, err)
	assert.Equal(t, transfer.Money(70), bal)

	_, err = alice.InitiateTransfer(bob.ID(), 10)
	require.NoError(t, err)
}

func TestCommitTransferRejectsForgedCertificate(t *testing.T) {
	ctx := context.Background()
	c := newCluster(t, 3, 1)
	alice := newFundedActor(t, c, 100)
	bob, err := New(identity.Generate(), c.group, logging.Discard())
	require.NoError(t, err)

	prop, err := alice.InitiateTransfer(bob.ID(), 30)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		share, err := c.replicas[i].ValidateDebit(ctx, prop)
		require.NoError(t, err)
		_, err = alice.ReceiveShare(share)
		require.NoError(t, err)
	}
	cert, ok := alice.Certificate(prop.Transfer.ID)
	require.True(t, ok)

	forged := cert
	forged.Sig = append([]byte{}, cert.Sig...)
	forged.Sig[0] ^= 0xFF
	assert.ErrorIs(t, alice.CommitTransfer(forged), transfer.ErrCertificateInvalid)

	require.NoError(t, alice.CommitTransfer(cert))
}

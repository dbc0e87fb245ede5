// Package actor implements the transfer-initiating side of the protocol.
// An actor owns one account's keys, proposes debits against its local view
// of its own history, collects replica signature shares, and turns a
// quorum of shares into a certificate it can register and propagate. All
// progress is driven by the actor; replicas only answer.
package actor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/identity"
	"github.com/example/at2/internal/threshold"
	"github.com/example/at2/internal/transfer"
)

// Actor is one account holder. Its local history is a synchronized copy of
// what the replicas committed; it is advisory for proposing and only the
// replica quorum decides.
type Actor struct {
	keys  identity.Keypair
	id    transfer.AccountID
	group *threshold.Group
	agg   *threshold.Aggregator
	log   *slog.Logger

	mu          sync.Mutex
	hist        *history.History
	pending     *pendingTransfer
	knownGroups map[string]*threshold.Group
}

// pendingTransfer is the actor's single in-flight debit. The certificate
// and credit proposal are cached once quorum is reached so redelivered
// shares stay idempotent.
type pendingTransfer struct {
	proposal transfer.DebitProposal
	cert     *transfer.Certificate
	credit   *transfer.CreditProposal
}

// New builds an actor around its key pair and the replica group holding
// its account.
func New(keys identity.Keypair, group *threshold.Group, logger *slog.Logger) (*Actor, error) {
	id, err := keys.AccountID()
	if err != nil {
		return nil, fmt.Errorf("derive account id: %w", err)
	}
	return &Actor{
		keys:        keys,
		id:          id,
		group:       group,
		agg:         threshold.NewAggregator(group),
		log:         logger,
		hist:        history.New(id),
		knownGroups: make(map[string]*threshold.Group),
	}, nil
}

// ID returns the actor's account identity.
func (a *Actor) ID() transfer.AccountID { return a.id }

// Group returns the replica group holding the actor's account.
func (a *Actor) Group() *threshold.Group { return a.group }

// AddKnownGroup registers another replica group whose certificates this
// actor will accept when synchronizing. Idempotent.
func (a *Actor) AddKnownGroup(g *threshold.Group) error {
	key, err := g.KeyBytes()
	if err != nil {
		return fmt.Errorf("add known group: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.knownGroups[string(key)] = g
	return nil
}

// InitiateTransfer builds and signs a debit proposal against the actor's
// local history. One transfer may be in flight at a time; a second
// initiation before the first commits or is abandoned returns
// ErrPendingProposal.
func (a *Actor) InitiateTransfer(recipient transfer.AccountID, amount transfer.Money) (transfer.DebitProposal, error) {
	var none transfer.DebitProposal

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending != nil {
		return none, transfer.ErrPendingProposal
	}

	balance, err := a.hist.Balance()
	if err != nil {
		return none, fmt.Errorf("fold local balance: %w", err)
	}
	if amount > balance {
		return none, transfer.ErrInsufficientBalance
	}

	t := transfer.NewTransfer(a.id, recipient, amount, a.hist.NextCounter())
	if err := t.Validate(); err != nil {
		return none, err
	}
	sig, err := a.keys.Sign(t.SigningBytes())
	if err != nil {
		return none, fmt.Errorf("sign proposal: %w", err)
	}
	prop := transfer.DebitProposal{Transfer: t, ActorSig: sig}
	a.pending = &pendingTransfer{proposal: prop}

	a.log.Info("transfer initiated",
		"transfer_id", t.ID.String(), "recipient", recipient.String(),
		"amount", amount.String(), "counter", t.Counter)
	return prop, nil
}

// ReceiveShare feeds one replica's signature share into the collection.
// While below quorum it returns (nil, nil). At quorum it aggregates the
// certificate and returns the credit proposal to propagate; the result is
// cached, so late or duplicated shares return the same proposal.
func (a *Actor) ReceiveShare(ps transfer.PartialSignature) (*transfer.CreditProposal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil || a.pending.proposal.Transfer.ID != ps.TransferID {
		return nil, transfer.ErrUnknownTransfer
	}
	if a.pending.credit != nil {
		return a.pending.credit, nil
	}

	msg := a.pending.proposal.SigningBytes()
	count, err := a.agg.AddShare(ps.TransferID, msg, ps.Share)
	if err != nil && err != transfer.ErrDuplicateShare {
		return nil, err
	}
	a.log.Debug("share received",
		"transfer_id", ps.TransferID.String(), "index", ps.Index, "shares", count)

	sig, err := a.agg.TryAggregate(ps.TransferID)
	if err == transfer.ErrQuorumNotReached {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t := a.pending.proposal.Transfer
	cert := transfer.Certificate{Debit: a.pending.proposal, Sig: sig}
	credit := &transfer.CreditProposal{
		Cert:      cert,
		Recipient: t.Recipient,
		Amount:    t.Amount,
	}
	a.pending.cert = &cert
	a.pending.credit = credit

	a.log.Info("transfer certified",
		"transfer_id", t.ID.String(), "shares", count)
	return credit, nil
}

// Certificate returns the aggregated certificate for the in-flight
// transfer once quorum has been reached.
func (a *Actor) Certificate(id transfer.TransferID) (transfer.Certificate, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil || a.pending.proposal.Transfer.ID != id || a.pending.cert == nil {
		return transfer.Certificate{}, false
	}
	return *a.pending.cert, true
}

// CommitTransfer records a certified debit into the actor's local history
// and releases the pending slot. Called after the certificate has been
// registered with the replica quorum.
func (a *Actor) CommitTransfer(cert transfer.Certificate) error {
	t := cert.Transfer()
	if err := a.group.VerifySignature(cert.Debit.SigningBytes(), cert.Sig); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.hist.Append(history.Record{Transfer: t, Cert: cert}); err != nil {
		return err
	}
	if a.pending != nil && a.pending.proposal.Transfer.ID == t.ID {
		a.pending = nil
	}
	a.agg.Drop(t.ID)
	return nil
}

// Abandon drops the in-flight transfer without committing it. Replica-side
// pending slots are only released by a competing commit at a later
// counter, so an abandoned counter slot stays reserved until reused by a
// new proposal for the same counter.
func (a *Actor) Abandon(id transfer.TransferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil && a.pending.proposal.Transfer.ID == id {
		a.pending = nil
	}
	a.agg.Drop(id)
}

// Synchronize merges a replica's view of the actor's account into the
// local history. Incoming credits surface here. If the merge commits the
// in-flight transfer, its pending slot is released.
func (a *Actor) Synchronize(remote *history.History) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	merged, err := history.Merge(a.hist, remote, a.verifyRecord)
	if err != nil {
		return err
	}
	a.hist = merged

	if a.pending != nil && a.hist.Contains(a.pending.proposal.Transfer.ID) {
		a.agg.Drop(a.pending.proposal.Transfer.ID)
		a.pending = nil
	}
	return nil
}

// Balance returns spendable funds: the committed balance minus the
// in-flight debit, so an actor cannot double-propose the same money.
func (a *Actor) Balance() (transfer.Money, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	balance, err := a.hist.Balance()
	if err != nil {
		return 0, err
	}
	if a.pending != nil {
		return balance.Sub(a.pending.proposal.Transfer.Amount)
	}
	return balance, nil
}

// History returns a copy of the actor's local history.
func (a *Actor) History() *history.History {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hist.Clone()
}

// verifyRecord accepts certificates from the actor's own group or any
// known group. Genesis records verify like any other certificate.
func (a *Actor) verifyRecord(r history.Record) bool {
	msg := r.Cert.Debit.SigningBytes()
	if a.group.VerifySignature(msg, r.Cert.Sig) == nil {
		return true
	}
	for _, g := range a.knownGroups {
		if g.VerifySignature(msg, r.Cert.Sig) == nil {
			return true
		}
	}
	return false
}

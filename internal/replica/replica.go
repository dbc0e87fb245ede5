// Package replica implements one validating node's view of the accounts
// its group serves. Replicas validate debit proposals against committed
// history, issue threshold signature shares, and commit certified
// transfers. They never initiate transfers and never drive the protocol;
// only actors do.
package replica

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/identity"
	"github.com/example/at2/internal/store"
	"github.com/example/at2/internal/threshold"
	"github.com/example/at2/internal/transfer"
	"github.com/example/at2/pkg/audit"
)

// Replica validates and commits transfers for the accounts of one group.
//
// Each account is a single-writer resource: its counter check and pending
// slot are guarded by a per-account mutex, so two concurrent proposals
// cannot both pass validation. Different accounts share no lock.
type Replica struct {
	signer *threshold.Signer
	group  *threshold.Group
	store  store.Store
	log    *slog.Logger
	chain  audit.Logger

	mu          sync.Mutex
	accounts    map[transfer.AccountID]*accountState
	knownGroups map[string]*threshold.Group
}

type accountState struct {
	mu      sync.Mutex
	pending *pendingDebit
}

// pendingDebit is the one proposal the account may have awaiting
// certification. It is not reflected in any balance; it only reserves
// the counter slot and caches the issued share for idempotent retries.
type pendingDebit struct {
	proposal transfer.DebitProposal
	share    transfer.PartialSignature
}

// Option configures a Replica.
type Option func(*Replica)

// WithAuditLog records every validation and commit into a hash-chained
// audit log.
func WithAuditLog(chain audit.Logger) Option {
	return func(r *Replica) { r.chain = chain }
}

// New builds a replica from its key share and history store.
func New(signer *threshold.Signer, st store.Store, logger *slog.Logger, opts ...Option) *Replica {
	r := &Replica{
		signer:      signer,
		group:       signer.Group(),
		store:       st,
		log:         logger,
		accounts:    make(map[transfer.AccountID]*accountState),
		knownGroups: make(map[string]*threshold.Group),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Group returns this replica's group parameters.
func (r *Replica) Group() *threshold.Group { return r.group }

// Index returns this replica's share index within its group.
func (r *Replica) Index() int { return r.signer.Index() }

// AddKnownGroup registers another replica group whose certificates this
// replica will accept on the credit side. Idempotent.
func (r *Replica) AddKnownGroup(g *threshold.Group) error {
	key, err := g.KeyBytes()
	if err != nil {
		return fmt.Errorf("add known group: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownGroups[string(key)] = g
	return nil
}

// ValidateDebit is step 1 of the protocol: main business validation of a
// proposed debit. On success the proposal occupies the account's pending
// slot and the replica's signature share is returned. Retrying the exact
// same proposal returns the previously issued share; every rejection is
// stateless.
func (r *Replica) ValidateDebit(ctx context.Context, prop transfer.DebitProposal) (transfer.PartialSignature, error) {
	var none transfer.PartialSignature
	t := prop.Transfer

	// Verify the actor signature before touching any state.
	if err := identity.Verify(t.Sender, t.SigningBytes(), prop.ActorSig); err != nil {
		return none, err
	}
	if err := t.Validate(); err != nil {
		return none, err
	}

	st := r.account(t.Sender)
	st.mu.Lock()
	defer st.mu.Unlock()

	// Idempotent retry of the proposal currently holding the slot.
	if st.pending != nil && st.pending.proposal.Transfer.ID == t.ID {
		return st.pending.share, nil
	}

	hist, err := r.store.Load(ctx, t.Sender)
	if err != nil {
		return none, fmt.Errorf("load sender history: %w", err)
	}
	if hist.Len() == 0 {
		return none, transfer.ErrUnknownAccount
	}
	if t.Counter != hist.NextCounter() {
		return none, transfer.ErrInvalidSequence
	}
	// A different proposal already holds this counter slot.
	if st.pending != nil && st.pending.proposal.Transfer.Counter == t.Counter {
		return none, transfer.ErrInvalidSequence
	}

	balance, err := hist.Balance()
	if err != nil {
		return none, fmt.Errorf("fold sender balance: %w", err)
	}
	if t.Amount > balance {
		return none, transfer.ErrInsufficientBalance
	}

	sig, err := r.signer.Sign(prop.SigningBytes())
	if err != nil {
		return none, err
	}
	share := transfer.PartialSignature{
		TransferID: t.ID,
		Index:      r.signer.Index(),
		Share:      sig,
	}
	st.pending = &pendingDebit{proposal: prop, share: share}

	if err := r.audit(audit.EventDebitValidated, t, t.Sender); err != nil {
		return none, err
	}
	r.log.Debug("debit validated",
		"transfer_id", t.ID.String(), "sender", t.Sender.String(),
		"amount", t.Amount.String(), "counter", t.Counter)
	return share, nil
}

// RegisterCertificate is step 2: validation of group agreement and order
// at the debit source. A certified transfer is appended to the sender's
// history and the counter advances. Registering an already committed
// certificate is a no-op success.
func (r *Replica) RegisterCertificate(ctx context.Context, cert transfer.Certificate) error {
	t := cert.Transfer()
	if err := t.Validate(); err != nil {
		return err
	}
	if err := r.group.VerifySignature(cert.Debit.SigningBytes(), cert.Sig); err != nil {
		return err
	}

	st := r.account(t.Sender)
	st.mu.Lock()
	defer st.mu.Unlock()

	committed, err := r.store.Contains(ctx, t.Sender, t.ID)
	if err != nil {
		return fmt.Errorf("check committed: %w", err)
	}
	if committed {
		return nil
	}

	hist, err := r.store.Load(ctx, t.Sender)
	if err != nil {
		return fmt.Errorf("load sender history: %w", err)
	}
	if t.Counter != hist.NextCounter() {
		return transfer.ErrInvalidSequence
	}

	if err := r.store.Append(ctx, t.Sender, history.Record{Transfer: t, Cert: cert}); err != nil {
		return fmt.Errorf("commit debit: %w", err)
	}
	// The committed counter consumes the slot; a rival pending proposal
	// at or below that counter can never certify anymore.
	if st.pending != nil && st.pending.proposal.Transfer.Counter <= t.Counter {
		st.pending = nil
	}

	if err := r.audit(audit.EventTransferRegistered, t, t.Sender); err != nil {
		return err
	}
	r.log.Info("transfer registered",
		"transfer_id", t.ID.String(), "sender", t.Sender.String(),
		"amount", t.Amount.String(), "counter", t.Counter)
	return nil
}

// ValidateCredit is step 3: a certified debit arriving at the credit
// destination. The sender group's quorum already proved fund
// availability, so the credit is applied unconditionally once the
// certificate verifies, and an acknowledgment share is returned for
// durability replication. Idempotent under redelivery.
func (r *Replica) ValidateCredit(ctx context.Context, cp transfer.CreditProposal) (transfer.PartialSignature, error) {
	var none transfer.PartialSignature
	if err := cp.Validate(); err != nil {
		return none, err
	}
	t := cp.Cert.Transfer()
	if err := t.Validate(); err != nil {
		return none, err
	}
	if err := r.verifyAnyGroup(cp.Cert); err != nil {
		return none, err
	}

	st := r.account(t.Recipient)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := r.store.Append(ctx, t.Recipient, history.Record{Transfer: t, Cert: cp.Cert}); err != nil {
		return none, fmt.Errorf("commit credit: %w", err)
	}

	ack, err := r.signer.Sign(cp.Cert.SigningBytes())
	if err != nil {
		return none, err
	}

	if err := r.audit(audit.EventCreditPropagated, t, t.Recipient); err != nil {
		return none, err
	}
	r.log.Info("credit propagated",
		"transfer_id", t.ID.String(), "recipient", t.Recipient.String(),
		"amount", t.Amount.String())
	return transfer.PartialSignature{
		TransferID: t.ID,
		Index:      r.signer.Index(),
		Share:      ack,
	}, nil
}

// Balance folds the committed history of an account. Pending proposals
// are never reflected.
func (r *Replica) Balance(ctx context.Context, account transfer.AccountID) (transfer.Money, error) {
	hist, err := r.store.Load(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}
	if hist.Len() == 0 {
		return 0, transfer.ErrUnknownAccount
	}
	return hist.Balance()
}

// History returns the committed history of an account, empty if unknown.
func (r *Replica) History(ctx context.Context, account transfer.AccountID) (*history.History, error) {
	return r.store.Load(ctx, account)
}

// verifyAnyGroup accepts certificates signed by this replica's own group
// or by any group it has been told about.
func (r *Replica) verifyAnyGroup(cert transfer.Certificate) error {
	msg := cert.Debit.SigningBytes()
	if err := r.group.VerifySignature(msg, cert.Sig); err == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.knownGroups {
		if err := g.VerifySignature(msg, cert.Sig); err == nil {
			return nil
		}
	}
	return transfer.ErrCertificateInvalid
}

func (r *Replica) account(id transfer.AccountID) *accountState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.accounts[id]
	if !ok {
		st = &accountState{}
		r.accounts[id] = st
	}
	return st
}

func (r *Replica) audit(kind audit.EventKind, t transfer.Transfer, account transfer.AccountID) error {
	if r.chain == nil {
		return nil
	}
	if _, err := r.chain.Append(kind, t.ID.String(), account.String(), t.Amount.String()); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

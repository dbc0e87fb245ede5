package threshold

import (
	"sort"
	"sync"

	"go.dedis.ch/kyber/v3/sign/tbls"

	"github.com/example/at2/internal/transfer"
)

// Aggregator collects signature shares per proposal and combines them
// once quorum is reached. Shares may arrive in any order, duplicated or
// late; the recovered signature is the same regardless.
type Aggregator struct {
	group *Group

	mu         sync.Mutex
	collecting map[transfer.TransferID]*collection
}

type collection struct {
	msg    []byte
	shares map[int][]byte
}

// NewAggregator builds an aggregator for one group.
func NewAggregator(group *Group) *Aggregator {
	return &Aggregator{
		group:      group,
		collecting: make(map[transfer.TransferID]*collection),
	}
}

// AddShare verifies a share over msg and records it. Exact duplicates are
// ignored. It returns the number of distinct valid shares held for the
// proposal.
func (a *Aggregator) AddShare(id transfer.TransferID, msg, sigShare []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.collecting[id]
	if !ok {
		c = &collection{msg: msg, shares: make(map[int][]byte)}
		a.collecting[id] = c
	}

	// Shares are always checked against the first-seen canonical bytes,
	// so a signer cannot smuggle in a share over different content.
	if string(msg) != string(c.msg) {
		return len(c.shares), transfer.ErrInvalidSignatureShare
	}
	if err := a.group.VerifyShare(c.msg, sigShare); err != nil {
		return len(c.shares), err
	}
	idx, err := ShareIndex(sigShare)
	if err != nil {
		return len(c.shares), err
	}
	if _, seen := c.shares[idx]; seen {
		return len(c.shares), transfer.ErrDuplicateShare
	}
	c.shares[idx] = sigShare
	return len(c.shares), nil
}

// Shares returns the number of distinct valid shares held for a proposal.
func (a *Aggregator) Shares(id transfer.TransferID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.collecting[id]; ok {
		return len(c.shares)
	}
	return 0
}

// TryAggregate combines the collected shares into the group signature.
// Below quorum it returns ErrQuorumNotReached; shares that cannot be
// interpolated into a verifying signature return ErrAggregationFailed.
// Any quorum-sized subset of valid shares recovers byte-identical output.
func (a *Aggregator) TryAggregate(id transfer.TransferID) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.collecting[id]
	if !ok || len(c.shares) < a.group.Quorum() {
		return nil, transfer.ErrQuorumNotReached
	}

	indexes := make([]int, 0, len(c.shares))
	for i := range c.shares {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	sigs := make([][]byte, 0, len(indexes))
	for _, i := range indexes {
		sigs = append(sigs, c.shares[i])
	}

	sig, err := tbls.Recover(suite, a.group.pub, c.msg, sigs, a.group.Quorum(), a.group.N())
	if err != nil {
		return nil, transfer.ErrAggregationFailed
	}
	if err := a.group.VerifySignature(c.msg, sig); err != nil {
		return nil, transfer.ErrAggregationFailed
	}
	return sig, nil
}

// Drop abandons collection state for a proposal, e.g. when the actor
// times out. There is nothing to roll back on the replica side.
func (a *Aggregator) Drop(id transfer.TransferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.collecting, id)
}

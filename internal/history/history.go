// Package history holds the per-account, append-only set of committed
// transfers. A history is a grow-only set keyed by transfer id, so two
// replicas' views of the same account converge under Merge regardless of
// delivery order, duplication or replay. Balances are never stored: they
// are recomputed by folding over the committed records.
package history

import (
	"fmt"
	"sort"

	"github.com/example/at2/internal/transfer"
)

// Record is one committed transfer together with the certificate that
// authorized it. Records are immutable once committed and are never
// deleted.
type Record struct {
	Transfer transfer.Transfer
	Cert     transfer.Certificate
}

// CertVerifier reports whether a record's certificate verifies against a
// group key the caller trusts. Merge uses it to arbitrate counter-slot
// conflicts; it has no other side effects.
type CertVerifier func(Record) bool

// History is the committed record set of one account. The zero value is
// not usable; construct with New.
type History struct {
	owner   transfer.AccountID
	records map[transfer.TransferID]Record
}

// New returns an empty history for the given account.
func New(owner transfer.AccountID) *History {
	return &History{
		owner:   owner,
		records: make(map[transfer.TransferID]Record),
	}
}

// Owner returns the account this history belongs to.
func (h *History) Owner() transfer.AccountID { return h.owner }

// Len returns the number of committed records.
func (h *History) Len() int { return len(h.records) }

// Contains reports whether a transfer is committed.
func (h *History) Contains(id transfer.TransferID) bool {
	_, ok := h.records[id]
	return ok
}

// Get returns a committed record.
func (h *History) Get(id transfer.TransferID) (Record, bool) {
	r, ok := h.records[id]
	return r, ok
}

// Append commits a record. Appending an identical record twice is a
// no-op; a different record under an already-committed id is flagged as a
// safety violation. Records not involving the owner are rejected.
func (h *History) Append(r Record) error {
	t := r.Transfer
	if t.Sender != h.owner && t.Recipient != h.owner {
		return fmt.Errorf("record %s does not involve account %s: %w",
			t.ID, h.owner, transfer.ErrUnknownAccount)
	}
	if existing, ok := h.records[t.ID]; ok {
		if !sameRecord(existing, r) {
			return transfer.ErrSafetyViolation
		}
		return nil
	}
	h.records[t.ID] = r
	return nil
}

// NextCounter returns the counter the owner's next debit must carry:
// one past the highest committed debit counter, starting at 1.
func (h *History) NextCounter() uint64 {
	var max uint64
	for _, r := range h.records {
		if r.Transfer.Sender == h.owner && r.Transfer.Counter > max {
			max = r.Transfer.Counter
		}
	}
	return max + 1
}

// Balance folds the committed records into the current balance: credits
// in, debits out. Checked arithmetic; an underflow here means corrupted
// history and is returned as an error rather than masked.
func (h *History) Balance() (transfer.Money, error) {
	var in, out transfer.Money
	var err error
	for _, r := range h.records {
		if r.Transfer.Recipient == h.owner {
			if in, err = in.Add(r.Transfer.Amount); err != nil {
				return 0, err
			}
		}
		if r.Transfer.Sender == h.owner {
			if out, err = out.Add(r.Transfer.Amount); err != nil {
				return 0, err
			}
		}
	}
	return in.Sub(out)
}

// Debits returns the owner's outgoing records ordered by counter.
func (h *History) Debits() []Record {
	var out []Record
	for _, r := range h.records {
		if r.Transfer.Sender == h.owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Transfer.Counter < out[j].Transfer.Counter
	})
	return out
}

// Credits returns the owner's incoming records. Credits carry no local
// order, so they are sorted by id for determinism.
func (h *History) Credits() []Record {
	var out []Record
	for _, r := range h.records {
		if r.Transfer.Recipient == h.owner {
			out = append(out, r)
		}
	}
	sortByID(out)
	return out
}

// Records returns every committed record, sorted by id.
func (h *History) Records() []Record {
	out := make([]Record, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r)
	}
	sortByID(out)
	return out
}

// Clone returns an independent copy.
func (h *History) Clone() *History {
	c := New(h.owner)
	for id, r := range h.records {
		c.records[id] = r
	}
	return c
}

// Merge combines two histories of the same account into a new one,
// leaving both inputs untouched. It is commutative, associative and
// idempotent over well-formed inputs.
//
// Two differing records claiming the same debit counter slot are a
// conflict: the one whose certificate verifies wins. Both verifying means
// the Byzantine fault bound was exceeded and is flagged as
// ErrSafetyViolation instead of silently picking one; neither verifying
// rejects the merge.
func Merge(a, b *History, verify CertVerifier) (*History, error) {
	if a.owner != b.owner {
		return nil, fmt.Errorf("merge histories of %s and %s: %w",
			a.owner, b.owner, transfer.ErrUnknownAccount)
	}
	merged := a.Clone()
	for id, r := range b.records {
		if existing, ok := merged.records[id]; ok {
			if !sameRecord(existing, r) {
				return nil, transfer.ErrSafetyViolation
			}
			continue
		}
		if r.Transfer.Sender == merged.owner {
			if conflict, ok := merged.counterSlot(r.Transfer.Counter, id); ok {
				winner, err := arbitrate(conflict, r, verify)
				if err != nil {
					return nil, err
				}
				if sameRecord(winner, conflict) {
					continue
				}
				delete(merged.records, conflict.Transfer.ID)
			}
		}
		merged.records[id] = r
	}
	return merged, nil
}

// counterSlot finds a committed debit occupying the given counter, other
// than the record being inserted.
func (h *History) counterSlot(counter uint64, except transfer.TransferID) (Record, bool) {
	for id, r := range h.records {
		if id != except && r.Transfer.Sender == h.owner && r.Transfer.Counter == counter {
			return r, true
		}
	}
	return Record{}, false
}

func arbitrate(a, b Record, verify CertVerifier) (Record, error) {
	if verify == nil {
		return Record{}, transfer.ErrSafetyViolation
	}
	aOK, bOK := verify(a), verify(b)
	switch {
	case aOK && bOK:
		return Record{}, transfer.ErrSafetyViolation
	case aOK:
		return a, nil
	case bOK:
		return b, nil
	default:
		return Record{}, transfer.ErrCertificateInvalid
	}
}

func sameRecord(a, b Record) bool {
	return string(a.Cert.SigningBytes()) == string(b.Cert.SigningBytes())
}

func sortByID(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i].Transfer.ID, rs[j].Transfer.ID
		return string(a[:]) < string(b[:])
	})
}

// Package audit provides a tamper-evident log of protocol decisions.
// Entries are hash-chained: each entry commits to its predecessor, so any
// later modification of a committed decision breaks verification.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind classifies what a replica decided.
type EventKind string

const (
	// EventDebitValidated records a signature share issued for a proposal.
	EventDebitValidated EventKind = "debit_validated"
	// EventTransferRegistered records a certified debit committed to history.
	EventTransferRegistered EventKind = "transfer_registered"
	// EventCreditPropagated records a certified credit applied at the
	// recipient side.
	EventCreditPropagated EventKind = "credit_propagated"
)

// Entry is one hash-chained audit record.
type Entry struct {
	ID           string    `json:"id"`
	Seq          uint64    `json:"seq"`
	Timestamp    string    `json:"timestamp"`
	Kind         EventKind `json:"kind"`
	TransferID   string    `json:"transfer_id"`
	Account      string    `json:"account"`
	Amount       string    `json:"amount"`
	PreviousHash string    `json:"previous_hash"`
	Hash         string    `json:"hash"`
}

// Logger is anything protocol events can be appended to. A non-nil
// error means the event was not durably recorded.
type Logger interface {
	Append(kind EventKind, transferID, account, amount string) (*Entry, error)
}

// ChainLog appends protocol events into a verifiable hash chain.
type ChainLog struct {
	mu           sync.Mutex
	seq          uint64
	previousHash string
	entries      []*Entry
}

// NewChainLog creates an empty chain anchored at a zero hash.
func NewChainLog() *ChainLog {
	return &ChainLog{previousHash: strings.Repeat("0", 64)}
}

// Append records an event and returns the committed entry. The
// in-memory chain itself cannot fail; the error satisfies Logger for
// persistent implementations.
func (c *ChainLog) Append(kind EventKind, transferID, account, amount string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{
		ID:           uuid.New().String(),
		Seq:          c.seq,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Kind:         kind,
		TransferID:   transferID,
		Account:      account,
		Amount:       amount,
		PreviousHash: c.previousHash,
	}
	entry.Hash = entryHash(entry)

	c.previousHash = entry.Hash
	c.seq++
	c.entries = append(c.entries, entry)
	return entry, nil
}

// Entries returns the committed chain in order.
func (c *ChainLog) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// VerifyChain checks that a slice of entries forms an unbroken hash chain.
func VerifyChain(entries []*Entry) bool {
	for i, entry := range entries {
		if i > 0 && entry.PreviousHash != entries[i-1].Hash {
			return false
		}
		if entryHash(entry) != entry.Hash {
			return false
		}
	}
	return true
}

func entryHash(e *Entry) string {
	input := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s",
		e.PreviousHash, e.Seq, e.Timestamp, e.Kind, e.TransferID, e.Account, e.Amount)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

package transfer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// AccountID is the 32-byte public-key identity of an account.
type AccountID [32]byte

// GenesisAccount is the reserved sender of mint records. No key pair maps
// to it, so no debit proposal can ever originate from it.
var GenesisAccount = AccountID{}

// String renders the account id as hex.
func (a AccountID) String() string { return hex.EncodeToString(a[:]) }

// IsGenesis reports whether the id is the reserved mint sender.
func (a AccountID) IsGenesis() bool { return a == GenesisAccount }

// ParseAccountID decodes a 64-character hex account id.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse account id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("parse account id: want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// AccountIDFromBytes copies a raw 32-byte key into an AccountID.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != len(id) {
		return id, fmt.Errorf("account id: want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// TransferID uniquely identifies one transfer. It is derived
// deterministically from the transfer fields, so replays and duplicates
// collapse onto the same key.
type TransferID [32]byte

// String renders the transfer id as hex.
func (t TransferID) String() string { return hex.EncodeToString(t[:]) }

// TransferIDFromBytes copies a raw 32-byte id into a TransferID.
func TransferIDFromBytes(b []byte) (TransferID, error) {
	var id TransferID
	if len(b) != len(id) {
		return id, fmt.Errorf("transfer id: want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// idDomainTag separates TransferID hashing from every other use of the
// canonical transfer encoding.
const idDomainTag = "at2/transfer-id/v1"

// DeriveTransferID computes the identifier for the given transfer fields.
func DeriveTransferID(sender, recipient AccountID, amount Money, counter uint64) TransferID {
	h := sha256.New()
	h.Write([]byte(idDomainTag))
	h.Write(sender[:])
	h.Write(recipient[:])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(amount))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], counter)
	h.Write(buf[:])
	var id TransferID
	h.Sum(id[:0])
	return id
}

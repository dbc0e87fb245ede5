// Package identity supplies actor key pairs and signature verification.
// An account's identity is its Schnorr public key on edwards25519; the
// protocol core only signs and verifies, it never custodies keys beyond
// the actor's own pair.
package identity

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/key"

	"github.com/example/at2/internal/transfer"
)

var suite = edwards25519.NewBlakeSHA256Ed25519()

// Keypair is an actor's signing identity.
type Keypair struct {
	Private kyber.Scalar
	Public  kyber.Point
}

// Generate creates a fresh actor key pair.
func Generate() Keypair {
	p := key.NewKeyPair(suite)
	return Keypair{Private: p.Private, Public: p.Public}
}

// AccountID derives the account identity from the public key.
func (k Keypair) AccountID() (transfer.AccountID, error) {
	b, err := k.Public.MarshalBinary()
	if err != nil {
		return transfer.AccountID{}, fmt.Errorf("marshal public key: %w", err)
	}
	return transfer.AccountIDFromBytes(b)
}

// Sign produces the actor signature over msg.
func (k Keypair) Sign(msg []byte) ([]byte, error) {
	return schnorr.Sign(suite, k.Private, msg)
}

// Verify checks sig over msg against the public key embedded in the
// account id. It returns transfer.ErrInvalidSignature on any mismatch,
// including an id that is not a valid curve point.
func Verify(account transfer.AccountID, msg, sig []byte) error {
	pub := suite.Point()
	if err := pub.UnmarshalBinary(account[:]); err != nil {
		return transfer.ErrInvalidSignature
	}
	if err := schnorr.Verify(suite, pub, msg, sig); err != nil {
		return transfer.ErrInvalidSignature
	}
	return nil
}

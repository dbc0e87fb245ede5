// Package threshold implements the signature scheme the replica groups
// authorize debits with: BLS threshold shares on bn256, recovered by
// Lagrange interpolation into one signature verifiable against the
// group's single public key. Recovery is algebraically independent of
// which quorum subset supplied the shares, which is what lets the
// protocol tolerate reordered and partial responses.
package threshold

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/sign/tbls"

	"github.com/example/at2/internal/transfer"
)

var suite = bn256.NewSuite()

// Group is the public side of one replica group: the public polynomial
// commitments, the group size n and the tolerated fault count t. A
// certificate needs t+1 distinct shares.
type Group struct {
	pub *share.PubPoly
	n   int
	t   int
}

// NewGroup wraps externally supplied group parameters.
func NewGroup(pub *share.PubPoly, n, t int) (*Group, error) {
	if n < 1 || t < 0 || t+1 > n {
		return nil, fmt.Errorf("invalid group parameters n=%d t=%d", n, t)
	}
	return &Group{pub: pub, n: n, t: t}, nil
}

// N returns the group size.
func (g *Group) N() int { return g.n }

// T returns the tolerated fault count.
func (g *Group) T() int { return g.t }

// Quorum returns the number of shares a certificate needs.
func (g *Group) Quorum() int { return g.t + 1 }

// PublicKey returns the group's aggregate public key.
func (g *Group) PublicKey() kyber.Point { return g.pub.Commit() }

// KeyBytes returns the marshaled group public key. Replicas use it to
// index the groups they know of.
func (g *Group) KeyBytes() ([]byte, error) {
	return g.pub.Commit().MarshalBinary()
}

// VerifyShare checks one signature share over msg.
func (g *Group) VerifyShare(msg, sigShare []byte) error {
	if err := tbls.Verify(suite, g.pub, msg, sigShare); err != nil {
		return transfer.ErrInvalidSignatureShare
	}
	return nil
}

// VerifySignature checks an aggregate signature over msg against the
// group public key.
func (g *Group) VerifySignature(msg, sig []byte) error {
	if err := bls.Verify(suite, g.pub.Commit(), msg, sig); err != nil {
		return transfer.ErrCertificateInvalid
	}
	return nil
}

// Signer is one replica's private key share.
type Signer struct {
	group *Group
	priv  *share.PriShare
}

// NewSigner pairs a private share with its group.
func NewSigner(group *Group, priv *share.PriShare) *Signer {
	return &Signer{group: group, priv: priv}
}

// Index returns the share index of this signer within the group.
func (s *Signer) Index() int { return s.priv.I }

// Group returns the signer's group parameters.
func (s *Signer) Group() *Group { return s.group }

// Sign issues this replica's signature share over msg.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := tbls.Sign(suite, s.priv, msg)
	if err != nil {
		return nil, fmt.Errorf("sign share: %w", err)
	}
	return sig, nil
}

// ShareIndex extracts the signer index a share was issued under.
func ShareIndex(sigShare []byte) (int, error) {
	i, err := tbls.SigShare(sigShare).Index()
	if err != nil {
		return 0, transfer.ErrInvalidSignatureShare
	}
	return i, nil
}

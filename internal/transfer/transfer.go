// Package transfer defines the value types and canonical encodings of the
// threshold-signed transfer protocol: accounts, money, proposals, signature
// shares and certificates. Encodings are byte-stable so that signer and
// verifier always agree on what was signed.
package transfer

import "encoding/binary"

// Transfer is one movement of money between two accounts. Counter is the
// sender's debit sequence number, starting at 1 with no gaps.
type Transfer struct {
	ID        TransferID
	Sender    AccountID
	Recipient AccountID
	Amount    Money
	Counter   uint64
}

// NewTransfer builds a transfer and derives its identifier.
func NewTransfer(sender, recipient AccountID, amount Money, counter uint64) Transfer {
	return Transfer{
		ID:        DeriveTransferID(sender, recipient, amount, counter),
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Counter:   counter,
	}
}

// Validate checks structural well-formedness: positive amount within
// the representable range, distinct endpoints, counter at least 1, and
// an id that matches the fields.
func (t Transfer) Validate() error {
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if t.Amount > MaxMoney {
		return ErrAmountOverflow
	}
	if t.Sender == t.Recipient {
		return ErrSelfTransfer
	}
	if t.Counter == 0 {
		return ErrInvalidSequence
	}
	if t.ID != DeriveTransferID(t.Sender, t.Recipient, t.Amount, t.Counter) {
		return ErrInvalidTransferID
	}
	return nil
}

// SigningBytes is the canonical encoding of the transfer fields. The actor
// signature is computed over exactly these bytes.
func (t Transfer) SigningBytes() []byte {
	buf := make([]byte, 0, 32+32+32+8+8)
	buf = append(buf, t.ID[:]...)
	buf = append(buf, t.Sender[:]...)
	buf = append(buf, t.Recipient[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Amount))
	buf = binary.BigEndian.AppendUint64(buf, t.Counter)
	return buf
}

// DebitProposal is a transfer signed by the owning actor. Replicas issue
// threshold shares over its canonical bytes.
type DebitProposal struct {
	Transfer Transfer
	ActorSig []byte
}

// SigningBytes is the canonical encoding of the proposal: the transfer
// bytes followed by the actor signature. Replica shares and the resulting
// certificate cover exactly these bytes.
func (p DebitProposal) SigningBytes() []byte {
	tb := p.Transfer.SigningBytes()
	buf := make([]byte, 0, len(tb)+len(p.ActorSig))
	buf = append(buf, tb...)
	buf = append(buf, p.ActorSig...)
	return buf
}

// PartialSignature is one replica's threshold share over a proposal, or a
// recipient-side acknowledgment share over a certificate.
type PartialSignature struct {
	TransferID TransferID
	Index      int
	Share      []byte
}

// Certificate proves that a quorum of the sender's replica group agreed to
// the debit. Sig verifies against the group's single public key.
type Certificate struct {
	Debit DebitProposal
	Sig   []byte
}

// SigningBytes is the canonical encoding of the certificate: the proposal
// bytes followed by the group signature. Credit acknowledgments cover
// these bytes.
func (c Certificate) SigningBytes() []byte {
	pb := c.Debit.SigningBytes()
	buf := make([]byte, 0, len(pb)+len(c.Sig))
	buf = append(buf, pb...)
	buf = append(buf, c.Sig...)
	return buf
}

// Transfer is a shorthand for the transfer the certificate covers.
func (c Certificate) Transfer() Transfer { return c.Debit.Transfer }

// CreditProposal carries a certified debit to the recipient's replica
// group. Recipient and Amount restate the certificate fields and must
// match them.
type CreditProposal struct {
	Cert      Certificate
	Recipient AccountID
	Amount    Money
}

// Validate checks the restated fields against the embedded certificate.
func (cp CreditProposal) Validate() error {
	t := cp.Cert.Transfer()
	if cp.Recipient != t.Recipient || cp.Amount != t.Amount {
		return ErrCertificateInvalid
	}
	return nil
}

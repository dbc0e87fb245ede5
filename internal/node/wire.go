package node

import (
	"errors"

	pb "github.com/example/at2/api/gen/transferpb"
	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

var errMissingField = errors.New("missing message field")

// TransferFromWire rebuilds a domain transfer from its wire form.
func TransferFromWire(m *pb.TransferMsg) (transfer.Transfer, error) {
	if m == nil {
		return transfer.Transfer{}, errMissingField
	}
	id, err := transfer.TransferIDFromBytes(m.TransferId)
	if err != nil {
		return transfer.Transfer{}, err
	}
	sender, err := transfer.AccountIDFromBytes(m.Sender)
	if err != nil {
		return transfer.Transfer{}, err
	}
	recipient, err := transfer.AccountIDFromBytes(m.Recipient)
	if err != nil {
		return transfer.Transfer{}, err
	}
	return transfer.Transfer{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    transfer.Money(m.Amount),
		Counter:   m.Counter,
	}, nil
}

// TransferToWire converts a domain transfer to its wire form.
func TransferToWire(t transfer.Transfer) *pb.TransferMsg {
	return &pb.TransferMsg{
		TransferId: t.ID[:],
		Sender:     t.Sender[:],
		Recipient:  t.Recipient[:],
		Amount:     uint64(t.Amount),
		Counter:    t.Counter,
	}
}

// ProposalFromWire rebuilds a debit proposal from its wire form.
func ProposalFromWire(m *pb.DebitProposalMsg) (transfer.DebitProposal, error) {
	if m == nil {
		return transfer.DebitProposal{}, errMissingField
	}
	t, err := TransferFromWire(m.Transfer)
	if err != nil {
		return transfer.DebitProposal{}, err
	}
	return transfer.DebitProposal{Transfer: t, ActorSig: m.ActorSig}, nil
}

// ProposalToWire converts a debit proposal to its wire form.
func ProposalToWire(p transfer.DebitProposal) *pb.DebitProposalMsg {
	return &pb.DebitProposalMsg{
		Transfer: TransferToWire(p.Transfer),
		ActorSig: p.ActorSig,
	}
}

// CertificateFromWire rebuilds a certificate from its wire form.
func CertificateFromWire(m *pb.CertificateMsg) (transfer.Certificate, error) {
	if m == nil {
		return transfer.Certificate{}, errMissingField
	}
	debit, err := ProposalFromWire(m.Debit)
	if err != nil {
		return transfer.Certificate{}, err
	}
	return transfer.Certificate{Debit: debit, Sig: m.GroupSig}, nil
}

// CertificateToWire converts a certificate to its wire form.
func CertificateToWire(c transfer.Certificate) *pb.CertificateMsg {
	return &pb.CertificateMsg{
		Debit:    ProposalToWire(c.Debit),
		GroupSig: c.Sig,
	}
}

// ShareToWire converts a signature share to its wire form.
func ShareToWire(s transfer.PartialSignature) *pb.ShareMsg {
	return &pb.ShareMsg{
		TransferId: s.TransferID[:],
		Index:      uint32(s.Index),
		Share:      s.Share,
	}
}

// ShareFromWire rebuilds a signature share from its wire form.
func ShareFromWire(m *pb.ShareMsg) (transfer.PartialSignature, error) {
	if m == nil {
		return transfer.PartialSignature{}, errMissingField
	}
	id, err := transfer.TransferIDFromBytes(m.TransferId)
	if err != nil {
		return transfer.PartialSignature{}, err
	}
	return transfer.PartialSignature{
		TransferID: id,
		Index:      int(m.Index),
		Share:      m.Share,
	}, nil
}

// RecordFromWire rebuilds a committed history record from its wire form.
func RecordFromWire(m *pb.RecordMsg) (history.Record, error) {
	if m == nil {
		return history.Record{}, errMissingField
	}
	t, err := TransferFromWire(m.Transfer)
	if err != nil {
		return history.Record{}, err
	}
	cert, err := CertificateFromWire(m.Cert)
	if err != nil {
		return history.Record{}, err
	}
	return history.Record{Transfer: t, Cert: cert}, nil
}

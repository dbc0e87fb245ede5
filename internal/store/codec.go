package store

import (
	"fmt"

	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/transfer"
)

// recordRow is the flat SQL representation of one committed record.
// Account ids are stored as hex, amounts as signed integers. Amounts
// above MaxMoney never reach a store: Transfer.Validate rejects them
// at every replica entry point.
type recordRow struct {
	owner      string
	transferID string
	sender     string
	recipient  string
	amount     int64
	counter    int64
	actorSig   []byte
	groupSig   []byte
}

func encodeRecord(owner transfer.AccountID, rec history.Record) recordRow {
	t := rec.Transfer
	return recordRow{
		owner:      owner.String(),
		transferID: t.ID.String(),
		sender:     t.Sender.String(),
		recipient:  t.Recipient.String(),
		amount:     int64(t.Amount),
		counter:    int64(t.Counter),
		actorSig:   rec.Cert.Debit.ActorSig,
		groupSig:   rec.Cert.Sig,
	}
}

func (r recordRow) decode() (history.Record, error) {
	sender, err := transfer.ParseAccountID(r.sender)
	if err != nil {
		return history.Record{}, fmt.Errorf("decode record sender: %w", err)
	}
	recipient, err := transfer.ParseAccountID(r.recipient)
	if err != nil {
		return history.Record{}, fmt.Errorf("decode record recipient: %w", err)
	}
	t := transfer.NewTransfer(sender, recipient, transfer.Money(r.amount), uint64(r.counter))
	return history.Record{
		Transfer: t,
		Cert: transfer.Certificate{
			Debit: transfer.DebitProposal{Transfer: t, ActorSig: r.actorSig},
			Sig:   r.groupSig,
		},
	}, nil
}

func recordsEqual(a, b history.Record) bool {
	return string(a.Cert.SigningBytes()) == string(b.Cert.SigningBytes())
}

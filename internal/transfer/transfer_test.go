package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(b byte) AccountID {
	var id AccountID
	id[0] = b
	return id
}

func TestMoneyArithmetic(t *testing.T) {
	sum, err := Money(40).Add(Money(2))
	require.NoError(t, err)
	assert.Equal(t, Money(42), sum)

	_, err = Money(^uint64(0)).Add(Money(1))
	require.ErrorIs(t, err, ErrAmountOverflow)

	diff, err := Money(40).Sub(Money(40))
	require.NoError(t, err)
	assert.Equal(t, Money(0), diff)

	_, err = Money(1).Sub(Money(2))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"0", 0},
		{"1", NanosPerUnit},
		{"1.5", NanosPerUnit + NanosPerUnit/2},
		{"0.000000001", 1},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseMoney("-1")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseMoney("0.0000000001")
	require.Error(t, err)

	_, err = ParseMoney("not money")
	require.Error(t, err)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1.5", Money(NanosPerUnit+NanosPerUnit/2).String())
	assert.Equal(t, "0", Money(0).String())

	roundTripped, err := ParseMoney(Money(123456789).String())
	require.NoError(t, err)
	assert.Equal(t, Money(123456789), roundTripped)
}

func TestDeriveTransferIDDeterministic(t *testing.T) {
	a, b := testAccount(1), testAccount(2)

	id1 := DeriveTransferID(a, b, 30, 1)
	id2 := DeriveTransferID(a, b, 30, 1)
	assert.Equal(t, id1, id2)

	// Any field change moves the id.
	assert.NotEqual(t, id1, DeriveTransferID(b, a, 30, 1))
	assert.NotEqual(t, id1, DeriveTransferID(a, b, 31, 1))
	assert.NotEqual(t, id1, DeriveTransferID(a, b, 30, 2))
}

func TestTransferValidate(t *testing.T) {
	a, b := testAccount(1), testAccount(2)

	require.NoError(t, NewTransfer(a, b, 30, 1).Validate())

	assert.ErrorIs(t, NewTransfer(a, b, 0, 1).Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, NewTransfer(a, a, 30, 1).Validate(), ErrSelfTransfer)
	assert.ErrorIs(t, NewTransfer(a, b, 30, 0).Validate(), ErrInvalidSequence)

	// Amounts must stay within the signed 64-bit range stores persist.
	require.NoError(t, NewTransfer(a, b, MaxMoney, 1).Validate())
	assert.ErrorIs(t, NewTransfer(a, b, MaxMoney+1, 1).Validate(), ErrAmountOverflow)

	tampered := NewTransfer(a, b, 30, 1)
	tampered.Amount = 31
	assert.ErrorIs(t, tampered.Validate(), ErrInvalidTransferID)
}

func TestSigningBytesStable(t *testing.T) {
	tr := NewTransfer(testAccount(1), testAccount(2), 30, 1)
	assert.Equal(t, tr.SigningBytes(), tr.SigningBytes())

	p := DebitProposal{Transfer: tr, ActorSig: []byte{1, 2, 3}}
	q := DebitProposal{Transfer: tr, ActorSig: []byte{1, 2, 4}}
	assert.NotEqual(t, p.SigningBytes(), q.SigningBytes())

	c := Certificate{Debit: p, Sig: []byte{9}}
	assert.Equal(t, append(p.SigningBytes(), 9), c.SigningBytes())
}

func TestCreditProposalValidate(t *testing.T) {
	tr := NewTransfer(testAccount(1), testAccount(2), 30, 1)
	cert := Certificate{Debit: DebitProposal{Transfer: tr}}

	ok := CreditProposal{Cert: cert, Recipient: tr.Recipient, Amount: tr.Amount}
	require.NoError(t, ok.Validate())

	badRecipient := CreditProposal{Cert: cert, Recipient: testAccount(3), Amount: tr.Amount}
	assert.ErrorIs(t, badRecipient.Validate(), ErrCertificateInvalid)

	badAmount := CreditProposal{Cert: cert, Recipient: tr.Recipient, Amount: 29}
	assert.ErrorIs(t, badAmount.Validate(), ErrCertificateInvalid)
}

func TestParseAccountID(t *testing.T) {
	id := testAccount(7)
	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseAccountID("zz")
	require.Error(t, err)

	_, err = ParseAccountID("abcd")
	require.Error(t, err)
}

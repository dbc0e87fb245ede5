package identity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/at2/internal/transfer"
)

func TestSignVerify(t *testing.T) {
	kp := Generate()
	account, err := kp.AccountID()
	require.NoError(t, err)

	msg := []byte("debit proposal bytes")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	require.NoError(t, Verify(account, msg, sig))

	assert.ErrorIs(t, Verify(account, []byte("other bytes"), sig), transfer.ErrInvalidSignature)

	other, err := Generate().AccountID()
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(other, msg, sig), transfer.ErrInvalidSignature)
}

func TestVerifyRejectsMalformedAccount(t *testing.T) {
	kp := Generate()
	sig, err := kp.Sign([]byte("msg"))
	require.NoError(t, err)

	// The genesis account is all zeroes and maps to no key pair.
	err = Verify(transfer.GenesisAccount, []byte("msg"), sig)
	assert.ErrorIs(t, err, transfer.ErrInvalidSignature)
}

func TestKeyFileRoundTrip(t *testing.T) {
	kp := Generate()
	path := filepath.Join(t.TempDir(), "actor.key")
	require.NoError(t, kp.SaveKeyFile(path))

	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)

	wantID, err := kp.AccountID()
	require.NoError(t, err)
	gotID, err := loaded.AccountID()
	require.NoError(t, err)
	assert.Equal(t, wantID, gotID)

	// Signatures from the reloaded key verify against the original id.
	sig, err := loaded.Sign([]byte("msg"))
	require.NoError(t, err)
	require.NoError(t, Verify(wantID, []byte("msg"), sig))
}

func TestAccountIDsDistinct(t *testing.T) {
	a, err := Generate().AccountID()
	require.NoError(t, err)
	b, err := Generate().AccountID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

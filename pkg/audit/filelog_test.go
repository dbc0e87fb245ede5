package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogPersistsAndResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	log, err := OpenFileLog(path)
	require.NoError(t, err)
	_, err = log.Append(EventDebitValidated, "tid-1", "acct-a", "30")
	require.NoError(t, err)
	_, err = log.Append(EventTransferRegistered, "tid-1", "acct-a", "30")
	require.NoError(t, err)
	require.NoError(t, log.Close())

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, VerifyChain(entries))

	// Reopening resumes the chain where it left off.
	log, err = OpenFileLog(path)
	require.NoError(t, err)
	e, err := log.Append(EventCreditPropagated, "tid-1", "acct-b", "30")
	require.NoError(t, err)
	require.NoError(t, log.Close())
	assert.Equal(t, uint64(2), e.Seq)
	assert.Equal(t, entries[1].Hash, e.PreviousHash)

	entries, err = LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, VerifyChain(entries))
}

func TestFileLogAppendReportsWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	log, err := OpenFileLog(path)
	require.NoError(t, err)
	_, err = log.Append(EventDebitValidated, "tid-1", "acct-a", "30")
	require.NoError(t, err)

	// Writes against a closed file must surface, not vanish.
	require.NoError(t, log.Close())
	_, err = log.Append(EventTransferRegistered, "tid-1", "acct-a", "30")
	require.Error(t, err)
}

func TestOpenFileLogRejectsTamperedChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	log, err := OpenFileLog(path)
	require.NoError(t, err)
	_, err = log.Append(EventDebitValidated, "tid-1", "acct-a", "30")
	require.NoError(t, err)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := []byte(string(data))
	copy(tampered[len(tampered)/2:], []byte(`x`))
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	_, err = OpenFileLog(path)
	assert.Error(t, err)
}

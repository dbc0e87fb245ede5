package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/at2/internal/transfer"
)

// TestPostgresStore runs the Store contract against a real PostgreSQL
// instance. Set AT2_TEST_DATABASE_URL to enable it.
func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("AT2_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("skipping postgres integration test (AT2_TEST_DATABASE_URL not set)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewPostgres(ctx, databaseURL)
	if err != nil {
		t.Skipf("skipping postgres integration test (database not available): %v", err)
	}
	defer s.Close()

	_, err = s.pool.Exec(ctx, `DELETE FROM transfer_records`)
	require.NoError(t, err)

	exerciseStore(t, s)
}

func TestPostgresStoreIdempotentReplay(t *testing.T) {
	databaseURL := os.Getenv("AT2_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("skipping postgres integration test (AT2_TEST_DATABASE_URL not set)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewPostgres(ctx, databaseURL)
	if err != nil {
		t.Skipf("skipping postgres integration test (database not available): %v", err)
	}
	defer s.Close()

	_, err = s.pool.Exec(ctx, `DELETE FROM transfer_records`)
	require.NoError(t, err)

	a := acct(9)
	r := rec(transfer.GenesisAccount, a, 100, 1)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, a, r))
	}

	h, err := s.Load(ctx, a)
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())
}

package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage/storagetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, openTemp(t))
}

func TestItemsStayScopedToEntry(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	a, err := s.InsertEntry(ctx, ledger.JournalEntry{EntryNumber: "JE-1", Description: "a"})
	require.NoError(t, err)
	b, err := s.InsertEntry(ctx, ledger.JournalEntry{EntryNumber: "JE-2", Description: "b"})
	require.NoError(t, err)

	_, err = s.InsertItems(ctx, a.ID, []ledger.JournalEntryItem{{AccountID: "x", Debit: 1}, {AccountID: "y", Credit: 1}})
	require.NoError(t, err)
	_, err = s.InsertItems(ctx, b.ID, []ledger.JournalEntryItem{{AccountID: "z", Debit: 7}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteItemsByEntry(ctx, a.ID))
	left, err := s.ItemsByEntry(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, ledger.Amount(7), left[0].Debit)

	all, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

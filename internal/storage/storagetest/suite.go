// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

// Run exercises s against the storage.Store contract. s must start empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("accounts", func(t *testing.T) {
		a, err := s.InsertAccount(ctx, ledger.Account{
			AccountNumber: "1000", AccountName: "Cash",
			AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 2500000,
		})
		require.NoError(t, err)
		require.NotEmpty(t, a.ID)
		assert.False(t, a.CreatedAt.IsZero())

		got, err := s.GetAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cash", got.AccountName)
		assert.Equal(t, ledger.Amount(2500000), got.Balance)

		got.AccountName = "Petty Cash"
		upd, err := s.UpdateAccount(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, "Petty Cash", upd.AccountName)
		assert.True(t, a.CreatedAt.Equal(upd.CreatedAt))

		list, err := s.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, s.DeleteAccount(ctx, a.ID))
		_, err = s.GetAccount(ctx, a.ID)
		assert.True(t, errors.Is(err, errs.ErrNotFound), "got %v", err)
		assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), errs.ErrNotFound)

		_, err = s.UpdateAccount(ctx, ledger.Account{ID: "missing", AccountNumber: "x", AccountName: "x"})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("bulk account delete", func(t *testing.T) {
		a, err := s.InsertAccount(ctx, ledger.Account{AccountNumber: "2000", AccountName: "AP", AccountType: ledger.AccountTypeLiability, Category: ledger.CategoryCurrentLiabilities})
		require.NoError(t, err)
		b, err := s.InsertAccount(ctx, ledger.Account{AccountNumber: "3000", AccountName: "Owner", AccountType: ledger.AccountTypeEquity, Category: ledger.CategoryOwnerEquity})
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeleteAccounts(ctx, []string{a.ID, "missing"}), errs.ErrNotFound)
		_, err = s.GetAccount(ctx, a.ID)
		require.NoError(t, err, "failed bulk delete must not remove anything")

		require.NoError(t, s.DeleteAccounts(ctx, []string{a.ID, b.ID}))
		list, err := s.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("entries and items", func(t *testing.T) {
		date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		e, err := s.InsertEntry(ctx, ledger.JournalEntry{
			EntryNumber: "JE-000001", Date: date, Description: "Rent", Status: ledger.StatusDraft,
			TotalDebit: 500, TotalCredit: 500,
		})
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)

		items, err := s.InsertItems(ctx, e.ID, []ledger.JournalEntryItem{
			{AccountID: "acc-1", AccountName: "Rent Expense", Debit: 500},
			{AccountID: "acc-2", AccountName: "Cash", Credit: 500},
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, e.ID, items[0].JournalEntryID)
		assert.NotEqual(t, items[0].ID, items[1].ID)

		got, err := s.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "JE-000001", got.EntryNumber)
		assert.True(t, date.Equal(got.Date))

		byEntry, err := s.ItemsByEntry(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, byEntry, 2)
		assert.Equal(t, "Rent Expense", byEntry[0].AccountName)
		assert.Equal(t, ledger.Amount(500), byEntry[1].Credit)

		got.Status = ledger.StatusPosted
		upd, err := s.UpdateEntry(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusPosted, upd.Status)

		require.NoError(t, s.DeleteItemsByEntry(ctx, e.ID))
		byEntry, err = s.ItemsByEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Empty(t, byEntry)

		require.NoError(t, s.DeleteEntry(ctx, e.ID))
		_, err = s.GetEntry(ctx, e.ID)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.ErrorIs(t, s.DeleteEntry(ctx, e.ID), errs.ErrNotFound)
	})

	t.Run("entry delete cascades items", func(t *testing.T) {
		e, err := s.InsertEntry(ctx, ledger.JournalEntry{EntryNumber: "JE-2", Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Description: "x", Status: ledger.StatusDraft})
		require.NoError(t, err)
		_, err = s.InsertItems(ctx, e.ID, []ledger.JournalEntryItem{{AccountID: "acc-1", AccountName: "Cash", Debit: 1}})
		require.NoError(t, err)

		require.NoError(t, s.DeleteEntries(ctx, []string{e.ID}))
		all, err := s.ListItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	if tx, ok := s.(storage.Transactor); ok {
		t.Run("transaction rollback", func(t *testing.T) {
			boom := errors.New("boom")
			err := tx.WithTx(ctx, func(st storage.Store) error {
				if _, err := st.InsertAccount(ctx, ledger.Account{AccountNumber: "9000", AccountName: "Temp", AccountType: ledger.AccountTypeExpense, Category: ledger.CategoryOtherExpenses}); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)
			list, err := s.ListAccounts(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})

		t.Run("transaction commit", func(t *testing.T) {
			var id string
			err := tx.WithTx(ctx, func(st storage.Store) error {
				a, err := st.InsertAccount(ctx, ledger.Account{AccountNumber: "9100", AccountName: "Kept", AccountType: ledger.AccountTypeExpense, Category: ledger.CategoryOtherExpenses})
				id = a.ID
				return err
			})
			require.NoError(t, err)
			_, err = s.GetAccount(ctx, id)
			require.NoError(t, err)
			require.NoError(t, s.DeleteAccount(ctx, id))
		})
	}
}

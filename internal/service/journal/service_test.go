package journal_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/service/journal"
	"github.com/tinoosan/bizledger/internal/storage"
	"github.com/tinoosan/bizledger/internal/storage/memory"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

type fixture struct {
	st   *memory.Store
	svc  journal.Service
	cash ledger.Account
	ap   ledger.Account
}

func setup(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	cash := st.SeedAccount(ledger.Account{AccountNumber: "1000", AccountName: "Cash", AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 2500000})
	ap := st.SeedAccount(ledger.Account{AccountNumber: "2000", AccountName: "Accounts Payable", AccountType: ledger.AccountTypeLiability, Category: ledger.CategoryCurrentLiabilities, Balance: 800000})
	svc := journal.New(st, st, journal.WithClock(func() time.Time { return fixedNow }))
	return fixture{st: st, svc: svc, cash: cash, ap: ap}
}

func header(status ledger.EntryStatus) journal.EntryHeader {
	return journal.EntryHeader{
		EntryNumber: "JE-001",
		Date:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Description: "Pay supplier",
		Status:      status,
	}
}

func TestCreateEntry_TotalsEqualItemSums(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, header(""), []journal.ItemInput{
		{AccountID: f.ap.ID, Debit: 12550},
		{AccountID: f.cash.ID, Credit: 10000},
		{AccountID: f.cash.ID, Credit: 2550},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDraft, e.Status)
	assert.Equal(t, ledger.Amount(12550), e.TotalDebit)
	assert.Equal(t, ledger.Amount(12550), e.TotalCredit)
	require.Len(t, e.Items, 3)
	assert.Equal(t, "Accounts Payable", e.Items[0].AccountName)
	assert.Equal(t, "1000", e.Items[1].AccountNumber)
	for _, it := range e.Items {
		assert.Equal(t, e.ID, it.JournalEntryID)
	}

	got, err := f.svc.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.TotalDebit, got.TotalDebit)
	assert.Equal(t, e.TotalCredit, got.TotalCredit)
	assert.Len(t, got.Items, 3)
}

func TestCreateEntry_PostedMustBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateEntry(ctx, header(ledger.StatusPosted), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 100},
		{AccountID: f.ap.ID, Credit: 100},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateEntry(ctx, header(ledger.StatusPosted), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 100},
		{AccountID: f.ap.ID, Credit: 50},
	})
	var ue *errs.UnbalancedEntryError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, int64(100), ue.TotalDebit)
	assert.Equal(t, int64(50), ue.TotalCredit)
	assert.ErrorIs(t, err, errs.ErrValidation)

	all, err := f.svc.ListEntries(ctx, journal.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected entry must not be stored")
}

func TestCreateEntry_DraftMayBeUnbalanced(t *testing.T) {
	f := setup(t)
	e, err := f.svc.CreateEntry(context.Background(), header(ledger.StatusDraft), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 100},
	})
	require.NoError(t, err)
	assert.False(t, e.Balanced())
}

func TestCreateEntry_AmountsCannotWrapIntoBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// credits that would wrap int64 back to the debit total
	_, err := f.svc.CreateEntry(ctx, header(ledger.StatusPosted), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 1},
		{AccountID: f.ap.ID, Credit: math.MaxInt64},
		{AccountID: f.ap.ID, Credit: math.MaxInt64},
		{AccountID: f.ap.ID, Credit: 3},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	// every item in range, the sum is not
	n := int(math.MaxInt64/int64(ledger.MaxAmount)) + 1
	items := make([]journal.ItemInput, n)
	for i := range items {
		items[i] = journal.ItemInput{AccountID: f.cash.ID, Debit: ledger.MaxAmount}
	}
	_, err = f.svc.CreateEntry(ctx, header(ledger.StatusDraft), items)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items", ve.Field)

	all, err := f.svc.ListEntries(ctx, journal.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	e, err := f.svc.CreateEntry(ctx, header(ledger.StatusPosted), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: ledger.MaxAmount},
		{AccountID: f.ap.ID, Credit: ledger.MaxAmount},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.MaxAmount, e.TotalCredit)
}

func TestValidateEntry_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		h     journal.EntryHeader
		items []journal.ItemInput
	}{
		{"no items", header(""), nil},
		{"missing date", journal.EntryHeader{EntryNumber: "JE", Description: "x"}, []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}}},
		{"missing description", journal.EntryHeader{EntryNumber: "JE", Date: fixedNow}, []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}}},
		{"bad status", journal.EntryHeader{EntryNumber: "JE", Date: fixedNow, Description: "x", Status: "closed"}, []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}}},
		{"both sides", header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1, Credit: 1}}},
		{"neither side", header(""), []journal.ItemInput{{AccountID: f.cash.ID}}},
		{"negative", header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: -5}}},
		{"unknown account", header(""), []journal.ItemInput{{AccountID: "ghost", Debit: 5}}},
		{"missing account", header(""), []journal.ItemInput{{Debit: 5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateEntry(ctx, tc.h, tc.items)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestEntryNumber_GeneratedFromClock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	items := []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}}

	_, err := f.svc.ValidateEntry(ctx, journal.EntryHeader{Date: fixedNow, Description: "x"}, items)
	assert.ErrorIs(t, err, errs.ErrValidation)

	h := header("")
	h.EntryNumber = "  "
	e, err := f.svc.CreateEntry(ctx, h, items)
	require.NoError(t, err)
	assert.Equal(t, "JE-413589", e.EntryNumber)

	h.EntryNumber = ""
	h.Description = "Renamed"
	upd, err := f.svc.UpdateEntry(ctx, e.ID, h, items)
	require.NoError(t, err)
	assert.Equal(t, "JE-413589", upd.EntryNumber)
	assert.Equal(t, "Renamed", upd.Description)
}

func TestUpdateEntry_ReplacesItemsAndRecomputesTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, header(""), []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 100},
		{AccountID: f.ap.ID, Credit: 100},
	})
	require.NoError(t, err)

	h := header("")
	h.Description = "Corrected"
	up, err := f.svc.UpdateEntry(ctx, e.ID, h, []journal.ItemInput{
		{AccountID: f.cash.ID, Debit: 300},
		{AccountID: f.ap.ID, Credit: 300},
	})
	require.NoError(t, err)
	assert.Equal(t, "Corrected", up.Description)
	assert.Equal(t, ledger.Amount(300), up.TotalDebit)
	assert.Equal(t, ledger.Amount(300), up.TotalCredit)

	items, err := f.st.ItemsByEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestUpdateEntry_UnknownID(t *testing.T) {
	f := setup(t)
	_, err := f.svc.UpdateEntry(context.Background(), "nope", header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	balanced := []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}, {AccountID: f.ap.ID, Credit: 100}}

	e, err := f.svc.CreateEntry(ctx, header(""), balanced)
	require.NoError(t, err)

	posted, err := f.svc.Post(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, posted.Status)
	assert.Len(t, posted.Items, 2)

	_, err = f.svc.UpdateEntry(ctx, e.ID, header(ledger.StatusDraft), balanced)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	voided, err := f.svc.Void(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVoided, voided.Status)

	_, err = f.svc.Post(ctx, e.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestPost_UnbalancedDraftFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}, {AccountID: f.ap.ID, Credit: 50}})
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, e.ID)
	assert.ErrorIs(t, err, errs.ErrUnbalanced)

	got, err := f.svc.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDraft, got.Status)
}

func TestDeleteEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteEntry(ctx, e.ID))
	items, err := f.st.ItemsByEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = f.svc.DeleteEntry(ctx, e.ID)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteEntries_UnknownAbortsAll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}})
	require.NoError(t, err)
	err = f.svc.DeleteEntries(ctx, []string{e.ID, "ghost"})
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteEntries(ctx, []string{e.ID}))
}

func TestListEntries_FilterAndOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mk := func(num string, day int, desc, ref string) {
		h := journal.EntryHeader{EntryNumber: num, Date: time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC), Description: desc, Reference: ref}
		_, err := f.svc.CreateEntry(ctx, h, []journal.ItemInput{{AccountID: f.cash.ID, Debit: 1}})
		require.NoError(t, err)
	}
	mk("JE-003", 5, "Rent", "INV-9")
	mk("JE-002", 1, "Office supplies", "")
	mk("JE-001", 5, "Owner draw", "")

	all, err := f.svc.ListEntries(ctx, journal.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "JE-002", all[0].EntryNumber)
	assert.Equal(t, "JE-001", all[1].EntryNumber)
	assert.Equal(t, "JE-003", all[2].EntryNumber)

	again, err := f.svc.ListEntries(ctx, journal.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, all, again)

	q, err := f.svc.ListEntries(ctx, journal.EntryFilter{Query: "inv-9"})
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "Rent", q[0].Description)

	posted, err := f.svc.ListEntries(ctx, journal.EntryFilter{Status: ledger.StatusPosted})
	require.NoError(t, err)
	assert.Empty(t, posted)
}

// failingItems hides the memory store's transaction support and fails item inserts.
type failingItems struct {
	storage.Store
}

func (failingItems) InsertItems(context.Context, string, []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error) {
	return nil, errors.New("connection reset")
}

func TestCreateEntry_CompensatesWithoutTransactions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	w := failingItems{Store: f.st}
	svc := journal.New(w, w)
	_, err := svc.CreateEntry(ctx, header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}})
	require.ErrorIs(t, err, errs.ErrPersistence)

	entries, err := f.st.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "header must be removed when items fail")
}

// failingTx keeps transactions but fails item inserts inside them.
type failingTx struct {
	*memory.Store
}

func (s failingTx) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Store) error { return fn(failingItems{Store: tx}) })
}

func TestCreateEntry_RollsBackInTransaction(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	w := failingTx{Store: f.st}
	svc := journal.New(w, w)
	_, err := svc.CreateEntry(ctx, header(""), []journal.ItemInput{{AccountID: f.cash.ID, Debit: 100}})
	require.ErrorIs(t, err, errs.ErrPersistence)

	entries, err := f.st.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

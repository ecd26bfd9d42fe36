package report_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/report"
)

func acct(id, num string, t ledger.AccountType, bal ledger.Amount) ledger.Account {
	return ledger.Account{ID: id, AccountNumber: num, AccountName: "acct " + num, AccountType: t, Balance: bal}
}

func TestTotalsForType_Empty(t *testing.T) {
	for _, in := range [][]ledger.Account{nil, {}} {
		total, err := report.TotalsForType(in, ledger.AccountTypeAsset)
		require.NoError(t, err)
		assert.Equal(t, ledger.Amount(0), total)
	}
}

func TestTotals_OverflowIsAnError(t *testing.T) {
	huge := []ledger.Account{
		acct("a1", "1000", ledger.AccountTypeAsset, math.MaxInt64),
		acct("a2", "1100", ledger.AccountTypeAsset, 1),
		acct("r1", "4000", ledger.AccountTypeRevenue, math.MaxInt64),
		acct("e1", "5000", ledger.AccountTypeExpense, -1),
	}

	_, err := report.TotalsForType(huge, ledger.AccountTypeAsset)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = report.AccountBalancesByType(huge)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = report.BalanceSheetSummary(huge)
	assert.ErrorIs(t, err, errs.ErrValidation)

	// revenue alone fits; revenue minus a negative expense does not
	_, err = report.ProfitAndLoss(huge[2:])
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = report.CheckAccountingIdentity(report.BalanceSheet{
		TotalAssets:      -2,
		TotalLiabilities: math.MaxInt64,
		TotalEquity:      0,
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	// item sums that would wrap back to a balanced total
	wrapped := []ledger.JournalEntry{{
		Status: ledger.StatusPosted,
		Items: []ledger.JournalEntryItem{
			{AccountID: "a2", Debit: 1},
			{AccountID: "a2", Credit: math.MaxInt64},
			{AccountID: "a2", Credit: math.MaxInt64},
			{AccountID: "a2", Credit: 3},
		},
	}}
	_, err = report.TrialBalance(huge, wrapped)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = report.RunningBalances(huge, wrapped)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAccountBalancesByType(t *testing.T) {
	accounts := []ledger.Account{
		acct("a1", "1000", ledger.AccountTypeAsset, 100),
		acct("a2", "1200", ledger.AccountTypeAsset, 50),
		acct("l1", "2000", ledger.AccountTypeLiability, 30),
	}
	by, err := report.AccountBalancesByType(accounts)
	require.NoError(t, err)
	require.Len(t, by, 5)
	assert.Equal(t, ledger.Amount(150), by[ledger.AccountTypeAsset].Total)
	assert.Len(t, by[ledger.AccountTypeAsset].Accounts, 2)
	assert.Equal(t, ledger.Amount(30), by[ledger.AccountTypeLiability].Total)
	for _, typ := range []ledger.AccountType{ledger.AccountTypeEquity, ledger.AccountTypeRevenue, ledger.AccountTypeExpense} {
		assert.Equal(t, ledger.Amount(0), by[typ].Total, typ)
		assert.Empty(t, by[typ].Accounts, typ)
	}
	// input untouched
	assert.Equal(t, ledger.Amount(100), accounts[0].Balance)
}

func TestProfitAndLoss(t *testing.T) {
	pnl, err := report.ProfitAndLoss([]ledger.Account{
		acct("r1", "4000", ledger.AccountTypeRevenue, 90000),
		acct("r2", "4100", ledger.AccountTypeRevenue, 10000),
		acct("e1", "5000", ledger.AccountTypeExpense, 120000),
		acct("a1", "1000", ledger.AccountTypeAsset, 999),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Amount(100000), pnl.Revenue)
	assert.Equal(t, ledger.Amount(120000), pnl.Expenses)
	assert.Equal(t, ledger.Amount(-20000), pnl.NetIncome)
}

func TestBalanceSheetSummary_DoesNotEnforceIdentity(t *testing.T) {
	// mock chart: 25000 + 15000 assets vs 8000 liabilities + 50000 equity
	bs, err := report.BalanceSheetSummary([]ledger.Account{
		acct("1", "1000", ledger.AccountTypeAsset, 2500000),
		acct("2", "1200", ledger.AccountTypeAsset, 1500000),
		acct("3", "2000", ledger.AccountTypeLiability, 800000),
		acct("4", "3000", ledger.AccountTypeEquity, 5000000),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Amount(4000000), bs.TotalAssets)
	assert.Equal(t, ledger.Amount(800000), bs.TotalLiabilities)
	assert.Equal(t, ledger.Amount(5000000), bs.TotalEquity)
	assert.Len(t, bs.Assets, 2)

	chk, err := report.CheckAccountingIdentity(bs)
	require.NoError(t, err)
	assert.False(t, chk.Holds)
	assert.Equal(t, ledger.Amount(-1800000), chk.Difference)
}

func postedEntry(status ledger.EntryStatus, items ...ledger.JournalEntryItem) ledger.JournalEntry {
	d, c, _ := ledger.Totals(items)
	return ledger.JournalEntry{Status: status, Items: items, TotalDebit: d, TotalCredit: c}
}

func TestTrialBalanceAndRunningBalances(t *testing.T) {
	accounts := []ledger.Account{
		acct("cash", "1000", ledger.AccountTypeAsset, 1000),
		acct("ap", "2000", ledger.AccountTypeLiability, 500),
		acct("rev", "4000", ledger.AccountTypeRevenue, 0),
	}
	entries := []ledger.JournalEntry{
		postedEntry(ledger.StatusPosted,
			ledger.JournalEntryItem{AccountID: "cash", Debit: 300},
			ledger.JournalEntryItem{AccountID: "rev", Credit: 300}),
		postedEntry(ledger.StatusPosted,
			ledger.JournalEntryItem{AccountID: "ap", Debit: 200},
			ledger.JournalEntryItem{AccountID: "cash", Credit: 200}),
		postedEntry(ledger.StatusDraft,
			ledger.JournalEntryItem{AccountID: "cash", Debit: 9999}),
		postedEntry(ledger.StatusVoided,
			ledger.JournalEntryItem{AccountID: "cash", Credit: 9999}),
	}

	tb, err := report.TrialBalance(accounts, entries)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, "1000", tb.Rows[0].AccountNumber)
	assert.Equal(t, ledger.Amount(300), tb.Rows[0].Debit)
	assert.Equal(t, ledger.Amount(200), tb.Rows[0].Credit)
	assert.Equal(t, tb.TotalDebit, tb.TotalCredit)
	assert.Equal(t, ledger.Amount(500), tb.TotalDebit)

	rb, err := report.RunningBalances(accounts, entries)
	require.NoError(t, err)
	assert.Equal(t, ledger.Amount(1100), rb["cash"])
	assert.Equal(t, ledger.Amount(300), rb["ap"])
	assert.Equal(t, ledger.Amount(300), rb["rev"])
	// stored balances are not rewritten
	assert.Equal(t, ledger.Amount(1000), accounts[0].Balance)
}

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/ledger"
)

func TestWriteAccounts(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAccounts(&buf, "USD", []ledger.Account{
		{AccountNumber: "1000", AccountName: "Cash", AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 2500000},
		{AccountNumber: "2000", AccountName: "Payable, trade", AccountType: ledger.AccountTypeLiability, Category: ledger.CategoryCurrentLiabilities, Balance: 5},
	})
	require.NoError(t, err)

	want := "account_number,account_name,account_type,category,balance\n" +
		"1000,Cash,Asset,Current Assets,25000.00\n" +
		"2000,\"Payable, trade\",Liability,Current Liabilities,0.05\n"
	assert.Equal(t, want, buf.String())
}

func TestAccountsRoundTrip(t *testing.T) {
	in := []ledger.Account{
		{AccountNumber: "1200", AccountName: "Accounts Receivable", AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 1500000},
		{AccountNumber: "3000", AccountName: "Owner Equity", AccountType: ledger.AccountTypeEquity, Category: ledger.CategoryOwnerEquity, Balance: -250},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, "USD", in))

	rows, err := ReadAccounts(&buf, "USD")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1200", rows[0].AccountNumber)
	assert.Equal(t, ledger.CategoryCurrentAssets, rows[0].Category)
	assert.Equal(t, ledger.Amount(1500000), rows[0].Balance)
	assert.Equal(t, ledger.AccountTypeEquity, rows[1].AccountType)
	assert.Equal(t, ledger.Amount(-250), rows[1].Balance)
}

func TestReadAccounts_BadBalance(t *testing.T) {
	src := "account_number,account_name,account_type,category,balance\n1000,Cash,asset,Current Assets,12.345\n"
	_, err := ReadAccounts(strings.NewReader(src), "USD")
	assert.ErrorContains(t, err, "row 2")
}

func TestWriteEntries(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEntries(&buf, "USD", []ledger.JournalEntry{{
		EntryNumber: "JE-413589",
		Date:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Description: "Rent",
		Status:      ledger.StatusPosted,
		TotalDebit:  120000,
		TotalCredit: 120000,
	}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "entry_number,date,description,reference,total_debit,total_credit,status", lines[0])
	assert.Equal(t, "JE-413589,2025-01-02,Rent,,1200.00,1200.00,posted", lines[1])
}

// Package export renders registry and ledger listings as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tinoosan/bizledger/internal/dictionary"
	"github.com/tinoosan/bizledger/internal/ledger"
)

const (
	accountFields = 5
	colNumber     = 0
	colName       = 1
	colType       = 2
	colCategory   = 3
	colBalance    = 4
)

var accountHeader = []string{"account_number", "account_name", "account_type", "category", "balance"}

var entryHeader = []string{"entry_number", "date", "description", "reference", "total_debit", "total_credit", "status"}

// DateLayout is the date format used in CSV output.
const DateLayout = "2006-01-02"

// WriteAccounts writes one row per account in the given order.
func WriteAccounts(w io.Writer, curr string, accounts []ledger.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(accountHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range accounts {
		if err := cw.Write(MarshalAccount(curr, a)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(curr string, a ledger.Account) []string {
	row := make([]string, accountFields)
	row[colNumber] = a.AccountNumber
	row[colName] = a.AccountName
	row[colType] = string(a.AccountType)
	row[colCategory] = string(a.Category)
	row[colBalance] = a.Balance.Format(curr)
	return row
}

// AccountRow is a parsed chart-of-accounts line. Classification is not
// validated here; the account registry does that on create.
type AccountRow struct {
	AccountNumber string
	AccountName   string
	AccountType   ledger.AccountType
	Category      ledger.Category
	Balance       ledger.Amount
}

// ReadAccounts parses a file produced by WriteAccounts. The header row is required.
func ReadAccounts(r io.Reader, curr string) ([]AccountRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = accountFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !strings.EqualFold(strings.TrimSpace(records[0][colNumber]), accountHeader[colNumber]) {
		return nil, fmt.Errorf("unexpected header %q", records[0])
	}

	rows := make([]AccountRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		bal, err := ledger.ParseAmount(curr, rec[colBalance])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing balance %q: %w", i+2, rec[colBalance], err)
		}
		typ, ok := ledger.ParseAccountType(rec[colType])
		if !ok {
			typ = ledger.AccountType(strings.TrimSpace(rec[colType]))
		}
		rows = append(rows, AccountRow{
			AccountNumber: strings.TrimSpace(rec[colNumber]),
			AccountName:   strings.TrimSpace(rec[colName]),
			AccountType:   typ,
			Category:      category(rec[colCategory]),
			Balance:       bal,
		})
	}
	return rows, nil
}

// WriteEntries writes one row per entry header. Items are not included.
func WriteEntries(w io.Writer, curr string, entries []ledger.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(entryHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		row := []string{
			e.EntryNumber,
			e.Date.Format(DateLayout),
			e.Description,
			e.Reference,
			e.TotalDebit.Format(curr),
			e.TotalCredit.Format(curr),
			string(e.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func category(raw string) ledger.Category {
	c, _ := dictionary.ParseCategory(raw)
	return c
}

package ledger

import (
	"strings"
	"time"
)

// AccountType enumerates the broad classification of an account in the chart of accounts.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side and holds resources owned by the business.
	AccountTypeAsset AccountType = "Asset"
	// AccountTypeLiability increases on the credit side and tracks obligations.
	AccountTypeLiability AccountType = "Liability"
	// AccountTypeEquity captures the owner's residual interest in the business.
	AccountTypeEquity AccountType = "Equity"
	// AccountTypeRevenue represents inflows that increase equity.
	AccountTypeRevenue AccountType = "Revenue"
	// AccountTypeExpense represents outflows that decrease equity.
	AccountTypeExpense AccountType = "Expense"
)

// AccountTypes lists every account type in presentation order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether balances of this type grow on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// ParseAccountType resolves s case-insensitively ("asset", "ASSET", "Asset").
func ParseAccountType(s string) (AccountType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range AccountTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Category is the sub-classification of an account. The categories allowed for
// each AccountType live in the dictionary package.
type Category string

const (
	CategoryCurrentAssets          Category = "Current Assets"
	CategoryFixedAssets            Category = "Fixed Assets"
	CategoryOtherAssets            Category = "Other Assets"
	CategoryCurrentLiabilities     Category = "Current Liabilities"
	CategoryLongTermLiabilities    Category = "Long-term Liabilities"
	CategoryOwnerEquity            Category = "Owner Equity"
	CategoryRetainedEarnings       Category = "Retained Earnings"
	CategorySalesRevenue           Category = "Sales Revenue"
	CategoryServiceRevenue         Category = "Service Revenue"
	CategoryOtherRevenue           Category = "Other Revenue"
	CategoryOperatingExpenses      Category = "Operating Expenses"
	CategoryAdministrativeExpenses Category = "Administrative Expenses"
	CategoryOtherExpenses          Category = "Other Expenses"
)

// Account is a row in the chart of accounts.
type Account struct {
	ID            string      `json:"id"`
	AccountNumber string      `json:"account_number"`
	AccountName   string      `json:"account_name"`
	AccountType   AccountType `json:"account_type"`
	Category      Category    `json:"category"`
	// Balance is the opening/current balance as entered; journal postings do not rewrite it.
	Balance     Amount    `json:"balance"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Label returns "number - name" for display next to line items.
func (a Account) Label() string {
	if a.AccountNumber == "" {
		return a.AccountName
	}
	return a.AccountNumber + " - " + a.AccountName
}

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
	StatusVoided EntryStatus = "voided"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusVoided:
		return true
	}
	return false
}

// CanTransition reports whether an entry may move from s to next.
// Staying in the same status is always allowed; nothing leaves voided.
func (s EntryStatus) CanTransition(next EntryStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusPosted || next == StatusVoided
	case StatusPosted:
		return next == StatusVoided
	}
	return false
}

// JournalEntry is the header of a balanced set of journal items.
type JournalEntry struct {
	ID          string             `json:"id"`
	EntryNumber string             `json:"entry_number"`
	Date        time.Time          `json:"date"`
	Description string             `json:"description"`
	Reference   string             `json:"reference,omitempty"`
	Status      EntryStatus        `json:"status"`
	TotalDebit  Amount             `json:"total_debit"`
	TotalCredit Amount             `json:"total_credit"`
	Items       []JournalEntryItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Balanced reports whether total debits equal total credits.
func (e JournalEntry) Balanced() bool { return e.TotalDebit == e.TotalCredit }

// JournalEntryItem links a journal entry to an account with a debit or a credit.
type JournalEntryItem struct {
	ID             string    `json:"id"`
	JournalEntryID string    `json:"journal_entry_id"`
	AccountID      string    `json:"account_id"`
	AccountName    string    `json:"account_name"`
	AccountNumber  string    `json:"account_number,omitempty"`
	Debit          Amount    `json:"debit"`
	Credit         Amount    `json:"credit"`
	CreatedAt      time.Time `json:"created_at"`
}

// Totals sums debits and credits across items. A sum that leaves the int64
// range fails with ErrOverflow.
func Totals(items []JournalEntryItem) (debit, credit Amount, err error) {
	for _, it := range items {
		if debit, err = debit.Add(it.Debit); err != nil {
			return 0, 0, err
		}
		if credit, err = credit.Add(it.Credit); err != nil {
			return 0, 0, err
		}
	}
	return debit, credit, nil
}

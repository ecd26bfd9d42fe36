package httpapi

import (
	"time"

	"github.com/tinoosan/bizledger/internal/ledger"
)

// Amounts travel as minor-unit integers; responses add the formatted decimal.

// Accounts

type postAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,max=32"`
	AccountName   string `json:"account_name" validate:"required,max=200"`
	AccountType   string `json:"account_type" validate:"required"`
	Category      string `json:"category" validate:"required"`
	BalanceMinor  int64  `json:"balance_minor" validate:"min=-1000000000000000,max=1000000000000000"`
	Description   string `json:"description" validate:"max=2000"`
}

type patchAccountRequest struct {
	AccountNumber *string `json:"account_number" validate:"omitempty,max=32"`
	AccountName   *string `json:"account_name" validate:"omitempty,max=200"`
	AccountType   *string `json:"account_type"`
	Category      *string `json:"category"`
	BalanceMinor  *int64  `json:"balance_minor" validate:"omitempty,min=-1000000000000000,max=1000000000000000"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
}

type accountResponse struct {
	ID            string             `json:"id"`
	AccountNumber string             `json:"account_number"`
	AccountName   string             `json:"account_name"`
	AccountType   ledger.AccountType `json:"account_type"`
	Category      ledger.Category    `json:"category"`
	BalanceMinor  int64              `json:"balance_minor"`
	Balance       string             `json:"balance"`
	Description   string             `json:"description,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type listAccountsResponse struct {
	Items []accountResponse `json:"items"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// Entries

type postEntryRequest struct {
	// EntryNumber is generated when omitted.
	EntryNumber string             `json:"entry_number" validate:"max=64"`
	Date        string             `json:"date" validate:"required,datetime=2006-01-02"`
	Description string             `json:"description" validate:"required,max=500"`
	Reference   string             `json:"reference" validate:"max=200"`
	Status      string             `json:"status" validate:"omitempty,oneof=draft posted voided"`
	Items       []entryItemRequest `json:"items" validate:"required,min=1,dive"`
}

type entryItemRequest struct {
	AccountID   string `json:"account_id" validate:"required"`
	DebitMinor  int64  `json:"debit_minor" validate:"gte=0,lte=1000000000000000"`
	CreditMinor int64  `json:"credit_minor" validate:"gte=0,lte=1000000000000000"`
}

type entryResponse struct {
	ID               string             `json:"id"`
	EntryNumber      string             `json:"entry_number"`
	Date             string             `json:"date"`
	Description      string             `json:"description"`
	Reference        string             `json:"reference,omitempty"`
	Status           ledger.EntryStatus `json:"status"`
	TotalDebitMinor  int64              `json:"total_debit_minor"`
	TotalCreditMinor int64              `json:"total_credit_minor"`
	TotalDebit       string             `json:"total_debit"`
	TotalCredit      string             `json:"total_credit"`
	Items            []itemResponse     `json:"items"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type itemResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number,omitempty"`
	DebitMinor    int64  `json:"debit_minor"`
	CreditMinor   int64  `json:"credit_minor"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
}

// Reports

type typeTotalResponse struct {
	Type       ledger.AccountType `json:"type"`
	TotalMinor int64              `json:"total_minor"`
	Total      string             `json:"total"`
	Accounts   []accountResponse  `json:"accounts"`
}

type balanceSheetResponse struct {
	Assets                []accountResponse `json:"assets"`
	Liabilities           []accountResponse `json:"liabilities"`
	Equity                []accountResponse `json:"equity"`
	TotalAssetsMinor      int64             `json:"total_assets_minor"`
	TotalLiabilitiesMinor int64             `json:"total_liabilities_minor"`
	TotalEquityMinor      int64             `json:"total_equity_minor"`
	TotalAssets           string            `json:"total_assets"`
	TotalLiabilities      string            `json:"total_liabilities"`
	TotalEquity           string            `json:"total_equity"`
	Balanced              bool              `json:"balanced"`
	DifferenceMinor       int64             `json:"difference_minor"`
}

type profitAndLossResponse struct {
	RevenueMinor   int64  `json:"revenue_minor"`
	ExpensesMinor  int64  `json:"expenses_minor"`
	NetIncomeMinor int64  `json:"net_income_minor"`
	Revenue        string `json:"revenue"`
	Expenses       string `json:"expenses"`
	NetIncome      string `json:"net_income"`
}

type trialBalanceRowResponse struct {
	AccountID     string             `json:"account_id"`
	AccountNumber string             `json:"account_number"`
	AccountName   string             `json:"account_name"`
	AccountType   ledger.AccountType `json:"account_type,omitempty"`
	DebitMinor    int64              `json:"debit_minor"`
	CreditMinor   int64              `json:"credit_minor"`
	Debit         string             `json:"debit"`
	Credit        string             `json:"credit"`
}

type trialBalanceResponse struct {
	Rows             []trialBalanceRowResponse `json:"rows"`
	TotalDebitMinor  int64                     `json:"total_debit_minor"`
	TotalCreditMinor int64                     `json:"total_credit_minor"`
	TotalDebit       string                    `json:"total_debit"`
	TotalCredit      string                    `json:"total_credit"`
}

type runningBalanceResponse struct {
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BalanceMinor  int64  `json:"balance_minor"`
	Balance       string `json:"balance"`
}

func (s *Server) toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		AccountName:   a.AccountName,
		AccountType:   a.AccountType,
		Category:      a.Category,
		BalanceMinor:  int64(a.Balance),
		Balance:       a.Balance.Format(s.curr),
		Description:   a.Description,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (s *Server) toAccountResponses(accounts []ledger.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, s.toAccountResponse(a))
	}
	return out
}

func (s *Server) toEntryResponse(e ledger.JournalEntry) entryResponse {
	items := make([]itemResponse, 0, len(e.Items))
	for _, it := range e.Items {
		items = append(items, itemResponse{
			ID:            it.ID,
			AccountID:     it.AccountID,
			AccountName:   it.AccountName,
			AccountNumber: it.AccountNumber,
			DebitMinor:    int64(it.Debit),
			CreditMinor:   int64(it.Credit),
			Debit:         it.Debit.Format(s.curr),
			Credit:        it.Credit.Format(s.curr),
		})
	}
	return entryResponse{
		ID:               e.ID,
		EntryNumber:      e.EntryNumber,
		Date:             e.Date.Format(dateLayout),
		Description:      e.Description,
		Reference:        e.Reference,
		Status:           e.Status,
		TotalDebitMinor:  int64(e.TotalDebit),
		TotalCreditMinor: int64(e.TotalCredit),
		TotalDebit:       e.TotalDebit.Format(s.curr),
		TotalCredit:      e.TotalCredit.Format(s.curr),
		Items:            items,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

package httpapi

import (
	"net/http"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/report"
	"github.com/tinoosan/bizledger/internal/service/account"
	"github.com/tinoosan/bizledger/internal/service/journal"
)

func (s *Server) loadAccounts(w http.ResponseWriter, r *http.Request) ([]ledger.Account, bool) {
	accounts, err := s.accounts.List(r.Context(), account.AccountFilter{})
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return accounts, true
}

func (s *Server) loadPosted(w http.ResponseWriter, r *http.Request) ([]ledger.JournalEntry, bool) {
	entries, err := s.journal.ListEntries(r.Context(), journal.EntryFilter{Status: ledger.StatusPosted})
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return entries, true
}

// GET /v1/reports/balances-by-type
func (s *Server) balancesByType(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	by, err := report.AccountBalancesByType(accounts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := struct {
		Items []typeTotalResponse `json:"items"`
	}{Items: make([]typeTotalResponse, 0, len(ledger.AccountTypes))}
	for _, t := range ledger.AccountTypes {
		b := by[t]
		out.Items = append(out.Items, typeTotalResponse{
			Type:       t,
			TotalMinor: int64(b.Total),
			Total:      b.Total.Format(s.curr),
			Accounts:   s.toAccountResponses(b.Accounts),
		})
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/reports/balance-sheet
func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	bs, err := report.BalanceSheetSummary(accounts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	check, err := report.CheckAccountingIdentity(bs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !check.Holds {
		s.log.Warn("accounting identity does not hold", "difference", int64(check.Difference))
	}
	toJSON(w, http.StatusOK, balanceSheetResponse{
		Assets:                s.toAccountResponses(bs.Assets),
		Liabilities:           s.toAccountResponses(bs.Liabilities),
		Equity:                s.toAccountResponses(bs.Equity),
		TotalAssetsMinor:      int64(bs.TotalAssets),
		TotalLiabilitiesMinor: int64(bs.TotalLiabilities),
		TotalEquityMinor:      int64(bs.TotalEquity),
		TotalAssets:           bs.TotalAssets.Format(s.curr),
		TotalLiabilities:      bs.TotalLiabilities.Format(s.curr),
		TotalEquity:           bs.TotalEquity.Format(s.curr),
		Balanced:              check.Holds,
		DifferenceMinor:       int64(check.Difference),
	})
}

// GET /v1/reports/profit-and-loss
func (s *Server) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	p, err := report.ProfitAndLoss(accounts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, profitAndLossResponse{
		RevenueMinor:   int64(p.Revenue),
		ExpensesMinor:  int64(p.Expenses),
		NetIncomeMinor: int64(p.NetIncome),
		Revenue:        p.Revenue.Format(s.curr),
		Expenses:       p.Expenses.Format(s.curr),
		NetIncome:      p.NetIncome.Format(s.curr),
	})
}

// GET /v1/reports/trial-balance
func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	entries, ok := s.loadPosted(w, r)
	if !ok {
		return
	}
	tb, err := report.TrialBalance(accounts, entries)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := trialBalanceResponse{
		Rows:             make([]trialBalanceRowResponse, 0, len(tb.Rows)),
		TotalDebitMinor:  int64(tb.TotalDebit),
		TotalCreditMinor: int64(tb.TotalCredit),
		TotalDebit:       tb.TotalDebit.Format(s.curr),
		TotalCredit:      tb.TotalCredit.Format(s.curr),
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, trialBalanceRowResponse{
			AccountID:     row.AccountID,
			AccountNumber: row.AccountNumber,
			AccountName:   row.AccountName,
			AccountType:   row.AccountType,
			DebitMinor:    int64(row.Debit),
			CreditMinor:   int64(row.Credit),
			Debit:         row.Debit.Format(s.curr),
			Credit:        row.Credit.Format(s.curr),
		})
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/reports/running-balances lists accounts in registry order with their
// stored balance moved by posted items.
func (s *Server) runningBalances(w http.ResponseWriter, r *http.Request) {
	accounts, ok := s.loadAccounts(w, r)
	if !ok {
		return
	}
	entries, ok := s.loadPosted(w, r)
	if !ok {
		return
	}
	balances, err := report.RunningBalances(accounts, entries)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := struct {
		Items []runningBalanceResponse `json:"items"`
	}{Items: make([]runningBalanceResponse, 0, len(accounts))}
	for _, a := range accounts {
		b := balances[a.ID]
		out.Items = append(out.Items, runningBalanceResponse{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			AccountName:   a.AccountName,
			BalanceMinor:  int64(b),
			Balance:       b.Format(s.curr),
		})
	}
	toJSON(w, http.StatusOK, out)
}

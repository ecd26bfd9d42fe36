// Package report derives read-only views over accounts and journal entries.
// Nothing here writes to storage or mutates its inputs.
package report

import (
	"sort"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
)

func overflow(field string) error {
	return errs.Invalid(field, "sum exceeds the amount range")
}

// TypeBalances groups the accounts of one type with their summed balance.
type TypeBalances struct {
	Accounts []ledger.Account `json:"accounts"`
	Total    ledger.Amount    `json:"total"`
}

// AccountBalancesByType buckets accounts by type. Every type is present, empty ones with a zero total.
func AccountBalancesByType(accounts []ledger.Account) (map[ledger.AccountType]TypeBalances, error) {
	out := make(map[ledger.AccountType]TypeBalances, len(ledger.AccountTypes))
	for _, t := range ledger.AccountTypes {
		out[t] = TypeBalances{Accounts: []ledger.Account{}}
	}
	for _, a := range accounts {
		b, ok := out[a.AccountType]
		if !ok {
			continue
		}
		total, err := b.Total.Add(a.Balance)
		if err != nil {
			return nil, overflow(string(a.AccountType))
		}
		b.Accounts = append(b.Accounts, a)
		b.Total = total
		out[a.AccountType] = b
	}
	return out, nil
}

// TotalsForType sums balances of accounts of type t. No accounts sums to zero.
func TotalsForType(accounts []ledger.Account, t ledger.AccountType) (ledger.Amount, error) {
	var total ledger.Amount
	for _, a := range accounts {
		if a.AccountType != t {
			continue
		}
		var err error
		if total, err = total.Add(a.Balance); err != nil {
			return 0, overflow(string(t))
		}
	}
	return total, nil
}

// PnL is revenue minus expenses taken from account balances.
type PnL struct {
	Revenue   ledger.Amount `json:"revenue"`
	Expenses  ledger.Amount `json:"expenses"`
	NetIncome ledger.Amount `json:"net_income"`
}

func ProfitAndLoss(accounts []ledger.Account) (PnL, error) {
	rev, err := TotalsForType(accounts, ledger.AccountTypeRevenue)
	if err != nil {
		return PnL{}, err
	}
	exp, err := TotalsForType(accounts, ledger.AccountTypeExpense)
	if err != nil {
		return PnL{}, err
	}
	net, err := rev.Sub(exp)
	if err != nil {
		return PnL{}, overflow("net_income")
	}
	return PnL{Revenue: rev, Expenses: exp, NetIncome: net}, nil
}

// BalanceSheet lists the balance-sheet accounts with their totals.
type BalanceSheet struct {
	Assets           []ledger.Account `json:"assets"`
	Liabilities      []ledger.Account `json:"liabilities"`
	Equity           []ledger.Account `json:"equity"`
	TotalAssets      ledger.Amount    `json:"total_assets"`
	TotalLiabilities ledger.Amount    `json:"total_liabilities"`
	TotalEquity      ledger.Amount    `json:"total_equity"`
}

// BalanceSheetSummary builds the summary without checking that it balances.
func BalanceSheetSummary(accounts []ledger.Account) (BalanceSheet, error) {
	by, err := AccountBalancesByType(accounts)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BalanceSheet{
		Assets:           by[ledger.AccountTypeAsset].Accounts,
		Liabilities:      by[ledger.AccountTypeLiability].Accounts,
		Equity:           by[ledger.AccountTypeEquity].Accounts,
		TotalAssets:      by[ledger.AccountTypeAsset].Total,
		TotalLiabilities: by[ledger.AccountTypeLiability].Total,
		TotalEquity:      by[ledger.AccountTypeEquity].Total,
	}, nil
}

// IdentityCheck is a diagnostic comparison of assets against liabilities plus equity.
type IdentityCheck struct {
	Holds      bool          `json:"holds"`
	Difference ledger.Amount `json:"difference"`
}

// CheckAccountingIdentity reports whether Assets = Liabilities + Equity.
// Callers decide what to do with a mismatch.
func CheckAccountingIdentity(bs BalanceSheet) (IdentityCheck, error) {
	claims, err := bs.TotalLiabilities.Add(bs.TotalEquity)
	if err != nil {
		return IdentityCheck{}, overflow("liabilities_and_equity")
	}
	diff, err := bs.TotalAssets.Sub(claims)
	if err != nil {
		return IdentityCheck{}, overflow("difference")
	}
	return IdentityCheck{Holds: diff == 0, Difference: diff}, nil
}

// TrialBalanceRow carries per-account debit and credit sums over posted entries.
type TrialBalanceRow struct {
	AccountID     string             `json:"account_id"`
	AccountNumber string             `json:"account_number"`
	AccountName   string             `json:"account_name"`
	AccountType   ledger.AccountType `json:"account_type"`
	Debit         ledger.Amount      `json:"debit"`
	Credit        ledger.Amount      `json:"credit"`
}

// TrialBalanceReport is the set of rows plus grand totals. Debit equals Credit whenever
// every posted entry balanced.
type TrialBalanceReport struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  ledger.Amount     `json:"total_debit"`
	TotalCredit ledger.Amount     `json:"total_credit"`
}

// TrialBalance sums item debits and credits per account over posted entries only.
// Accounts without movement are included with zero sums; items pointing at unknown
// accounts keep the display name recorded on the item.
func TrialBalance(accounts []ledger.Account, entries []ledger.JournalEntry) (TrialBalanceReport, error) {
	rows := make(map[string]*TrialBalanceRow, len(accounts))
	for _, a := range accounts {
		rows[a.ID] = &TrialBalanceRow{AccountID: a.ID, AccountNumber: a.AccountNumber, AccountName: a.AccountName, AccountType: a.AccountType}
	}
	var tb TrialBalanceReport
	for _, e := range entries {
		if e.Status != ledger.StatusPosted {
			continue
		}
		for _, it := range e.Items {
			r, ok := rows[it.AccountID]
			if !ok {
				r = &TrialBalanceRow{AccountID: it.AccountID, AccountNumber: it.AccountNumber, AccountName: it.AccountName}
				rows[it.AccountID] = r
			}
			var err error
			if r.Debit, err = r.Debit.Add(it.Debit); err != nil {
				return TrialBalanceReport{}, overflow("debit")
			}
			if r.Credit, err = r.Credit.Add(it.Credit); err != nil {
				return TrialBalanceReport{}, overflow("credit")
			}
			if tb.TotalDebit, err = tb.TotalDebit.Add(it.Debit); err != nil {
				return TrialBalanceReport{}, overflow("total_debit")
			}
			if tb.TotalCredit, err = tb.TotalCredit.Add(it.Credit); err != nil {
				return TrialBalanceReport{}, overflow("total_credit")
			}
		}
	}
	tb.Rows = make([]TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		tb.Rows = append(tb.Rows, *r)
	}
	sort.Slice(tb.Rows, func(i, j int) bool {
		if tb.Rows[i].AccountNumber != tb.Rows[j].AccountNumber {
			return tb.Rows[i].AccountNumber < tb.Rows[j].AccountNumber
		}
		return tb.Rows[i].AccountID < tb.Rows[j].AccountID
	})
	return tb, nil
}

// RunningBalances returns, per account id, the stored balance moved by posted
// items in the account's normal direction: debits add for Asset and Expense,
// credits add for the rest.
func RunningBalances(accounts []ledger.Account, entries []ledger.JournalEntry) (map[string]ledger.Amount, error) {
	types := make(map[string]ledger.AccountType, len(accounts))
	out := make(map[string]ledger.Amount, len(accounts))
	for _, a := range accounts {
		types[a.ID] = a.AccountType
		out[a.ID] = a.Balance
	}
	for _, e := range entries {
		if e.Status != ledger.StatusPosted {
			continue
		}
		for _, it := range e.Items {
			t, ok := types[it.AccountID]
			if !ok {
				continue
			}
			inc, dec := it.Credit, it.Debit
			if t.DebitNormal() {
				inc, dec = it.Debit, it.Credit
			}
			b, err := out[it.AccountID].Add(inc)
			if err == nil {
				b, err = b.Sub(dec)
			}
			if err != nil {
				return nil, overflow(it.AccountID)
			}
			out[it.AccountID] = b
		}
	}
	return out, nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/report"
	"github.com/tinoosan/bizledger/internal/service/account"
	"github.com/tinoosan/bizledger/internal/service/journal"
)

func newReportCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print financial summaries",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	run := func(render func(cmd *cobra.Command, b *backend) (any, func(w io.Writer), error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, a, func(b *backend) error {
				v, table, err := render(cmd, b)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				table(tw)
				return tw.Flush()
			})
		}
	}
	curr := func() string { return a.cfg.Currency }

	cmd.AddCommand(&cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity from account balances",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, b *backend) (any, func(io.Writer), error) {
			accounts, err := b.accounts.List(cmd.Context(), account.AccountFilter{})
			if err != nil {
				return nil, nil, err
			}
			bs, err := report.BalanceSheetSummary(accounts)
			if err != nil {
				return nil, nil, err
			}
			check, err := report.CheckAccountingIdentity(bs)
			if err != nil {
				return nil, nil, err
			}
			out := struct {
				report.BalanceSheet
				Identity report.IdentityCheck `json:"identity"`
			}{bs, check}
			return out, func(w io.Writer) {
				section := func(title string, list []ledger.Account, total ledger.Amount) {
					fmt.Fprintf(w, "%s\t\t\n", title)
					for _, acc := range list {
						fmt.Fprintf(w, "  %s\t%s\t%s\n", acc.AccountNumber, acc.AccountName, acc.Balance.Format(curr()))
					}
					fmt.Fprintf(w, "Total %s\t\t%s\n", title, total.Format(curr()))
				}
				section("Assets", bs.Assets, bs.TotalAssets)
				section("Liabilities", bs.Liabilities, bs.TotalLiabilities)
				section("Equity", bs.Equity, bs.TotalEquity)
				if check.Holds {
					fmt.Fprintln(w, "Assets = Liabilities + Equity\t\t")
				} else {
					fmt.Fprintf(w, "Out of balance by\t\t%s\n", check.Difference.Format(curr()))
				}
			}, nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pnl",
		Short: "Revenue, expenses and net income",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, b *backend) (any, func(io.Writer), error) {
			accounts, err := b.accounts.List(cmd.Context(), account.AccountFilter{})
			if err != nil {
				return nil, nil, err
			}
			p, err := report.ProfitAndLoss(accounts)
			if err != nil {
				return nil, nil, err
			}
			return p, func(w io.Writer) {
				fmt.Fprintf(w, "Revenue\t%s\n", p.Revenue.Format(curr()))
				fmt.Fprintf(w, "Expenses\t%s\n", p.Expenses.Format(curr()))
				fmt.Fprintf(w, "Net income\t%s\n", p.NetIncome.Format(curr()))
			}, nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit sums per account over posted entries",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, b *backend) (any, func(io.Writer), error) {
			accounts, err := b.accounts.List(cmd.Context(), account.AccountFilter{})
			if err != nil {
				return nil, nil, err
			}
			entries, err := b.journal.ListEntries(cmd.Context(), journal.EntryFilter{Status: ledger.StatusPosted})
			if err != nil {
				return nil, nil, err
			}
			tb, err := report.TrialBalance(accounts, entries)
			if err != nil {
				return nil, nil, err
			}
			return tb, func(w io.Writer) {
				fmt.Fprintln(w, "Number\tName\tDebit\tCredit")
				for _, r := range tb.Rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.AccountNumber, r.AccountName, r.Debit.Format(curr()), r.Credit.Format(curr()))
				}
				fmt.Fprintf(w, "\tTotal\t%s\t%s\n", tb.TotalDebit.Format(curr()), tb.TotalCredit.Format(curr()))
			}, nil
		}),
	})
	return cmd
}

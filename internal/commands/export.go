package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinoosan/bizledger/internal/export"
	"github.com/tinoosan/bizledger/internal/service/account"
	"github.com/tinoosan/bizledger/internal/service/journal"
)

func newExportCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write accounts or journal entries as CSV",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	cmd.AddCommand(&cobra.Command{
		Use:   "accounts",
		Short: "Export the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, a, func(b *backend) error {
				accounts, err := b.accounts.List(cmd.Context(), account.AccountFilter{})
				if err != nil {
					return err
				}
				return writeTo(cmd.OutOrStdout(), output, func(w io.Writer) error {
					return export.WriteAccounts(w, a.cfg.Currency, accounts)
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "entries",
		Short: "Export journal entry headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, a, func(b *backend) error {
				entries, err := b.journal.ListEntries(cmd.Context(), journal.EntryFilter{})
				if err != nil {
					return err
				}
				return writeTo(cmd.OutOrStdout(), output, func(w io.Writer) error {
					return export.WriteEntries(w, a.cfg.Currency, entries)
				})
			})
		},
	})
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load data from CSV",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "accounts FILE",
		Short: "Create accounts from a CSV written by export accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			rows, err := export.ReadAccounts(f, a.cfg.Currency)
			if err != nil {
				return err
			}
			return withBackend(cmd, a, func(b *backend) error {
				for i, row := range rows {
					_, err := b.accounts.Create(cmd.Context(), account.AccountInput{
						AccountNumber: row.AccountNumber,
						AccountName:   row.AccountName,
						AccountType:   row.AccountType,
						Category:      row.Category,
						Balance:       row.Balance,
					})
					if err != nil {
						return fmt.Errorf("row %d (%s): %w", i+2, row.AccountNumber, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d accounts\n", len(rows))
				return nil
			})
		},
	})
	return cmd
}

// withBackend opens the configured store for the duration of fn.
func withBackend(cmd *cobra.Command, a *app, fn func(b *backend) error) error {
	b, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	runErr := fn(b)
	if err := b.close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// writeTo writes to path, or to stdout when path is empty.
func writeTo(stdout io.Writer, path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

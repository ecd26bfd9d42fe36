// Package commands holds the ledger CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Chart of accounts and double-entry journal for small businesses",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.envPath, "env-file", "", "dotenv file (default .env when present)")

	rootCmd.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newReportCommand(a),
	)
	return rootCmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/yigit/admissions/internal/bootstrap"
)

var configPath string

// NewRootCmd builds the command tree. Exposed for tests.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admissionsctl",
		Short:         "Admissions operations: tuition quotes, amounts in words, schema migrations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&configPath, "config", bootstrap.DefaultConfigPath, "path to config.yaml")

	root.AddCommand(quoteCmd(), wordsCmd(), migrateCmd())
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

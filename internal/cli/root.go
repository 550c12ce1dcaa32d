// Package cli provides the sqlbricks command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/sqlbricks/database"
	"github.com/gaborage/sqlbricks/internal/cli/commands"
)

// Version is set at build time.
var Version = "0.1.0"

// DefaultConfigFile is read when --config is not given. A missing file is skipped.
const DefaultConfigFile = "sqlbricks.yaml"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlbricks",
		Short: "Compose named-parameter SQL statements",
		Long: `sqlbricks composes SQL statements from YAML definitions.

Named parameters (:name) in every fragment and sub-statement are resolved into the
vendor's positional placeholders, so a definition can be rendered for inspection or
run against a configured database.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	// Flags named after a config key override the config files and environment
	flags := rootCmd.PersistentFlags()
	flags.StringSlice(commands.FlagConfig, []string{DefaultConfigFile}, "config files, later files override earlier ones")
	flags.String("log-level", "", "log level (trace|debug|info|warn|error|fatal|disabled)")
	flags.Bool("log-pretty", false, "human readable logs")
	flags.String("database-type", "", fmt.Sprintf("database vendor %v", database.GetSupportedDatabaseTypes()))
	flags.String("database-connectionstring", "", "connection string, overrides the individual connection settings")
	flags.String("database-database", "", "database name, or file for SQLite")
	flags.Int("database-maxnestingdepth", 0, "maximum sub-statement nesting depth")
	flags.Bool("observability-enabled", false, "export spans and metrics")

	_ = rootCmd.RegisterFlagCompletionFunc("database-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return database.GetSupportedDatabaseTypes(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewExecCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <definition.yaml>",
		Short: "Run a statement definition and print its rows",
		Long: `Run a statement definition against the configured database and print the
returned rows. The statement is tracked like any other execution: it is logged,
traced and counted when observability is enabled.`,
		Example: `  # Query a local SQLite file
  sqlbricks query report.yaml --database-type sqlite --database-database app.db

  # Query with a config file, rows as JSON
  sqlbricks query report.yaml --config prod.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0])
		},
	}

	cmd.Flags().StringP(flagOutput, "o", outputText, "output format (text|json)")
	return cmd
}

func runQuery(cmd *cobra.Command, path string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}

	sess, err := cmdCtx.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close(cmdCtx.Log)

	stmt, err := loadStatement(path, sess.executor.NewStatement)
	if err != nil {
		return err
	}

	rows, err := sess.executor.Query(commandCtx(cmd), stmt)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return writeRows(cmd.OutOrStdout(), rows, format)
}

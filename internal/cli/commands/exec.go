package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <definition.yaml>",
		Short: "Run a statement definition that returns no rows",
		Long: `Run a statement definition, typically an INSERT, UPDATE or DELETE given as
text, against the configured database and print the number of affected rows.`,
		Example: `  sqlbricks exec purge.yaml --database-type sqlite --database-database app.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args[0])
		},
	}
}

func runExec(cmd *cobra.Command, path string) error {
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

	result, err := sess.executor.Exec(commandCtx(cmd), stmt)
	if err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", affected)
	return nil
}

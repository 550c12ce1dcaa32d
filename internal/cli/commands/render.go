package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/sqlbricks/database"
)

const flagVendor = "vendor"

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <definition.yaml>",
		Short: "Render a statement definition to vendor SQL and arguments",
		Long: `Render a statement definition without touching a database.

Every named parameter is resolved into the vendor's placeholder syntax and the
argument bound at each ordinal is listed. The vendor defaults to the configured
database type, then to postgresql.`,
		Example: `  # Render for PostgreSQL ($1, $2, ...)
  sqlbricks render report.yaml

  # Render for Oracle (:1, :2, ...) as JSON
  sqlbricks render report.yaml --vendor oracle --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0])
		},
	}

	cmd.Flags().String(flagVendor, "", fmt.Sprintf("target vendor %v", database.GetSupportedDatabaseTypes()))
	cmd.Flags().StringP(flagOutput, "o", outputText, "output format (text|json)")
	_ = cmd.RegisterFlagCompletionFunc(flagVendor, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return database.GetSupportedDatabaseTypes(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRender(cmd *cobra.Command, path string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}

	vendor, err := renderVendor(cmd, cmdCtx)
	if err != nil {
		return err
	}

	depth := cmdCtx.Config.Database.MaxNestingDepth
	stmt, err := loadStatement(path, func() *database.Statement {
		return database.NewStatement().WithMaxNestingDepth(depth)
	})
	if err != nil {
		return err
	}

	query, args, err := database.NewQueryBuilder(vendor).Build(stmt)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	cmdCtx.Log.Debug().
		Str("vendor", vendor).
		Int("placeholders", len(args)).
		Msg("Rendered statement")

	rendered := newRenderedStatement(vendor, query, stmt)
	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), rendered)
	}
	return writeRenderedText(cmd.OutOrStdout(), rendered)
}

// renderVendor picks --vendor, then the configured database type, then postgresql.
func renderVendor(cmd *cobra.Command, cmdCtx *commandContext) (string, error) {
	vendor, err := cmd.Flags().GetString(flagVendor)
	if err != nil {
		return "", err
	}
	if vendor == "" {
		vendor = cmdCtx.Config.Database.Type
	}
	if vendor == "" {
		vendor = database.PostgreSQL
	}
	if err := database.ValidateDatabaseType(vendor); err != nil {
		return "", err
	}
	return vendor, nil
}

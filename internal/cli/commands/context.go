// Package commands implements the sqlbricks subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/database"
	"github.com/gaborage/sqlbricks/internal/definition"
	"github.com/gaborage/sqlbricks/logger"
	"github.com/gaborage/sqlbricks/observability"
)

// FlagConfig names the persistent flag holding the config file paths.
const FlagConfig = "config"

const (
	flagOutput = "output"

	outputText = "text"
	outputJSON = "json"
)

// ErrUnknownOutput is returned for an --output value other than text or json.
var ErrUnknownOutput = errors.New("unknown output format")

// commandContext carries what a command needs after configuration is loaded.
type commandContext struct {
	Config *config.Config
	Log    logger.Logger
}

// newCommandContext loads the configuration files named by --config with the
// environment and explicitly set flags layered on top. Logs go to stderr.
func newCommandContext(cmd *cobra.Command) (*commandContext, error) {
	flags := cmd.Root().PersistentFlags()
	files, err := flags.GetStringSlice(FlagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithFlags(flags, files...)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty, nil)
	return &commandContext{Config: cfg, Log: log}, nil
}

// session is an open database with an executor and an observability provider.
type session struct {
	conn     *database.Connection
	executor *database.Executor
	provider observability.Provider
}

// openSession connects to the configured database. Telemetry written to the stdout
// endpoint goes to stderr so it never mixes with command output.
func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	obsCfg := c.Config.Observability
	obsCfg.Output = cmd.ErrOrStderr()
	provider, err := observability.NewProvider(&obsCfg, c.Log)
	if err != nil {
		return nil, err
	}

	conn, err := database.Open(commandCtx(cmd), &c.Config.Database, c.Log)
	if err != nil {
		_ = observability.Shutdown(provider, 0)
		return nil, err
	}

	return &session{
		conn:     conn,
		executor: database.NewExecutor(conn, c.Log, &c.Config.Database),
		provider: provider,
	}, nil
}

func (s *session) close(log logger.Logger) {
	if err := s.conn.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}
	if err := observability.Shutdown(s.provider, 0); err != nil {
		log.Warn().Err(err).Msg("Failed to shut down observability provider")
	}
}

// loadStatement reads the definition at path into a new statement from newStmt.
func loadStatement(path string, newStmt func() *database.Statement) (*database.Statement, error) {
	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}

	stmt := newStmt()
	if err := def.Build(stmt); err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", path, err)
	}
	return stmt, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString(flagOutput)
	if err != nil {
		return "", err
	}
	switch format {
	case outputText, outputJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: text, json)", ErrUnknownOutput, format)
	}
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

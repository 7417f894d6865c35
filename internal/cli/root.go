// Package cli provides the lister command-line interface.
//
// Every command that touches the record store goes through the same
// configuration and store wiring as the HTTP server, so a listing ingested
// from the terminal is visible on the dashboard and vice versa.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lister/internal/app"
	"github.com/JonMunkholm/lister/internal/config"
	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// runtime is the state shared by all commands of one invocation.
type runtime struct {
	envFile  string
	dbPath   string
	logLevel string
	jsonOut  bool

	cfg *config.Config
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "lister",
		Short: "Sort scholar listings into records and export them",
		Long: `lister reads sectioned scholar listings (CSV or XLSX), files every student
row under the award of the section it appears in, and rebuilds the record
store with the result. Records can then be exported as a filtered CSV or as
one CSV per year, course and award packed into a single archive.

Configuration comes from the environment (see .env) exactly as for the
server.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "inspect" {
				logging.Setup(cmd.ErrOrStderr(), rt.level("warn"), "text")
				return nil
			}
			return rt.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&rt.dbPath, "db", "", "SQLite database path (overrides SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&rt.jsonOut, "json", false, "print JSON instead of tables")

	rootCmd.AddCommand(
		newIngestCmd(rt),
		newExportCmd(rt),
		newBatchCmd(rt),
		newSummaryCmd(rt),
		newHistoryCmd(rt),
		newInspectCmd(rt),
		newMigrateCmd(rt),
	)

	return rootCmd
}

// load reads the environment file and configuration and sets up logging.
// Logs go to stderr so command output stays pipeable.
func (rt *runtime) load(cmd *cobra.Command) error {
	if rt.envFile != "" {
		// Load keeps variables already set in the environment.
		if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rt.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rt.dbPath != "" {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.Path = rt.dbPath
	}
	rt.cfg = cfg

	logging.Setup(cmd.ErrOrStderr(), rt.level(cfg.Logging.Level), cfg.Logging.Format)
	return nil
}

func (rt *runtime) level(fallback string) string {
	if rt.logLevel != "" {
		return rt.logLevel
	}
	return fallback
}

// open builds the application over the configured store.
func (rt *runtime) open(ctx context.Context) (*app.App, func(), error) {
	a, err := app.New(ctx, rt.cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close(context.WithoutCancel(ctx)) }, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe prefers the user-facing message for known failures.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

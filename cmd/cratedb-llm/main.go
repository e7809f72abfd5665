// Command cratedb-llm manages the CrateDB tables used by the LLM adapters.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
)

var (
	cfg     = cratedb.NewConfig()
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "cratedb-llm",
	Short:         "Manage CrateDB vector collections, chat histories and documents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// connect opens a client with the flag configuration. The returned function
// closes it.
func connect() (*cratedb.CrateDB, func(), error) {
	level := logger.Warning
	if verbose {
		level = logger.Debug
	}
	log := logger.NewLoggerClient(logger.Config{Level: level, ServiceName: "cratedb-llm"})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := cratedb.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		_ = client.GracefulShutdown()
		_ = log.Zap.Sync()
	}, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Connection.Host, "host", cfg.Connection.Host, "CrateDB host (CRATEDB_HOST)")
	flags.StringVar(&cfg.Connection.Port, "port", cfg.Connection.Port, "PostgreSQL wire port (CRATEDB_PORT)")
	flags.StringVar(&cfg.Connection.User, "user", cfg.Connection.User, "user name (CRATEDB_USER)")
	flags.StringVar(&cfg.Connection.Password, "password", cfg.Connection.Password, "password (CRATEDB_PASSWORD)")
	flags.StringVar(&cfg.Connection.Schema, "schema", cfg.Connection.Schema, "schema (CRATEDB_SCHEMA)")
	flags.StringVar(&cfg.Connection.SSLMode, "sslmode", cfg.Connection.SSLMode, "sslmode (CRATEDB_SSLMODE)")
	flags.StringVar(&cfg.Connection.DSN, "dsn", cfg.Connection.DSN, "connection URL, overrides the flags above (CRATEDB_DSN)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(migrateCmd, collectionsCmd, searchCmd, loadCmd, historyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

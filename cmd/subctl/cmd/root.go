// Package cmd contains the CLI commands for subctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/subhub/internal/storage"
)

var (
	// Used for flags
	verbose bool
	dbPath  string
)

// defaultDBPath is the default database path, can be overridden via
// the SUBHUB_DB_PATH env var.
var defaultDBPath = "data/subhub.db"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "subctl",
	Short: "SubHub admin CLI",
	Long: `subctl manages a SubHub installation directly through its
database file: inspecting projects, verifying accounts, and bootstrap
tasks that should not go through the web surface.

Examples:
  # List all projects
  subctl project list

  # Verify a freshly registered admin account
  subctl user verify --username alice

  # Create an admin account
  subctl user create-admin --username root --email root@example.com`,
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if envPath := os.Getenv("SUBHUB_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "path to SQLite database file")
}

// openDB opens the SQLite database the server uses.
func openDB() (*storage.SQLiteStorage, error) {
	store := storage.NewSQLiteStorage(dbPath)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database at %s: %w", dbPath, err)
	}
	return store, nil
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

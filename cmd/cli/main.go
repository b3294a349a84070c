package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lingonote/lingonote/internal/localstore"
	"github.com/lingonote/lingonote/internal/logging"
	"github.com/lingonote/lingonote/internal/remote"
)

var (
	serverURL string
	dataDir   string
	logLevel  string

	nb      *notebook
	storage *localstore.SQLiteStorage
	logger  *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lingonote",
	Short: "Translate text and keep vocabulary notes",
	Long: `Lingonote keeps your translation history and vocabulary notes.

Without signing in everything is stored on this machine. After "lingonote login"
records go to your account and local records are uploaded once.`,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storage != nil {
			storage.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("LINGONOTE_SERVER", "http://localhost:8080"), "lingonote server URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for local records and the session token")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

// setup opens local storage, loads any saved token and runs the sign-in sync.
func setup(cmd *cobra.Command, args []string) error {
	logger = logging.New(logLevel, "text")

	var store *localstore.Store
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		logger.WithError(err).Warn("Local storage unavailable")
		store = localstore.New(nil, logger)
	} else if s, err := localstore.OpenSQLiteStorage(filepath.Join(dataDir, localDBName)); err != nil {
		logger.WithError(err).Warn("Local storage unavailable")
		store = localstore.New(nil, logger)
	} else {
		storage = s
		store = localstore.New(s, logger)
	}

	nb = newNotebook(store, remote.NewClient(serverURL, loadToken(dataDir), logger), logger)

	report, err := nb.refresh(cmd.Context())
	if err != nil {
		// Offline: behave as a guest until the server is reachable
		logger.WithError(err).Warn("Could not reach server")
		return nil
	}
	printSyncReport(cmd, report)
	return nil
}

func defaultDataDir() string {
	if dir := os.Getenv("LINGONOTE_DATA_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".lingonote"
	}
	return filepath.Join(base, "lingonote")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

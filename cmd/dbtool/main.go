// Command dbtool runs maintenance tasks against the record store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lingonote/lingonote/internal/config"
	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/logging"
)

var (
	databaseURL string
	timeout     time.Duration
	clearUser   string
	logger      *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Lingonote database maintenance",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
		if err != nil {
			return err
		}
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		if databaseURL == "" {
			databaseURL = cfg.Database.URL
		}
		if databaseURL == "" {
			return fmt.Errorf("no database URL: set DATABASE_URL or pass --database")
		}
		return nil
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables, collections and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s db.Store) error {
			if err := s.Migrate(ctx); err != nil {
				return err
			}
			logger.WithField("backend", db.DetectBackend(databaseURL)).Info("Migration complete")
			return nil
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s db.Store) error {
			if err := s.Ping(ctx); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts for a user (or ownerless records)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, s db.Store) error {
			stats, err := s.Stats(ctx, db.Owner{UserID: clearUser})
			if err != nil {
				return err
			}
			fmt.Printf("translations: %d\nvocabulary:   %d\n", stats.Translations, stats.Vocabulary)
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:       "clear [translations|vocabulary]",
	Short:     "Delete every record of one kind for a user (or ownerless records)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"translations", "vocabulary"},
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := db.Owner{UserID: clearUser}
		return withStore(cmd.Context(), func(ctx context.Context, s db.Store) error {
			var (
				n   int64
				err error
			)
			switch args[0] {
			case "translations":
				n, err = s.ClearTranslations(ctx, owner)
			case "vocabulary":
				n, err = s.ClearVocabulary(ctx, owner)
			default:
				return fmt.Errorf("unknown record kind: %s", args[0])
			}
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"kind":    args[0],
				"owner":   owner.String(),
				"deleted": n,
			}).Info("Records cleared")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "database URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "operation timeout")
	statsCmd.Flags().StringVar(&clearUser, "user", "", "user ID (empty selects ownerless records)")
	clearCmd.Flags().StringVar(&clearUser, "user", "", "user ID (empty selects ownerless records)")

	rootCmd.AddCommand(migrateCmd, pingCmd, statsCmd, clearCmd)
}

func withStore(parent context.Context, fn func(ctx context.Context, s db.Store) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	s, err := db.Open(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(ctx, s)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

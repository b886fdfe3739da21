// Package db holds the database maintenance commands of the CivicFlow CLI.
package db

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/repositories"
	"github.com/flintspark/civicflow/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "db",
	Title: "Database operations",
}

func init() {
	Seed.Flags().String("sqlite-url", "./civicflow.sqlite", "SQLite URL")
	Stats.Flags().String("sqlite-url", "./civicflow.sqlite", "SQLite URL")
}

func openDatabase(cmd *cobra.Command) (*sqlite.Database, error) {
	url, err := cmd.Flags().GetString("sqlite-url")
	if err != nil {
		return nil, errors.Wrap(err, "read sqlite-url flag")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	database, err := sqlite.NewDatabase(cmd.Context(), url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("url", url))
	}
	return database, nil
}

var Seed = &cobra.Command{
	Use:     "seed",
	GroupID: "db",
	Short:   "Reset civic tables to demo data",
	Long:    `Resets the issue, office, measure, and candidate tables to the embedded demo catalog. Engagement data is left untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer func() {
			_ = database.Close()
		}()
		if err = database.Seed(cmd.Context()); err != nil {
			return errors.Wrap(err, "seed database")
		}
		cmd.Println("seeded demo catalog")
		return nil
	},
}

var Stats = &cobra.Command{
	Use:     "stats",
	GroupID: "db",
	Short:   "Show readiness statistics",
	Long:    `Aggregates completed questionnaire sessions by their readiness answer.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer func() {
			_ = database.Close()
		}()
		engagement := repositories.NewEngagementRepository(database, slog.Default())
		stats, err := engagement.ReadinessStats(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "aggregate readiness stats")
		}
		var total int64
		for _, answer := range []string{"yes", "no", "still-thinking"} {
			cmd.Println(fmt.Sprintf("%-14s %d", answer, stats[answer]))
			total += stats[answer]
		}
		cmd.Println(fmt.Sprintf("%-14s %d", "total", total))
		return nil
	},
}

// Command api is the civic data store: a JSON service over the sqlite
// catalog that the flow service fetches issues, offices, measures, and
// candidates from.
package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/flintspark/civicflow/internal/envstruct"
	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/logging"
	"github.com/flintspark/civicflow/internal/pprofserver"
	"github.com/flintspark/civicflow/internal/repositories"
	"github.com/flintspark/civicflow/internal/sqlite"
	"github.com/joho/godotenv"
)

type application struct {
	logger     *slog.Logger
	issues     *repositories.IssueRepository
	offices    *repositories.OfficeRepository
	measures   *repositories.MeasureRepository
	candidates *repositories.CandidateRepository
	engagement *repositories.EngagementRepository
}

type config struct {
	Addr      string `env:"CIVICFLOW_API_ADDR" envDefault:"localhost:4001"`
	PprofPort string `env:"CIVICFLOW_API_PPROF_PORT" envDefault:":6061"`
	SqliteURL string `env:"CIVICFLOW_API_SQLITE_URL" envDefault:"./civicflow.sqlite"`
	// Seed resets the civic tables to the embedded demo data on startup.
	Seed string `env:"CIVICFLOW_API_SEED" envDefault:"false"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse environment")
	}

	// Initialise pprof listening on localhost so that it's not open to the world.
	pprofserver.Launch(cfg.PprofPort, logger)

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()
	db.StartDatabaseOptimizer(ctx)

	if cfg.Seed == "true" {
		if err = db.Seed(ctx); err != nil {
			return errors.Wrap(err, "seed database")
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "seeded demo data")
	}

	app := &application{
		logger:     logger,
		issues:     repositories.NewIssueRepository(db, logger),
		offices:    repositories.NewOfficeRepository(db, logger),
		measures:   repositories.NewMeasureRepository(db, logger),
		candidates: repositories.NewCandidateRepository(db, logger),
		engagement: repositories.NewEngagementRepository(db, logger),
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server exited", errors.SlogError(err))
		os.Exit(1)
	}
}

// Command web is the guided-flow service. It owns the questionnaire session,
// fetches the civic catalog from the data-store service, and serves the JSON
// API the questionnaire front end drives.
package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/flintspark/civicflow/internal/civicdata"
	"github.com/flintspark/civicflow/internal/envstruct"
	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/flow"
	"github.com/flintspark/civicflow/internal/loader"
	"github.com/flintspark/civicflow/internal/logging"
	"github.com/flintspark/civicflow/internal/pprofserver"
	"github.com/flintspark/civicflow/internal/sqlite"
	"github.com/joho/godotenv"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	registry       *loader.Registry
	civic          *civicdata.Client
	flow           *flow.Controller
}

type config struct {
	Addr       string `env:"CIVICFLOW_WEB_ADDR" envDefault:"localhost:4000"`
	PprofPort  string `env:"CIVICFLOW_WEB_PPROF_PORT" envDefault:":6060"`
	SqliteURL  string `env:"CIVICFLOW_WEB_SQLITE_URL" envDefault:"./civicflow.sqlite"`
	DataAPIURL string `env:"CIVICFLOW_DATA_API_URL" envDefault:"http://localhost:4001"`
	// RetryDelay is the wait between automatic retries of transient fetch
	// failures. Tests shrink it to run without real sleeps.
	RetryDelay string `env:"CIVICFLOW_WEB_RETRY_DELAY" envDefault:"2s"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	retryDelay, err := time.ParseDuration(cfg.RetryDelay)
	if err != nil {
		return errors.Wrap(err, "parse retry delay", slog.String("value", cfg.RetryDelay))
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

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	policy := loader.DefaultPolicy(civicdata.IsRemote)
	policy.Delay = retryDelay

	sessionStore := flow.NewSessionStore(scsStorage{sessions: sessionManager}, logger)
	app := &application{
		logger:         logger,
		sessionManager: sessionManager,
		registry:       loader.NewRegistry(policy, logger),
		civic:          civicdata.NewClient(cfg.DataAPIURL, 5*time.Second, logger),
		flow:           flow.NewController(sessionStore, logger),
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

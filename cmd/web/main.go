package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/envstruct"
	"github.com/myrjola/pilatesflow/internal/errors"
	"github.com/myrjola/pilatesflow/internal/flightrecorder"
	"github.com/myrjola/pilatesflow/internal/instructor"
	"github.com/myrjola/pilatesflow/internal/logging"
	"github.com/myrjola/pilatesflow/internal/sessionlog"
	"github.com/myrjola/pilatesflow/internal/sqlite"
	"github.com/myrjola/pilatesflow/internal/workout"
)

type application struct {
	logger         *slog.Logger
	catalog        *catalog.Catalog
	sessionManager *scs.SessionManager
	sessionLog     sessionlog.Store
	instructor     *instructor.Instructor
	// flightRecorder captures a trace when a request times out. Nil disables it.
	flightRecorder *flightrecorder.Recorder
	// seed makes plan generation reproducible when non-zero.
	seed uint64
	now  func() time.Time
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"PILATES_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"PILATES_SQLITE_URL" envDefault:"./pilatesflow.sqlite3"`
	// Store selects the session log backend, sqlite or sheets.
	Store string `env:"PILATES_STORE" envDefault:"sqlite"`
	// GoogleCredentials is the path to a service account key file used by the sheets store.
	GoogleCredentials string `env:"PILATES_GOOGLE_CREDENTIALS" envDefault:""`
	SpreadsheetID     string `env:"PILATES_SPREADSHEET_ID" envDefault:""`
	// OpenAIAPIKey enables the AI instructor.
	OpenAIAPIKey  string `env:"PILATES_OPENAI_API_KEY" envDefault:""`
	OpenAIModel   string `env:"PILATES_OPENAI_MODEL" envDefault:""`
	Seed          int64  `env:"PILATES_SEED" envDefault:"0"`
	SecureCookies bool   `env:"PILATES_SECURE_COOKIES" envDefault:"true"`
	// TracesDir enables the flight recorder, which writes a runtime trace there when a request times out.
	TracesDir string `env:"PILATES_TRACES_DIR" envDefault:""`
}

const (
	storeSQLite = "sqlite"
	storeSheets = "sheets"
)

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionLog, err := newSessionLog(ctx, cfg, db, logger)
	if err != nil {
		return errors.Wrap(err, "new session log", slog.String("store", cfg.Store))
	}

	var completer instructor.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = instructor.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	} else {
		logger.LogAttrs(ctx, slog.LevelInfo, "AI instructor disabled, PILATES_OPENAI_API_KEY not set")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(logger, flightrecorder.Config{
			Directory: cfg.TracesDir,
			MinAge:    0,
			MaxBytes:  0,
			Cooldown:  0,
			Now:       nil,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	app := application{
		logger:         logger,
		catalog:        catalog.Default(),
		sessionManager: initializeSessionManager(db, cfg.SecureCookies),
		sessionLog:     sessionLog,
		instructor:     instructor.New(completer, logger),
		flightRecorder: recorder,
		seed:           uint64(cfg.Seed), //nolint:gosec // any bit pattern is a valid seed.
		now:            time.Now,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func newSessionLog(
	ctx context.Context,
	cfg config,
	db *sqlite.Database,
	logger *slog.Logger,
) (sessionlog.Store, error) {
	switch cfg.Store {
	case storeSQLite:
		return sessionlog.NewSQLiteStore(db, logger), nil
	case storeSheets:
		if cfg.GoogleCredentials == "" || cfg.SpreadsheetID == "" {
			return nil, errors.New("sheets store needs PILATES_GOOGLE_CREDENTIALS and PILATES_SPREADSHEET_ID")
		}
		credentials, err := os.ReadFile(cfg.GoogleCredentials)
		if err != nil {
			return nil, errors.Wrap(err, "read credentials", slog.String("path", cfg.GoogleCredentials))
		}
		service, err := sessionlog.NewSheetsService(ctx, credentials)
		if err != nil {
			return nil, errors.Wrap(err, "new sheets service")
		}
		store := sessionlog.NewSheetsStore(service, cfg.SpreadsheetID, logger)
		if err = store.EnsureWorksheet(ctx); err != nil {
			return nil, errors.Wrap(err, "ensure worksheet", slog.String("spreadsheet", cfg.SpreadsheetID))
		}
		return store, nil
	default:
		return nil, errors.New("unknown store", slog.String("store", cfg.Store))
	}
}

func initializeSessionManager(dbs *sqlite.Database, secure bool) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                                //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = secure
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

// newGenerator returns a generator for a single request since *rand.Rand is not safe for concurrent use.
func (app *application) newGenerator() *workout.Generator {
	seed1, seed2 := app.seed, app.seed
	if app.seed == 0 {
		seed1, seed2 = rand.Uint64(), rand.Uint64() //nolint:gosec // plans don't need cryptographic randomness.
	}
	return workout.NewGenerator(app.catalog, rand.New(rand.NewPCG(seed1, seed2))) //nolint:gosec // as above.
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	// A missing .env file is fine, the environment is used as is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelWarn, "failed to load .env", slog.Any("error", err))
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}

// Package sqlite opens the application database and keeps its schema in sync with schema.sql.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaDefinition string

// Database holds a single-connection writer and a pool of readers to the same SQLite file.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger

	stopOptimizer context.CancelFunc
	optimizerDone chan struct{}
}

// NewDatabase connects to the database at url, migrates it to schema.sql and starts the background optimizer,
// which stops when ctx is done.
//
// Writes are funneled through one connection to avoid SQLITE_BUSY while readers use a separate read-only pool. See
// https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
//
// The url is a file path or ":memory:" for a private in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}

	db.startDatabaseOptimizer(ctx)

	return db, nil
}

//nolint:gochecknoglobals // the driver can be registered only once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3_pilatesflow"

// registerOptimizedDriver registers a driver that runs performance pragmas on every new connection.
func registerOptimizedDriver() {
	sql.Register(optimizedDriver,
		&sqlite3.SQLiteDriver{
			Extensions: nil,
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if _, err := conn.Exec(
					// Temporary tables and indices live in memory.
					"PRAGMA temp_store = memory;"+
						// Memory-mapped I/O saves read syscalls.
						"PRAGMA mmap_size = 30000000000;", nil); err != nil {
					return fmt.Errorf("exec optimization pragmas: %w", err)
				}
				return nil
			},
		})
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need a unique name and shared cache so that both pools see the same data while parallel
	// tests stay isolated. See https://www.sqlite.org/inmemorydb.html.
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		inMemoryConfig = "&mode=memory&cache=shared"
	}

	// Parameters with a leading underscore are documented at
	// https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open, the rest at https://www.sqlite.org/uri.html.
	commonConfig := strings.Join([]string{
		"_loc=auto",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	readWriteDSN := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s%s", url, commonConfig, inMemoryConfig)
	readOnlyDSN := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s%s", url, commonConfig,
		inMemoryConfig)

	registerDriver.Do(registerOptimizedDriver)

	readWrite, err := sql.Open(optimizedDriver, readWriteDSN)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	readWrite.SetMaxOpenConns(1)
	readWrite.SetMaxIdleConns(1)
	readWrite.SetConnMaxLifetime(time.Hour)
	readWrite.SetConnMaxIdleTime(time.Hour)

	// sql.DB is lazy. The ping creates the database file before the read-only pool tries to open it.
	if err = readWrite.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping read-write database: %w", err), readWrite.Close())
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", readWriteDSN))

	readOnly, err := sql.Open(optimizedDriver, readOnlyDSN)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read-only database: %w", err), readWrite.Close())
	}
	const maxReadConns = 10
	readOnly.SetMaxOpenConns(maxReadConns)
	readOnly.SetMaxIdleConns(maxReadConns)
	readOnly.SetConnMaxLifetime(time.Hour)
	readOnly.SetConnMaxIdleTime(time.Hour)

	return &Database{
		ReadWrite:     readWrite,
		ReadOnly:      readOnly,
		logger:        logger,
		stopOptimizer: nil,
		optimizerDone: nil,
	}, nil
}

// Close stops the optimizer and closes both connection pools.
func (db *Database) Close() error {
	db.stopDatabaseOptimizer()
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}

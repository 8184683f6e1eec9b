package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo converges the live schema to the one created by schemaDefinition.
//
// The target schema is built in an attached in-memory database and diffed against the live sqlite_schema: removed
// tables are dropped, new tables created, and changed tables rebuilt with the generalized ALTER TABLE procedure
// https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns both versions share. Indexes and
// triggers are then dropped, created or recreated to match.
//
// Based on https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachTargetSchema(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// Table rebuilds must not cascade, so foreign keys are off for the duration and checked before commit.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback migration: %w", rbErr))
		}
	}()

	if err = db.migrateTables(ctx, tx); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	for _, typ := range []string{"trigger", "index"} {
		if err = db.migrateObjects(ctx, tx, typ); err != nil {
			return fmt.Errorf("migrate %ss: %w", typ, err)
		}
	}

	var violations []string
	if violations, err = queryStrings(ctx, tx, `SELECT "table" FROM pragma_foreign_key_check`); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key violations in %s", strings.Join(violations, ", "))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTargetSchema creates schemaDefinition in a fresh in-memory database attached as schemaTarget.
func (db *Database) attachTargetSchema(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}
	// The shared cache keeps the in-memory database alive while it's attached to the live connection.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close target schema database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target schema", slog.Any("error", detachErr))
		}
	}, nil
}

// userObjects filters out SQLite internals and Litestream bookkeeping from the schema rows aliased as alias.
func userObjects(alias string) string {
	return fmt.Sprintf(`%[1]s.name NOT LIKE 'sqlite_%%' AND %[1]s.name NOT LIKE '_litestream_%%'`, alias)
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	removed, err := queryStrings(ctx, tx, `SELECT live.name FROM main.sqlite_schema AS live
WHERE live.type = 'table' AND `+userObjects("live")+`
  AND live.name NOT IN (SELECT name FROM schemaTarget.sqlite_schema WHERE type = 'table')`)
	if err != nil {
		return fmt.Errorf("query removed tables: %w", err)
	}
	for _, table := range removed {
		if err = db.exec(ctx, tx, "dropping table", fmt.Sprintf("DROP TABLE %q", table)); err != nil {
			return err
		}
	}

	added, err := queryStrings(ctx, tx, `SELECT target.sql FROM schemaTarget.sqlite_schema AS target
WHERE target.type = 'table' AND `+userObjects("target")+`
  AND target.name NOT IN (SELECT name FROM main.sqlite_schema WHERE type = 'table')`)
	if err != nil {
		return fmt.Errorf("query added tables: %w", err)
	}
	for _, createSQL := range added {
		if err = db.exec(ctx, tx, "creating table", createSQL); err != nil {
			return err
		}
	}

	// Renamed tables get their name quoted in sqlite_schema, hence the REPLACE.
	changed, err := queryStrings(ctx, tx, `SELECT live.name FROM main.sqlite_schema AS live
JOIN schemaTarget.sqlite_schema AS target ON target.name = live.name AND target.type = live.type
WHERE live.type = 'table' AND `+userObjects("live")+`
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return fmt.Errorf("rebuild %s: %w", table, err)
		}
	}
	return nil
}

// rebuildTable creates the target version of table under a temporary name, copies the shared columns, and swaps it
// in place of the live table.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table string) error {
	var targetSQL string
	if err := tx.QueryRowContext(ctx,
		"SELECT sql FROM schemaTarget.sqlite_schema WHERE type = 'table' AND name = ?", table).
		Scan(&targetSQL); err != nil {
		return fmt.Errorf("query target sql: %w", err)
	}
	temp := table + "_migration_temp"

	columns, err := queryStrings(ctx, tx, `SELECT '"' || live.name || '"'
FROM pragma_table_info(:table) AS live
JOIN pragma_table_info(:table, 'schemaTarget') AS target ON target.name = live.name`, sql.Named("table", table))
	if err != nil {
		return fmt.Errorf("query shared columns: %w", err)
	}
	shared := strings.Join(columns, ", ")

	statements := []string{
		strings.Replace(targetSQL, table, temp, 1),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", temp, shared, shared, table),
		fmt.Sprintf("DROP TABLE %s", table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", temp, table),
	}
	for _, stmt := range statements {
		if err = db.exec(ctx, tx, "rebuilding table", stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateObjects synchronizes the indexes or triggers, depending on typ.
func (db *Database) migrateObjects(ctx context.Context, tx *sql.Tx, typ string) error {
	stale, err := queryStrings(ctx, tx, `SELECT live.name FROM main.sqlite_schema AS live
LEFT JOIN schemaTarget.sqlite_schema AS target ON target.name = live.name AND target.type = live.type
WHERE live.type = :type AND `+userObjects("live")+`
  AND (target.name IS NULL OR live.sql <> target.sql)`, sql.Named("type", typ))
	if err != nil {
		return fmt.Errorf("query stale: %w", err)
	}
	for _, name := range stale {
		if err = db.exec(ctx, tx, "dropping "+typ, fmt.Sprintf("DROP %s %q", strings.ToUpper(typ), name)); err != nil {
			return err
		}
	}

	// Recreates the changed objects dropped above too.
	missing, err := queryStrings(ctx, tx, `SELECT target.sql FROM schemaTarget.sqlite_schema AS target
WHERE target.type = :type AND `+userObjects("target")+` AND target.sql IS NOT NULL
  AND target.name NOT IN (SELECT name FROM main.sqlite_schema WHERE type = :type)`, sql.Named("type", typ))
	if err != nil {
		return fmt.Errorf("query missing: %w", err)
	}
	for _, createSQL := range missing {
		if err = db.exec(ctx, tx, "creating "+typ, createSQL); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

// queryStrings returns the single string column of query's rows.
func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var out []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

package sessionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"github.com/myrjola/pilatesflow/internal/sqlite"
)

// timestampFormat has fixed precision so that the stored text sorts chronologically.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps the log in the workout_sessions table.
type SQLiteStore struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// NewSQLiteStore creates a store backed by db.
func NewSQLiteStore(db *sqlite.Database, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}
}

// Append inserts r.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	if r.User == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidRecord)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	var rating sql.NullInt32
	if r.Rating != nil {
		rating = sql.NullInt32{Int32: int32(*r.Rating), Valid: true} //nolint:gosec // ratings are 1-5.
	}
	_, err := s.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_sessions (
			id, user_name, logged_at, theme, apparatus, duration_minutes, plan_json, rating, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.User, r.Timestamp.UTC().Format(timestampFormat), string(r.Theme), string(r.Apparatus),
		r.DurationMinutes, r.Plan, rating, r.Notes)
	if err != nil {
		return fmt.Errorf("insert workout session: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "appended session",
		slog.String("id", r.ID.String()), slog.String("user", r.User))
	return nil
}

// Query returns the user's sessions, newest first.
func (s *SQLiteStore) Query(ctx context.Context, user string) (_ []Record, err error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, `
		SELECT id, user_name, logged_at, theme, apparatus, duration_minutes, plan_json, rating, notes
		FROM workout_sessions
		WHERE user_name = ?
		ORDER BY logged_at DESC, rowid DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("query workout sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	records := []Record{}
	for rows.Next() {
		var (
			r         Record
			id        string
			loggedAt  string
			theme     string
			apparatus string
			rating    sql.NullInt32
		)
		if err = rows.Scan(&id, &r.User, &loggedAt, &theme, &apparatus, &r.DurationMinutes, &r.Plan, &rating,
			&r.Notes); err != nil {
			return nil, fmt.Errorf("scan workout session: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id %s: %w", id, err)
		}
		if r.Timestamp, err = time.Parse(timestampFormat, loggedAt); err != nil {
			return nil, fmt.Errorf("parse logged_at %s: %w", loggedAt, err)
		}
		r.Theme = catalog.Theme(theme)
		r.Apparatus = catalog.Apparatus(apparatus)
		if rating.Valid {
			v := int(rating.Int32)
			r.Rating = &v
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

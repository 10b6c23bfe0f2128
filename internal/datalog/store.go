package datalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brickgate/brickgate/internal/infrastructure/database"
)

const (
	defaultQueryLimit = 500
	maxQueryLimit     = 5000
)

// timestampLayout is the stored recorded_at format. The fractional part
// is zero-padded to nine digits so the text stays fixed-width and
// lexicographic comparison in SQL matches chronological order;
// RFC3339Nano trims trailing zeros and would break that.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schema creates the readings table and its lookup index.
// Executed on every startup; IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	robot       TEXT NOT NULL,
	port        TEXT NOT NULL,
	sensor      TEXT NOT NULL,
	value       REAL NOT NULL,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_robot_port_time
	ON readings (robot, port, recorded_at);
`

// Reading is one persisted sensor sample.
type Reading struct {
	ID         int64
	Robot      string
	Port       string
	Sensor     string
	Value      float64
	RecordedAt time.Time
}

// Store persists sensor readings in SQLite.
//
// All methods are safe for concurrent use; the underlying connection
// pool is limited to a single writer by the database package.
type Store struct {
	db *database.DB
}

// New creates a Store and ensures the readings schema exists.
//
// Parameters:
//   - ctx: Context for the schema creation statements
//   - db: Open database connection from the database package
//
// Returns:
//   - *Store: Store ready for use
//   - error: If schema creation fails
func New(ctx context.Context, db *database.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating readings schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert appends a reading and returns its row ID.
//
// A zero RecordedAt is replaced with the current UTC time.
func (s *Store) Insert(ctx context.Context, r Reading) (int64, error) {
	if r.Robot == "" || r.Port == "" {
		return 0, ErrInvalidReading
	}
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO readings (robot, port, sensor, value, recorded_at) VALUES (?, ?, ?, ?, ?)",
		r.Robot,
		r.Port,
		r.Sensor,
		r.Value,
		recordedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// QueryRange returns readings for one robot within [from, to), ordered
// oldest first. An empty port matches all ports of the robot.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - robot: Robot name (required)
//   - port: Port name, or "" for all ports
//   - from, to: Half-open time range
//   - limit: Maximum rows to return (default 500, max 5000)
//
// Returns:
//   - []Reading: Matching readings ordered by recorded_at ASC
//   - error: nil on success, otherwise the underlying query error
func (s *Store) QueryRange(ctx context.Context, robot, port string, from, to time.Time, limit int) ([]Reading, error) {
	if robot == "" {
		return nil, ErrInvalidReading
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	query := `SELECT id, robot, port, sensor, value, recorded_at
		 FROM readings
		 WHERE robot = ? AND recorded_at >= ? AND recorded_at < ?`
	args := []any{robot, from.UTC().Format(timestampLayout), to.UTC().Format(timestampLayout)}
	if port != "" {
		query += " AND port = ?"
		args = append(args, port)
	}
	query += " ORDER BY recorded_at ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	readings := make([]Reading, 0, limit)
	for rows.Next() {
		var r Reading
		var recordedAt string

		if err := rows.Scan(&r.ID, &r.Robot, &r.Port, &r.Sensor, &r.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}

		timestamp, err := parseRecordedAt(recordedAt)
		if err != nil {
			return nil, err
		}
		r.RecordedAt = timestamp

		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return readings, nil
}

// Latest returns the most recent reading for a robot port, if any.
func (s *Store) Latest(ctx context.Context, robot, port string) (Reading, bool, error) {
	if robot == "" || port == "" {
		return Reading{}, false, ErrInvalidReading
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, robot, port, sensor, value, recorded_at
		 FROM readings
		 WHERE robot = ? AND port = ?
		 ORDER BY recorded_at DESC
		 LIMIT 1`,
		robot, port,
	)

	var r Reading
	var recordedAt string
	if err := row.Scan(&r.ID, &r.Robot, &r.Port, &r.Sensor, &r.Value, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reading{}, false, nil
		}
		return Reading{}, false, fmt.Errorf("querying latest reading: %w", err)
	}

	timestamp, err := parseRecordedAt(recordedAt)
	if err != nil {
		return Reading{}, false, err
	}
	r.RecordedAt = timestamp

	return r, true, nil
}

// Prune deletes readings older than the given retention window.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (readings older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM readings WHERE recorded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting readings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseRecordedAt parses a timestamp stored in SQLite.
func parseRecordedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
	}

	return timestamp, nil
}

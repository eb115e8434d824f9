package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/petrijr/benchseed/pkg/api"
)

// PostgresStore is a StatusStore and CursorStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	db *sql.DB
}

// Ensure PostgresStore implements the interfaces.
var _ api.StatusStore = (*PostgresStore)(nil)

var _ CursorStore = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given database
// and returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS env_status (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			status TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS run_cursors (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			request BYTEA,
			calls INTEGER NOT NULL,
			complete INTEGER NOT NULL,
			updated_at BIGINT NOT NULL
		);
	`)
	return err
}

func (s *PostgresStore) GetStatus(ctx context.Context) (api.EnvStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM env_status WHERE id = 1`).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.EnvUnset, nil
		}
		return "", err
	}
	return api.EnvStatus(status), nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, status api.EnvStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO env_status (id, status) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`, string(status))
	return err
}

func (s *PostgresStore) SaveCursor(ctx context.Context, c *Cursor) error {
	stamp(c)

	request, err := EncodeValue(c.Request)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_cursors (run_id, scenario, request, calls, complete, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			scenario = EXCLUDED.scenario,
			request = EXCLUDED.request,
			calls = EXCLUDED.calls,
			complete = EXCLUDED.complete,
			updated_at = EXCLUDED.updated_at
	`,
		c.RunID,
		c.Scenario,
		request,
		c.Calls,
		boolToInt(c.Complete),
		c.UpdatedAt.UnixNano(),
	)
	return err
}

func (s *PostgresStore) GetCursor(ctx context.Context, runID string) (*Cursor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, scenario, request, calls, complete, updated_at
		FROM run_cursors
		WHERE run_id = $1
	`, runID)

	c, err := scanCursor(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCursorNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error) {
	query := `
		SELECT run_id, scenario, request, calls, complete, updated_at
		FROM run_cursors`
	var args []any
	var clauses []string

	if filter.Scenario != "" {
		args = append(args, filter.Scenario)
		clauses = append(clauses, fmt.Sprintf("scenario = $%d", len(args)))
	}
	if filter.PendingOnly {
		clauses = append(clauses, "complete = 0")
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY run_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cursors []*Cursor
	for rows.Next() {
		c, err := scanCursor(rows.Scan)
		if err != nil {
			return nil, err
		}
		cursors = append(cursors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cursors, nil
}

func (s *PostgresStore) DeleteCursor(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM run_cursors WHERE run_id = $1`, runID)
	return err
}

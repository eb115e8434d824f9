package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/petrijr/benchseed/pkg/api"
)

// SQLiteStore is a StatusStore and CursorStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements the interfaces.
var _ api.StatusStore = (*SQLiteStore)(nil)

var _ CursorStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS env_status (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			status TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_cursors (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			request BLOB,
			calls INTEGER NOT NULL,
			complete INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetStatus(ctx context.Context) (api.EnvStatus, error) {
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

func (s *SQLiteStore) SetStatus(ctx context.Context, status api.EnvStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO env_status (id, status) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		string(status),
	)
	return err
}

func (s *SQLiteStore) SaveCursor(ctx context.Context, c *Cursor) error {
	stamp(c)

	request, err := EncodeValue(c.Request)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_cursors (run_id, scenario, request, calls, complete, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			scenario = excluded.scenario,
			request = excluded.request,
			calls = excluded.calls,
			complete = excluded.complete,
			updated_at = excluded.updated_at`,
		c.RunID,
		c.Scenario,
		request,
		c.Calls,
		boolToInt(c.Complete),
		c.UpdatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) GetCursor(ctx context.Context, runID string) (*Cursor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, scenario, request, calls, complete, updated_at
		FROM run_cursors
		WHERE run_id = ?`,
		runID,
	)

	c, err := scanCursor(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCursorNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error) {
	query := `
		SELECT run_id, scenario, request, calls, complete, updated_at
		FROM run_cursors`
	var args []any
	var clauses []string

	if filter.Scenario != "" {
		clauses = append(clauses, "scenario = ?")
		args = append(args, filter.Scenario)
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

func (s *SQLiteStore) DeleteCursor(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM run_cursors WHERE run_id = ?`, runID)
	return err
}

// scanCursor reads one row in the column order shared by the SQL backends.
func scanCursor(scan func(dest ...any) error) (*Cursor, error) {
	var (
		c         Cursor
		request   []byte
		complete  int
		updatedAt int64
	)
	if err := scan(&c.RunID, &c.Scenario, &request, &c.Calls, &complete, &updatedAt); err != nil {
		return nil, err
	}

	req, err := DecodeValue[api.Config](request)
	if err != nil {
		return nil, err
	}
	c.Request = req
	c.Complete = complete != 0
	c.UpdatedAt = unixNano(updatedAt)
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

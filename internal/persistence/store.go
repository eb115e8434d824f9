package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/benchseed/pkg/api"
)

var (
	// ErrCursorNotFound is returned when no cursor exists for a run ID.
	ErrCursorNotFound = errors.New("cursor not found")
)

// Cursor is the caller-side record of a scenario run: the exact request to
// issue on the next call. Only callers (the driver) persist cursors; the
// dispatcher never reads them.
type Cursor struct {
	RunID    string
	Scenario string

	// Request is the next request. Request.Op and Request.OpArgs are copied
	// verbatim from the last successful continuation.
	Request api.Config

	// Calls counts successful calls issued for this run.
	Calls int

	// Complete is set once a call returned no next_op.
	Complete bool

	UpdatedAt time.Time
}

// CursorFilter selects cursors. Zero values mean "no filter".
type CursorFilter struct {
	Scenario string

	// PendingOnly limits results to runs that are not complete.
	PendingOnly bool
}

// CursorStore persists caller cursors.
type CursorStore interface {
	// SaveCursor inserts or replaces the cursor for c.RunID.
	SaveCursor(ctx context.Context, c *Cursor) error
	GetCursor(ctx context.Context, runID string) (*Cursor, error)
	ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error)
	// DeleteCursor is idempotent.
	DeleteCursor(ctx context.Context, runID string) error
}

func (f CursorFilter) match(c *Cursor) bool {
	if f.Scenario != "" && c.Scenario != f.Scenario {
		return false
	}
	if f.PendingOnly && c.Complete {
		return false
	}
	return true
}

func validStatus(s api.EnvStatus) bool {
	switch s {
	case api.EnvUnset, api.EnvDirty, api.EnvClean, api.EnvReady:
		return true
	}
	return false
}

// ErrInvalidStatus is returned by SetStatus for unknown labels.
var ErrInvalidStatus = errors.New("invalid environment status")

func unixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func stamp(c *Cursor) {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
}

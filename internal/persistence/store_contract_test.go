package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petrijr/benchseed/pkg/api"
)

// contractStore is implemented by every backend in this package.
type contractStore interface {
	api.StatusStore
	CursorStore
}

func exerciseStatus(t *testing.T, s contractStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus on empty store failed: %v", err)
	}
	if got != api.EnvUnset {
		t.Fatalf("expected unset status, got %q", got)
	}

	for _, status := range []api.EnvStatus{api.EnvDirty, api.EnvReady, api.EnvClean} {
		if err := s.SetStatus(ctx, status); err != nil {
			t.Fatalf("SetStatus(%q) failed: %v", status, err)
		}
		got, err := s.GetStatus(ctx)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if got != status {
			t.Fatalf("expected status %q, got %q", status, got)
		}
	}

	if err := s.SetStatus(ctx, api.EnvStatus("half-baked")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, _ = s.GetStatus(ctx)
	if got != api.EnvClean {
		t.Fatalf("rejected SetStatus changed status to %q", got)
	}
}

func exerciseCursors(t *testing.T, s contractStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.GetCursor(ctx, "missing"); !errors.Is(err, ErrCursorNotFound) {
		t.Fatalf("expected ErrCursorNotFound, got %v", err)
	}

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Cursor{
		RunID:    "run-b",
		Scenario: "wordpress",
		Request: api.Config{
			Users:  250,
			Posts:  10,
			Op:     api.OpUsers,
			OpArgs: api.At(101),
		},
		Calls:     2,
		UpdatedAt: stamp,
	}
	if err := s.SaveCursor(ctx, c); err != nil {
		t.Fatalf("SaveCursor failed: %v", err)
	}

	got, err := s.GetCursor(ctx, "run-b")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if got.Scenario != "wordpress" || got.Calls != 2 || got.Complete {
		t.Fatalf("unexpected cursor: %+v", got)
	}
	if got.Request.Op != api.OpUsers || got.Request.OpArgs.Offset() != 101 {
		t.Fatalf("request continuation not preserved: op=%q args=%s", got.Request.Op, got.Request.OpArgs)
	}
	if got.Request.Users != 250 || got.Request.Posts != 10 {
		t.Fatalf("request quantities not preserved: %+v", got.Request)
	}
	if !got.UpdatedAt.Equal(stamp) {
		t.Fatalf("expected UpdatedAt %v, got %v", stamp, got.UpdatedAt)
	}

	// Upsert replaces the record.
	c.Request.Op = api.OpPosts
	c.Request.OpArgs = api.CheckpointDone
	c.Calls = 3
	if err := s.SaveCursor(ctx, c); err != nil {
		t.Fatalf("SaveCursor (replace) failed: %v", err)
	}
	got, err = s.GetCursor(ctx, "run-b")
	if err != nil {
		t.Fatalf("GetCursor failed: %v", err)
	}
	if got.Request.Op != api.OpPosts || !got.Request.OpArgs.IsDone() || got.Calls != 3 {
		t.Fatalf("replace not applied: %+v", got)
	}

	others := []*Cursor{
		{RunID: "run-a", Scenario: "wordpress", Complete: true, UpdatedAt: stamp},
		{RunID: "run-c", Scenario: "clean", UpdatedAt: stamp},
	}
	for _, o := range others {
		if err := s.SaveCursor(ctx, o); err != nil {
			t.Fatalf("SaveCursor(%s) failed: %v", o.RunID, err)
		}
	}

	all, err := s.ListCursors(ctx, CursorFilter{})
	if err != nil {
		t.Fatalf("ListCursors failed: %v", err)
	}
	assertRunIDs(t, all, "run-a", "run-b", "run-c")

	wp, err := s.ListCursors(ctx, CursorFilter{Scenario: "wordpress"})
	if err != nil {
		t.Fatalf("ListCursors(scenario) failed: %v", err)
	}
	assertRunIDs(t, wp, "run-a", "run-b")

	pending, err := s.ListCursors(ctx, CursorFilter{Scenario: "wordpress", PendingOnly: true})
	if err != nil {
		t.Fatalf("ListCursors(pending) failed: %v", err)
	}
	assertRunIDs(t, pending, "run-b")

	if err := s.DeleteCursor(ctx, "run-b"); err != nil {
		t.Fatalf("DeleteCursor failed: %v", err)
	}
	if err := s.DeleteCursor(ctx, "run-b"); err != nil {
		t.Fatalf("second DeleteCursor should be a no-op, got %v", err)
	}
	if _, err := s.GetCursor(ctx, "run-b"); !errors.Is(err, ErrCursorNotFound) {
		t.Fatalf("expected ErrCursorNotFound after delete, got %v", err)
	}

	wp, err = s.ListCursors(ctx, CursorFilter{Scenario: "wordpress"})
	if err != nil {
		t.Fatalf("ListCursors after delete failed: %v", err)
	}
	assertRunIDs(t, wp, "run-a")
}

func assertRunIDs(t *testing.T, cursors []*Cursor, want ...string) {
	t.Helper()
	if len(cursors) != len(want) {
		t.Fatalf("expected %d cursors, got %d", len(want), len(cursors))
	}
	for i, id := range want {
		if cursors[i].RunID != id {
			t.Fatalf("cursor %d: expected run ID %q, got %q", i, id, cursors[i].RunID)
		}
	}
}

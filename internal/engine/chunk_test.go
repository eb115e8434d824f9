package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/petrijr/benchseed/pkg/api"
)

func labelItem(ctx context.Context, i int) (string, error) {
	return fmt.Sprintf("item-%d", i), nil
}

// drainChunks calls RunChunk until the range is exhausted and returns the
// number of calls and every collected value.
func drainChunks(t *testing.T, spec ChunkSpec, from api.Checkpoint) (int, []string) {
	t.Helper()

	cfg := api.Config{Op: spec.Op, OpArgs: from}
	var (
		calls int
		all   []string
	)
	for {
		calls++
		if calls > spec.Total+2 {
			t.Fatalf("chunk loop did not terminate")
		}
		cont, err := RunChunk(context.Background(), cfg, spec)
		if err != nil {
			t.Fatalf("RunChunk failed: %v", err)
		}
		if cont == nil {
			return calls, all
		}
		all = append(all, cont.OpData...)
		if cont.OpArgs.IsZero() {
			if cont.NextOp != "" {
				t.Fatalf("finished chunk must not set next_op, got %q", cont.NextOp)
			}
			return calls, all
		}
		if cont.NextOp != spec.Op {
			t.Fatalf("unfinished chunk must re-name %q, got %q", spec.Op, cont.NextOp)
		}
		cfg = cfg.Next(cont)
	}
}

func TestRunChunk_CompletionCount(t *testing.T) {
	cases := []struct{ total, size int }{
		{1, 1}, {1, 100}, {99, 100}, {100, 100}, {101, 100}, {250, 100},
		{7, 3}, {20, 20}, {21, 20}, {1000, 25},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("N=%d,C=%d", tc.total, tc.size), func(t *testing.T) {
			spec := ChunkSpec{Op: api.OpUsers, Total: tc.total, Size: tc.size, Item: labelItem}
			calls, data := drainChunks(t, spec, api.Checkpoint{})

			want := (tc.total + tc.size - 1) / tc.size
			if calls != want {
				t.Fatalf("expected %d calls, got %d", want, calls)
			}
			if len(data) != tc.total {
				t.Fatalf("expected %d items, got %d", tc.total, len(data))
			}
		})
	}
}

func TestRunChunk_ResumeFromAnyCheckpointIsIdempotent(t *testing.T) {
	spec := ChunkSpec{Op: api.OpPosts, Total: 57, Size: 10, Item: labelItem}
	_, full := drainChunks(t, spec, api.Checkpoint{})

	for _, from := range []int{11, 21, 51} {
		// Replaying from an intermediate checkpoint reproduces the tail.
		_, tail := drainChunks(t, spec, api.At(from))
		want := full[from-1:]
		if len(tail) != len(want) {
			t.Fatalf("from %d: expected %d items, got %d", from, len(want), len(tail))
		}
		for i := range want {
			if tail[i] != want[i] {
				t.Fatalf("from %d: item %d = %q, want %q", from, i, tail[i], want[i])
			}
		}
	}
}

func TestRunChunk_DoneAndOutOfRange(t *testing.T) {
	called := 0
	spec := ChunkSpec{
		Op:    api.OpMedia,
		Total: 5,
		Size:  2,
		Item: func(ctx context.Context, i int) (string, error) {
			called++
			return "", nil
		},
	}

	for name, cp := range map[string]api.Checkpoint{
		"done":      api.CheckpointDone,
		"past end":  api.At(6),
		"far ahead": api.At(1000),
	} {
		cont, err := RunChunk(context.Background(), api.Config{OpArgs: cp}, spec)
		if err != nil || cont != nil {
			t.Fatalf("%s: expected nil, nil; got %+v, %v", name, cont, err)
		}
	}

	spec.Total = 0
	if cont, err := RunChunk(context.Background(), api.Config{}, spec); err != nil || cont != nil {
		t.Fatalf("zero total: expected nil, nil; got %+v, %v", cont, err)
	}

	if called != 0 {
		t.Fatalf("expected no items to run, got %d", called)
	}
}

func TestRunChunk_RejectsBadSpec(t *testing.T) {
	if _, err := RunChunk(context.Background(), api.Config{}, ChunkSpec{Op: "x", Total: 1, Size: 0, Item: labelItem}); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if _, err := RunChunk(context.Background(), api.Config{}, ChunkSpec{Op: "x", Total: 1, Size: 1}); err == nil {
		t.Fatalf("expected error for missing item function")
	}
}

func TestRunChunk_ReclaimOnAbsoluteIndex(t *testing.T) {
	var reclaimedAt []int
	last := 0
	spec := ChunkSpec{
		Op:    api.OpUsers,
		Total: 100,
		Size:  30,
		Item: func(ctx context.Context, i int) (string, error) {
			last = i
			return "", nil
		},
		Reclaim: func(ctx context.Context) {
			reclaimedAt = append(reclaimedAt, last)
		},
	}

	cont, err := RunChunk(context.Background(), api.Config{OpArgs: api.At(15)}, spec)
	if err != nil {
		t.Fatalf("RunChunk failed: %v", err)
	}
	if cont.OpArgs.Offset() != 45 {
		t.Fatalf("expected checkpoint 45, got %s", cont.OpArgs)
	}
	if len(reclaimedAt) != 2 || reclaimedAt[0] != 20 || reclaimedAt[1] != 40 {
		t.Fatalf("expected reclaim after items 20 and 40, got %v", reclaimedAt)
	}
	if len(cont.OpData) != 0 {
		t.Fatalf("empty item results must not be collected, got %v", cont.OpData)
	}
}

func TestRunChunk_ItemErrorStopsChunk(t *testing.T) {
	boom := errors.New("boom")
	spec := ChunkSpec{
		Op:    api.OpProducts,
		Total: 10,
		Size:  10,
		Item: func(ctx context.Context, i int) (string, error) {
			if i == 4 {
				return "", boom
			}
			return "ok", nil
		},
	}

	cont, err := RunChunk(context.Background(), api.Config{}, spec)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if cont != nil {
		t.Fatalf("expected no continuation on failure, got %+v", cont)
	}
}

func TestRunChunk_ReportsToObserver(t *testing.T) {
	metrics := &api.BasicMetrics{}
	ctx := api.WithObserver(context.Background(), metrics)

	spec := ChunkSpec{Op: api.OpUsers, Total: 45, Size: 45, Item: labelItem, Reclaim: func(context.Context) {}}
	if _, err := RunChunk(ctx, api.Config{}, spec); err != nil {
		t.Fatalf("RunChunk failed: %v", err)
	}

	snap := metrics.Snapshot()
	if snap.Chunks != 1 || snap.Items != 45 || snap.Reclaims != 2 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

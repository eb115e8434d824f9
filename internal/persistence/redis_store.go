package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/benchseed/pkg/api"
)

// RedisStore is a StatusStore and CursorStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>status                 => environment status label
//	<prefix>cursor:<run id>        => gob-encoded cursorPayload
//	<prefix>idx:all                => SET of all run IDs
//	<prefix>idx:scenario:<name>    => SET of run IDs for a given scenario
//
// The indexes are best-effort; ListCursors re-checks the decoded payload
// against the filter.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ api.StatusStore = (*RedisStore)(nil)

var _ CursorStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "benchseed:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "benchseed:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) keyStatus() string {
	return s.prefix + "status"
}

func (s *RedisStore) keyCursor(runID string) string {
	return s.prefix + "cursor:" + runID
}

func (s *RedisStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisStore) keyScenario(name string) string {
	return s.prefix + "idx:scenario:" + name
}

func (s *RedisStore) GetStatus(ctx context.Context) (api.EnvStatus, error) {
	v, err := s.client.Get(ctx, s.keyStatus()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return api.EnvUnset, nil
		}
		return "", err
	}
	return api.EnvStatus(v), nil
}

func (s *RedisStore) SetStatus(ctx context.Context, status api.EnvStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	return s.client.Set(ctx, s.keyStatus(), string(status), 0).Err()
}

func (s *RedisStore) SaveCursor(ctx context.Context, c *Cursor) error {
	stamp(c)

	data, err := encodeCursor(c)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keyCursor(c.RunID), data, 0).Err(); err != nil {
		return err
	}

	// Update indexes (best-effort; we don't treat index failures as fatal)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.keyAll(), c.RunID)
	pipe.SAdd(ctx, s.keyScenario(c.Scenario), c.RunID)
	_, _ = pipe.Exec(ctx)

	return nil
}

func (s *RedisStore) GetCursor(ctx context.Context, runID string) (*Cursor, error) {
	data, err := s.client.Get(ctx, s.keyCursor(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCursorNotFound
		}
		return nil, err
	}
	return decodeCursor(data)
}

func (s *RedisStore) ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error) {
	idx := s.keyAll()
	if filter.Scenario != "" {
		idx = s.keyScenario(filter.Scenario)
	}

	ids, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Cursor{}, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return []*Cursor{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keyCursor(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var cursors []*Cursor
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		c, err := decodeCursor(data)
		if err != nil {
			return nil, err
		}
		if filter.match(c) {
			cursors = append(cursors, c)
		}
	}

	sort.Slice(cursors, func(i, j int) bool {
		return cursors[i].RunID < cursors[j].RunID
	})
	return cursors, nil
}

func (s *RedisStore) DeleteCursor(ctx context.Context, runID string) error {
	c, err := s.GetCursor(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrCursorNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keyCursor(runID))
	pipe.SRem(ctx, s.keyAll(), runID)
	pipe.SRem(ctx, s.keyScenario(c.Scenario), runID)
	_, err = pipe.Exec(ctx)
	return err
}

package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/pkg/api"
)

// both wraps a backend that keeps the status label and the driver cursors.
func both[T interface {
	api.StatusStore
	persistence.CursorStore
}](st T) persistence.Persistence {
	return persistence.Persistence{Status: st, Cursors: st}
}

// openStore connects the backend named by s.Store. siteDB is reused for
// the sqlite backend. The returned close func releases the connection.
func openStore(ctx context.Context, s settings, siteDB *sql.DB) (persistence.Persistence, func() error, error) {
	noop := func() error { return nil }

	switch s.Store {
	case "memory":
		return both(persistence.NewInMemoryStore()), noop, nil

	case "sqlite":
		st, err := persistence.NewSQLiteStore(siteDB)
		if err != nil {
			return persistence.Persistence{}, nil, fmt.Errorf("sqlite store: %w", err)
		}
		return both(st), noop, nil

	case "postgres":
		db, err := sql.Open("pgx", s.DSN)
		if err != nil {
			return persistence.Persistence{}, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return persistence.Persistence{}, nil, fmt.Errorf("postgres: %w", err)
		}
		st, err := persistence.NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return persistence.Persistence{}, nil, fmt.Errorf("postgres store: %w", err)
		}
		return both(st), db.Close, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return persistence.Persistence{}, nil, fmt.Errorf("redis: %w", err)
		}
		return both(persistence.NewRedisStore(client, s.RedisPrefix)), client.Close, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.MongoURI))
		if err != nil {
			return persistence.Persistence{}, nil, fmt.Errorf("mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return persistence.Persistence{}, nil, fmt.Errorf("mongo: %w", err)
		}
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return both(persistence.NewMongoStore(client, s.MongoDB, "")), closeFn, nil
	}
	return persistence.Persistence{}, nil, fmt.Errorf("unknown store %q", s.Store)
}

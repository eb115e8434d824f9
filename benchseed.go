package benchseed

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Dispatcher           = api.Dispatcher
	Config               = api.Config
	Continuation         = api.Continuation
	Checkpoint           = api.Checkpoint
	OpName               = api.OpName
	Kind                 = api.Kind
	EnvStatus            = api.EnvStatus
	HandlerFunc          = api.HandlerFunc
	StepDefinition       = api.StepDefinition
	ScenarioDefinition   = api.ScenarioDefinition
	StatusStore          = api.StatusStore
	RetryPolicy          = api.RetryPolicy
	Error                = api.Error
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	// CursorStore persists driver cursors.
	CursorStore = persistence.CursorStore
	Cursor      = persistence.Cursor
)

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	At                   = api.At
	ParseCheckpoint      = api.ParseCheckpoint
	CodeOf               = api.CodeOf
	IsSoftStop           = api.IsSoftStop
)

// Re-export status values for convenience.

const (
	EnvUnset = api.EnvUnset
	EnvDirty = api.EnvDirty
	EnvClean = api.EnvClean
	EnvReady = api.EnvReady
)

// Dispatcher constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryDispatcher returns a Dispatcher whose status lives in memory.
func NewInMemoryDispatcher() Dispatcher {
	return engine.NewInMemoryDispatcher()
}

// NewDispatcher returns a Dispatcher reading the status gate from status and
// reporting to obs. Either may be nil.
func NewDispatcher(status StatusStore, obs Observer) Dispatcher {
	return engine.NewDispatcher(engine.Config{Status: status, Observer: obs})
}

// NewSQLiteDispatcher returns a Dispatcher that keeps the status label in a
// SQLite database.
func NewSQLiteDispatcher(db *sql.DB) (Dispatcher, error) {
	return engine.NewSQLiteDispatcher(db)
}

// Store constructors. Every store implements both StatusStore and
// CursorStore.

// NewInMemoryStore returns a non-durable store.
func NewInMemoryStore() *persistence.InMemoryStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteStore returns a store backed by SQLite.
func NewSQLiteStore(db *sql.DB) (*persistence.SQLiteStore, error) {
	return persistence.NewSQLiteStore(db)
}

// NewPostgresStore returns a store backed by PostgreSQL.
func NewPostgresStore(db *sql.DB) (*persistence.PostgresStore, error) {
	return persistence.NewPostgresStore(db)
}

// NewRedisStore returns a store backed by Redis. An empty prefix defaults
// to "benchseed:".
func NewRedisStore(client *redis.Client, prefix string) *persistence.RedisStore {
	return persistence.NewRedisStore(client, prefix)
}

// NewMongoStore returns a store backed by MongoDB.
func NewMongoStore(client *mongo.Client, dbName string) *persistence.MongoStore {
	return persistence.NewMongoStore(client, dbName, "")
}

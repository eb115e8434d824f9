// Package site is a small content platform stored in SQLite. It stands in
// for the host environment the seeding handlers write to.
//
// Like a real host, a Site accumulates per-request state while it works:
// every statement is appended to a query log and looked-up identifiers are
// kept in an object cache. Long chunks call Reclaim to drop that state.
// Options additionally live in a long-lived cache cleared by FlushCache.
package site

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrThemeNotFound  = errors.New("theme not found")
	ErrPluginNotFound = errors.New("plugin not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrUserNotFound   = errors.New("user not found")
)

// Site is safe for concurrent use, although the seeding protocol drives it
// from one call at a time.
type Site struct {
	db       *sql.DB
	hashCost int

	mu         sync.Mutex
	queries    []string
	objects    map[string]int64
	persistent map[string]string
}

// Option configures a Site.
type Option func(*Site)

// WithHashCost sets the bcrypt cost used for user passwords.
func WithHashCost(cost int) Option {
	return func(s *Site) {
		s.hashCost = cost
	}
}

// Stats reports the size of the transient and long-lived state.
type Stats struct {
	Queries    int
	Objects    int
	Persistent int
}

// Open initializes the schema in db and returns a Site.
//
// db must use a SQLite driver (for example "modernc.org/sqlite"). For
// ":memory:" databases limit the pool to one connection so all statements
// see the same database.
func Open(db *sql.DB, opts ...Option) (*Site, error) {
	s := &Site{
		db:         db,
		hashCost:   bcrypt.MinCost,
		objects:    make(map[string]int64),
		persistent: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Site) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			login TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			pass_hash TEXT NOT NULL,
			display_name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS usermeta (
			user_id INTEGER NOT NULL,
			meta_key TEXT NOT NULL,
			meta_value TEXT NOT NULL,
			PRIMARY KEY (user_id, meta_key)
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_type TEXT NOT NULL,
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			status TEXT NOT NULL,
			parent INTEGER NOT NULL DEFAULT 0,
			author INTEGER NOT NULL DEFAULT 0,
			UNIQUE (post_type, slug)
		);`,
		`CREATE TABLE IF NOT EXISTS postmeta (
			post_id INTEGER NOT NULL,
			meta_key TEXT NOT NULL,
			meta_value TEXT NOT NULL,
			PRIMARY KEY (post_id, meta_key)
		);`,
		`CREATE TABLE IF NOT EXISTS options (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS themes (
			name TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS plugins (
			name TEXT PRIMARY KEY,
			active INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	// The core default theme ships with every host.
	_, err := s.db.Exec(`INSERT INTO themes (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, DefaultTheme)
	return err
}

func (s *Site) logQuery(query string) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
}

func (s *Site) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.logQuery(query)
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Site) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	s.logQuery(query)
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *Site) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.logQuery(query)
	return s.db.QueryContext(ctx, query, args...)
}

func (s *Site) cacheObject(key string, id int64) {
	s.mu.Lock()
	s.objects[key] = id
	s.mu.Unlock()
}

func (s *Site) cachedObject(key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.objects[key]
	return id, ok
}

func (s *Site) dropObjects(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
}

// Reclaim discards the query log and the object cache.
func (s *Site) Reclaim(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = nil
	s.objects = make(map[string]int64)
}

// FlushCache discards all cached state, including the long-lived option
// cache.
func (s *Site) FlushCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = nil
	s.objects = make(map[string]int64)
	s.persistent = make(map[string]string)
	return nil
}

func (s *Site) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Queries:    len(s.queries),
		Objects:    len(s.objects),
		Persistent: len(s.persistent),
	}
}

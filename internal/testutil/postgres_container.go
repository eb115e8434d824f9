package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

const pgCredentials = "benchseed:benchseed"

// GetPostgresDSN starts a shared PostgreSQL container on first use and
// returns a pgx-compatible DSN.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	pgOnce.Do(func() {
		endpoint, err := startContainer(t, containerSpec{
			image: "postgres:16",
			port:  "5432/tcp",
			env: map[string]string{
				"POSTGRES_USER":     "benchseed",
				"POSTGRES_PASSWORD": "benchseed",
				"POSTGRES_DB":       "benchseed_test",
			},
			wait: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				// Verify SQL connectivity using a DSN built from the mapped host:port
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://%s@%s:%s/benchseed_test?sslmode=disable", pgCredentials, host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2 * time.Minute),
		})
		if err != nil {
			pgErr = err
			return
		}
		pgDSN = fmt.Sprintf("postgres://%s@%s/benchseed_test?sslmode=disable", pgCredentials, endpoint)
	})

	return requireEndpoint(t, pgDSN, pgErr)
}

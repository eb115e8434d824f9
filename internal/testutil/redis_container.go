package testutil

import (
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress starts a shared Redis container on first use and returns
// its host:port address.
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	redisOnce.Do(func() {
		redisAddr, redisErr = startContainer(t, containerSpec{
			image: "redis:7",
			port:  "6379/tcp",
			wait: wait.ForAll(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		})
	})

	return requireEndpoint(t, redisAddr, redisErr)
}

package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// GetMongoURI starts a shared MongoDB container on first use and returns a
// mongodb:// connection URI.
func GetMongoURI(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	mongoOnce.Do(func() {
		endpoint, err := startContainer(t, containerSpec{
			image: "mongo:7",
			port:  "27017/tcp",
			wait: wait.ForAll(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("mongod startup complete"),
			),
		})
		if err != nil {
			mongoErr = err
			return
		}
		mongoURI = fmt.Sprintf("mongodb://%s", endpoint)
	})

	return requireEndpoint(t, mongoURI, mongoErr)
}

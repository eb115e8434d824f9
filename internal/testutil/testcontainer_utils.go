package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// containerSpec describes one backing service container used by the
// integration suites.
type containerSpec struct {
	image string
	port  string
	env   map[string]string
	wait  wait.Strategy
}

// startContainer runs spec and returns its host:port endpoint. The container
// is removed when t finishes.
func startContainer(t *testing.T, spec containerSpec) (string, error) {
	t.Helper()

	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	opts := []testcontainers.ContainerCustomizer{
		testcontainers.WithExposedPorts(spec.port),
		testcontainers.WithWaitStrategy(spec.wait),
	}
	if len(spec.env) > 0 {
		opts = append(opts, testcontainers.WithEnv(spec.env))
	}

	c, err := testcontainers.Run(ctx, spec.image, opts...)
	if err != nil {
		return "", err
	}

	t.Cleanup(func() {
		testcontainers.CleanupContainer(t, c)
	})

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = c.Terminate(context.Background()) // best-effort cleanup
		return "", err
	}
	return endpoint, nil
}

// requireEndpoint fails t when the container could not be started.
func requireEndpoint(t *testing.T, endpoint string, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("start container: %v", err)
	}
	return endpoint
}

// SkipIfShort skips container-backed tests in -short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
}

// Package testutil starts throwaway backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 2 * time.Minute

func start(t *testing.T, req testcontainers.ContainerRequest, port string) (host, mapped string) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err = container.Host(ctx)
	require.NoError(t, err)
	p, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, p.Port()
}

// StartPostgres returns the DSN of a fresh, empty Postgres database.
func StartPostgres(t *testing.T) string {
	t.Helper()
	host, port := start(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "storefront", "POSTGRES_PASSWORD": "storefront", "POSTGRES_DB": "storefront"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port)
}

// StartRedis returns the host:port of a fresh Redis server.
func StartRedis(t *testing.T) string {
	t.Helper()
	host, port := start(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")
	return host + ":" + port
}

// StartRabbitMQ returns the AMQP url of a fresh broker.
func StartRabbitMQ(t *testing.T) string {
	t.Helper()
	host, port := start(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	}, "5672/tcp")
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port)
}

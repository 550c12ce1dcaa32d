//go:build integration

// Package containers starts disposable PostgreSQL and Oracle databases for
// integration tests and describes them as database configurations.
package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gaborage/sqlbricks/config"
)

const (
	testUser     = "testuser"
	testPassword = "testpass"
)

// dockerAvailable reports whether the Docker daemon can be reached.
func dockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

func skipWithoutDocker(ctx context.Context, t *testing.T) {
	t.Helper()
	if !dockerAvailable(ctx) {
		t.Skip("Docker is not available, skipping integration test")
	}
}

// PostgreSQL starts a postgres:17-alpine container that is terminated when the
// test ends, and returns a configuration pointing at it.
func PostgreSQL(ctx context.Context, t *testing.T) *config.DatabaseConfig {
	t.Helper()
	skipWithoutDocker(ctx, t)

	c, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	terminateOnCleanup(t, c)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get PostgreSQL connection string: %v", err)
	}

	return &config.DatabaseConfig{
		Type:             "postgresql",
		ConnectionString: dsn,
	}
}

// Oracle starts a gvenzl/oracle-free:23-slim container with an application
// user and returns a configuration addressing its default pluggable database.
func Oracle(ctx context.Context, t *testing.T) *config.DatabaseConfig {
	t.Helper()
	skipWithoutDocker(ctx, t)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "gvenzl/oracle-free:23-slim",
			ExposedPorts: []string{"1521/tcp"},
			Env: map[string]string{
				"ORACLE_PASSWORD":   testPassword,
				"APP_USER":          testUser,
				"APP_USER_PASSWORD": testPassword,
			},
			// The log line appears slightly before the listener accepts sessions
			WaitingFor: wait.ForAll(
				wait.ForLog("DATABASE IS READY TO USE!"),
				wait.ForListeningPort("1521/tcp"),
			).WithStartupTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start Oracle container: %v", err)
	}
	terminateOnCleanup(t, c)

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get Oracle container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "1521")
	if err != nil {
		t.Fatalf("failed to get Oracle container port: %v", err)
	}

	return &config.DatabaseConfig{
		Type:     "oracle",
		Host:     host,
		Port:     port.Int(),
		Username: testUser,
		Password: testPassword,
		Oracle: config.OracleConfig{
			Service: config.ServiceConfig{Name: "FREEPDB1"},
		},
	}
}

func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
}

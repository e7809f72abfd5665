// Package cratedbtest starts a single-node CrateDB in Docker for integration tests.
package cratedbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
)

// DefaultImage can be overridden with CRATEDB_TEST_IMAGE.
const DefaultImage = "crate:5.10"

const pgPort nat.Port = "5432/tcp"

// Container is a running CrateDB node.
type Container struct {
	testcontainers.Container
	Host   string
	Port   string
	Config cratedb.Config
}

// Start launches CrateDB and waits until it accepts PostgreSQL connections.
func Start(ctx context.Context) (*Container, error) {
	image := os.Getenv("CRATEDB_TEST_IMAGE")
	if image == "" {
		image = DefaultImage
	}

	req := testcontainers.ContainerRequest{
		Image:        image,
		Cmd:          []string{"-Cdiscovery.type=single-node", "-Ccluster.routing.allocation.disk.threshold_enabled=false"},
		Env:          map[string]string{"CRATE_HEAP_SIZE": "512m"},
		ExposedPorts: []string{string(pgPort), "4200/tcp"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = 1 << 30
			// CRATEDB_TEST_PORT pins the host port, e.g. to attach a SQL console.
			if p := os.Getenv("CRATEDB_TEST_PORT"); p != "" {
				hc.PortBindings = nat.PortMap{pgPort: []nat.PortBinding{{HostPort: p}}}
			}
		},
		WaitingFor: wait.ForListeningPort(pgPort).WithStartupTimeout(90 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start CrateDB container: %w", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	mappedPort, err := ctr.MappedPort(ctx, pgPort)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	port := mappedPort.Port()

	cfg := cratedb.DefaultConfig()
	cfg.Connection.Host = host
	cfg.Connection.Port = port

	if err := waitForCrateDBReady(cfg.ConnectionString(), 60*time.Second); err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("CrateDB container not ready: %w", err)
	}

	return &Container{Container: ctr, Host: host, Port: port, Config: cfg}, nil
}

// Run starts a container for a test and terminates it on cleanup. It skips
// the test in -short mode.
func Run(t *testing.T) *Container {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	c, err := Start(ctx)
	if err != nil {
		t.Fatalf("failed to start CrateDB: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return c
}

// NewClient connects to the container with the given schema and closes the
// client on cleanup.
func (c *Container) NewClient(t *testing.T, schema string) *cratedb.CrateDB {
	t.Helper()
	cfg := c.Config
	if schema != "" {
		cfg.Connection.Schema = schema
	}
	client, err := cratedb.NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("failed to connect to CrateDB: %v", err)
	}
	t.Cleanup(func() { _ = client.GracefulShutdown() })
	return client
}

// waitForCrateDBReady polls with a plain lib/pq connection until a query succeeds.
func waitForCrateDBReady(connStr string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for CrateDB to be ready after %s", timeout)
		}

		db, err := sql.Open("postgres", connStr)
		if err != nil {
			time.Sleep(500 * time.Millisecond)
			continue
		}

		var one int
		err = db.QueryRow("SELECT 1").Scan(&one)
		_ = db.Close()
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// internal/testutil/elastic.go
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const elasticImage = "docker.elastic.co/elasticsearch/elasticsearch:8.13.4"

// TestElastic holds a disposable single-node Elasticsearch container
type TestElastic struct {
	URL       string
	container testcontainers.Container
}

// SetupTestElastic starts Elasticsearch with security disabled. Tests are
// skipped unless LOGREPORT_INTEGRATION=1 since they need a Docker daemon.
func SetupTestElastic(t *testing.T) *TestElastic {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		t.Logf("No .env file found or failed to load: %v. Proceeding with environment variables.", err)
	}
	if os.Getenv("LOGREPORT_INTEGRATION") != "1" {
		t.Skip("set LOGREPORT_INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        elasticImage,
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/_cluster/health").
			WithPort("9200/tcp").
			WithStartupTimeout(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Elasticsearch container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "9200")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatal(err)
	}

	return &TestElastic{
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
		container: container,
	}
}

// Teardown stops the container
func (te *TestElastic) Teardown(t *testing.T) {
	if err := te.container.Terminate(context.Background()); err != nil {
		t.Fatalf("Failed to terminate container: %v", err)
	}
}

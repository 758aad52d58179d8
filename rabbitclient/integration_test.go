package rabbitclient

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jwillmer/easynetq/config"
	"github.com/jwillmer/easynetq/eventbus"
)

// startRabbitContainer starts a RabbitMQ broker for integration tests and
// returns the container together with a configuration pointing at it.
func startRabbitContainer(ctx context.Context, t *testing.T) (testcontainers.Container, *config.ConnectionConfig) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := &config.ConnectionConfig{
		Hosts:      []config.HostConfig{{Host: host, Port: portNum}},
		ClientName: "easynetq-integration-test",
	}
	cfg.Normalize()

	return container, cfg
}

func TestIntegration_ConnectToRealBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, cfg := startRabbitContainer(ctx, t)
	defer container.Terminate(ctx)

	recorder := eventbus.NewRecorder()
	pc, err := NewPersistentConnection(cfg, NewAMQPConnectionFactory(),
		WithEventBus(recorder))
	require.NoError(t, err)
	defer pc.Close()

	require.NoError(t, pc.Connect())
	assert.True(t, pc.IsConnected())
	assert.Len(t, recorder.EventsOf(eventbus.TopicConnectionCreated), 1)
}

func TestIntegration_ChannelsOverOneConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, cfg := startRabbitContainer(ctx, t)
	defer container.Terminate(ctx)

	pc, err := NewPersistentConnection(cfg, NewAMQPConnectionFactory())
	require.NoError(t, err)
	defer pc.Close()

	// RabbitMQ advertises a channel max (2047 by default), so these are
	// tracked pool channels on a single connection.
	a, err := pc.CreateModel()
	require.NoError(t, err)
	b, err := pc.CreateModel()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	// A closed channel's slot is reclaimed; the replacement is fresh.
	require.NoError(t, a.Close())
	time.Sleep(200 * time.Millisecond) // close notification is asynchronous
	c, err := pc.CreateModel()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestIntegration_DisposeIsFinal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, cfg := startRabbitContainer(ctx, t)
	defer container.Terminate(ctx)

	pc, err := NewPersistentConnection(cfg, NewAMQPConnectionFactory())
	require.NoError(t, err)
	require.NoError(t, pc.Connect())

	require.NoError(t, pc.Close())
	require.NoError(t, pc.Close())
	assert.False(t, pc.IsConnected())

	_, err = pc.CreateModel()
	require.Error(t, err)
}

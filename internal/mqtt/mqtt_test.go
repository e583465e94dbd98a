package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

type published struct {
	topic   string
	payload []byte
}

// recordingClient is an in-memory Client.
type recordingClient struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (c *recordingClient) Connect(context.Context) error { return nil }

func (c *recordingClient) Publish(_ context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{topic: topic, payload: payload})
	return nil
}

func (c *recordingClient) IsConnected() bool { return c.err == nil }

func (c *recordingClient) Disconnect() {}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	cfg := ConfigFromSettings(conf.MQTTSettings{Broker: "tcp://broker:1883", QoS: 5, Retain: true})
	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, "divipola", cfg.ClientID)
	assert.Equal(t, byte(2), cfg.QoS)
	assert.True(t, cfg.Retain)
	assert.Equal(t, 10*time.Second, cfg.PublishTimeout)
}

func TestCaptureTopic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "divipola/polling-places/12/tables/340/capture", CaptureTopic("divipola", 12, 340))
	assert.Equal(t, "caqueta/escrutinio/polling-places/1/tables/2/capture", CaptureTopic("caqueta/escrutinio/", 1, 2))
}

func TestPublishCapture(t *testing.T) {
	t.Parallel()

	client := &recordingClient{}
	p := NewCapturePublisher(client, "divipola", testLogger())

	table := &entities.Table{ID: 340, Number: 3, PollingPlaceID: 12, MunicipalityID: 1}
	confirmed := time.Date(2026, 3, 8, 16, 30, 0, 0, time.UTC)
	captured := &entities.Capture{TableID: 340, ValidVotes: 180, BlankVotes: 12, NullVotes: 4, ConfirmedAt: confirmed}

	require.NoError(t, p.PublishCapture(context.Background(), table, captured))
	require.Len(t, client.messages, 1)
	assert.Equal(t, "divipola/polling-places/12/tables/340/capture", client.messages[0].topic)

	var msg CaptureMessage
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &msg))
	assert.Equal(t, uint(340), msg.TableID)
	assert.Equal(t, 3, msg.TableNumber)
	assert.Equal(t, int64(196), msg.TotalVotes)
	assert.True(t, confirmed.Equal(msg.ConfirmedAt))
}

func TestPublishCaptureClientError(t *testing.T) {
	t.Parallel()

	boom := errors.NewStd("not connected")
	p := NewCapturePublisher(&recordingClient{err: boom}, "divipola", testLogger())

	err := p.PublishCapture(context.Background(), &entities.Table{ID: 1}, &entities.Capture{TableID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestClientRejectsInvalidBroker(t *testing.T) {
	t.Parallel()

	for _, broker := range []string{"", "localhost:1883", "http://broker:80", "tcp://"} {
		c := NewClient(Config{Broker: broker, ConnectTimeout: time.Second}, testLogger())
		err := c.Connect(context.Background())
		require.Error(t, err, broker)
		assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err), broker)
	}
}

func TestClientPublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	c := NewClient(DefaultConfig(), testLogger())
	assert.False(t, c.IsConnected())

	err := c.Publish(context.Background(), "divipola/test", []byte("{}"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.CategoryOf(err))
	c.Disconnect()
}

// TestClientAgainstBroker needs a reachable broker, e.g.
// DIVIPOLA_TEST_MQTT_BROKER=tcp://localhost:1883.
func TestClientAgainstBroker(t *testing.T) {
	broker := os.Getenv("DIVIPOLA_TEST_MQTT_BROKER")
	if broker == "" {
		t.Skip("DIVIPOLA_TEST_MQTT_BROKER not set")
	}

	cfg := DefaultConfig()
	cfg.Broker = broker
	cfg.ClientID = "divipola-test"
	c := NewClient(cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	defer c.Disconnect()
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Publish(ctx, "divipola/test", []byte(`{"ok":true}`)))
}

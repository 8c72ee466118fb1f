package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ai-kindergarten-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
func (noopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}

func newTestHubWithClient(t *testing.T) (*Hub, *Client) {
	t.Helper()
	hub := NewHub(nil, noopLogger{})
	go hub.Run()

	client := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 8)}
	hub.register <- client

	// Wait for Run to pick up the registration.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client.ID]
		return ok
	}, time.Second, 5*time.Millisecond)

	return hub, client
}

func receiveFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestBroadcastDeliversTypedFrame(t *testing.T) {
	hub, client := newTestHubWithClient(t)

	hub.Broadcast("stats", map[string]int{"total_queries": 7})

	var frame struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
		Src  string         `json:"src"`
	}
	require.NoError(t, json.Unmarshal(receiveFrame(t, client), &frame))
	assert.Equal(t, "stats", frame.Type)
	assert.Equal(t, 7, frame.Data["total_queries"])
	assert.Equal(t, hub.id.String(), frame.Src)
}

func TestRelayRemoteDropsOwnFrames(t *testing.T) {
	hub, client := newTestHubWithClient(t)

	own := []byte(fmt.Sprintf(`{"type":"stats","data":{},"src":%q}`, hub.id.String()))
	hub.relayRemote(own)

	select {
	case <-client.Send:
		t.Fatal("frame published by this instance was delivered twice")
	case <-time.After(50 * time.Millisecond):
	}

	foreign := []byte(`{"type":"stats","data":{},"src":"another-instance"}`)
	hub.relayRemote(foreign)
	assert.JSONEq(t, string(foreign), string(receiveFrame(t, client)))
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-kindergarten-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// statsChannel is the redis channel used to fan counter pushes out to
// every instance behind the load balancer.
const statsChannel = "assistant_stats"

// Hub tracks live stats subscribers. Every connected dashboard receives
// the same counter snapshots, so clients are keyed by connection id only.
type Hub struct {
	// Instance id stamped into published frames so the redis relay can
	// drop this instance's own messages instead of delivering them twice.
	id uuid.UUID

	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, may be nil
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.New(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Stats subscriber connected", map[string]interface{}{"conn_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Stats subscriber disconnected", map[string]interface{}{"conn_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

// StartCounterPush periodically snapshots the counters and pushes them to
// every subscriber. snapshot is called once per tick.
func (h *Hub) StartCounterPush(interval time.Duration, snapshot func() interface{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			idle := len(h.clients) == 0
			h.mu.RUnlock()
			if idle && h.rdb == nil {
				continue
			}
			h.Broadcast("stats", snapshot())
		}
	}()
}

// Broadcast sends a typed payload to all local subscribers and fans it
// out over redis for subscribers on other instances.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": msgType,
		"data": payload,
		"src":  h.id.String(),
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal broadcast payload", map[string]interface{}{"error": err.Error()})
		return
	}

	h.sendLocal(data)

	if h.rdb != nil {
		h.rdb.Publish(context.Background(), statsChannel, data)
	}
}

func (h *Hub) sendLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer, drop the connection.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, statsChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.relayRemote([]byte(msg.Payload))
	}
}

// relayRemote delivers a frame received over redis unless this instance
// published it, since Broadcast already sent it locally.
func (h *Hub) relayRemote(data []byte) {
	var frame struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(data, &frame); err == nil && frame.Src == h.id.String() {
		return
	}
	h.sendLocal(data)
}

package realtime

import (
	"context"
	"sync"

	"quota-service/internal/redisclient"
	"quota-service/internal/util"

	"go.uber.org/zap"
)

// Hub routes realtime events from Redis pub/sub to connected websocket
// clients. Fan-out goes through Redis so every service instance sees every
// event regardless of which instance persisted it.
type Hub struct {
	redis  *redisclient.Client
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
}

// NewHub creates a new hub
func NewHub(redis *redisclient.Client) *Hub {
	return &Hub{
		redis:   redis,
		logger:  util.GetLogger(),
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
	}
}

// Run pumps Redis pub/sub messages to subscribed clients until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.redis.GetClient().PSubscribe(ctx,
		redisclient.ChatChannel("*"),
		redisclient.NotifyChannel("*"))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the frame rather than block the hub.
			h.logger.Warn("Dropping realtime frame for slow client",
				zap.String("topic", topic),
				zap.String("user_id", client.userID))
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	util.RealtimeClientsGauge.Inc()
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for topic := range client.topics {
		h.leaveTopic(client, topic)
	}
	close(client.send)
	util.RealtimeClientsGauge.Dec()
}

func (h *Hub) joinTopic(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	client.topics[topic] = struct{}{}
}

// leaveTopic must be called with h.mu held
func (h *Hub) leaveTopic(client *Client, topic string) {
	if subscribers, ok := h.topics[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.topics = make(map[string]map[*Client]struct{})
}

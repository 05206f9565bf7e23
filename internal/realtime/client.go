package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quota-service/internal/redisclient"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMsgSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AccessChecker gates chat subscriptions on quota participation
type AccessChecker func(ctx context.Context, quotaID, userID string) (bool, error)

// Client is one websocket connection. It is always subscribed to its own
// notification topic; chat topics are joined on request, participation
// permitting.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	topics map[string]struct{}
	access AccessChecker
}

// subscribeRequest is the only inbound frame clients send
type subscribeRequest struct {
	Action  string `json:"action"` // subscribe | unsubscribe
	QuotaID string `json:"quota_id"`
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, access AccessChecker) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 64),
		topics: make(map[string]struct{}),
		access: access,
	}

	h.register(client)
	h.joinTopic(client, redisclient.NotifyChannel(userID))

	// The request context is cancelled once this handler returns, so access
	// checks need a context tied to the connection's own lifetime.
	ctx, cancel := context.WithCancel(context.Background())

	go client.writePump()
	go func() {
		defer cancel()
		client.readPump(ctx)
	}()
	return nil
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.QuotaID == "" {
			continue
		}

		topic := redisclient.ChatChannel(req.QuotaID)
		switch req.Action {
		case "subscribe":
			allowed, err := c.access(ctx, req.QuotaID, c.userID)
			if err != nil || !allowed {
				c.hub.logger.Info("Chat subscription denied",
					zap.String("quota_id", req.QuotaID),
					zap.String("user_id", c.userID))
				continue
			}
			c.hub.joinTopic(c, topic)
		case "unsubscribe":
			c.hub.mu.Lock()
			c.hub.leaveTopic(c, topic)
			c.hub.mu.Unlock()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/reserve_capacity.lua
var reserveCapacityScript string

//go:embed scripts/release_capacity.lua
var releaseCapacityScript string

// Channel name patterns for realtime fan-out.
const (
	ChatChannelPattern   = "chat:%s"   // chat:{quota_id}
	NotifyChannelPattern = "notify:%s" // notify:{user_id}
)

// ChatChannel returns the pub/sub channel carrying a quota's chat stream.
func ChatChannel(quotaID string) string {
	return fmt.Sprintf(ChatChannelPattern, quotaID)
}

// NotifyChannel returns the pub/sub channel carrying a user's notifications.
func NotifyChannel(userID string) string {
	return fmt.Sprintf(NotifyChannelPattern, userID)
}

type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(reserveCapacityScript),
		releaseScript: redis.NewScript(releaseCapacityScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ReserveCapacity atomically reserves quantity and a participant slot in the
// cached capacity hash. Returns ok=false when capacity is insufficient and
// cached=false when the quota is not in the cache.
func (c *Client) ReserveCapacity(ctx context.Context, quotaID string, quantity float64) (ok, cached bool, err error) {
	key := fmt.Sprintf("capacity:%s", quotaID)

	result, err := c.reserveScript.Run(ctx, c.rdb, []string{key}, quantity).Result()
	if err != nil {
		return false, false, fmt.Errorf("reserve capacity script failed: %w", err)
	}

	code, isInt := result.(int64)
	if !isInt {
		return false, false, fmt.Errorf("unexpected script result type")
	}

	switch code {
	case 1:
		return true, true, nil
	case 0:
		return false, true, nil
	default:
		return false, false, nil
	}
}

// ReleaseCapacity gives back a reserved quantity and slot (compensation)
func (c *Client) ReleaseCapacity(ctx context.Context, quotaID string, quantity float64) error {
	key := fmt.Sprintf("capacity:%s", quotaID)

	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{key}, quantity).Result(); err != nil {
		return fmt.Errorf("release capacity script failed: %w", err)
	}
	return nil
}

// InitCapacity seeds the capacity hash for a quota
func (c *Client) InitCapacity(ctx context.Context, quotaID string, quantityRemaining float64, slotsRemaining int) error {
	key := fmt.Sprintf("capacity:%s", quotaID)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "quantity_remaining", quantityRemaining)
	pipe.HSet(ctx, key, "slots_remaining", slotsRemaining)

	_, err := pipe.Exec(ctx)
	return err
}

// DropCapacity removes the capacity hash once a quota is closed
func (c *Client) DropCapacity(ctx context.Context, quotaID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("capacity:%s", quotaID)).Err()
}

// SetSession stores a session id to user id mapping with TTL
func (c *Client) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("session:%s", sessionID), userID, ttl).Err()
}

// GetSession resolves a session id to a user id; empty when absent
func (c *Client) GetSession(ctx context.Context, sessionID string) (string, error) {
	userID, err := c.rdb.Get(ctx, fmt.Sprintf("session:%s", sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return userID, err
}

// DeleteSession revokes a session (logout)
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("session:%s", sessionID)).Err()
}

// Publish fans an event payload out on a realtime channel
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

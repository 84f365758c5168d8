package ws

import (
	"context"       // Publish deadlines and relay lifetime
	"encoding/json" // Envelope encoding
	"fmt"           // Error wrapping
	"time"          // Publish timeout

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Channel is the Redis pub/sub channel carrying notifications between instances.
const Channel = "notifications"

// envelope is the message published on Channel
type envelope struct {
	UserID  uint            `json:"user_id"` // Recipient
	Payload json.RawMessage `json:"payload"` // Frame sent as-is to the user's connections
}

// RedisBroadcaster publishes to Redis so every instance's Relay can deliver locally.
type RedisBroadcaster struct {
	rdb *redis.Client
}

// NewRedisBroadcaster publishes through rdb
func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

// BroadcastToUser publishes the payload; failures are logged, the feed row is already stored
func (b *RedisBroadcaster) BroadcastToUser(userID uint, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Warn("ws payload not encodable")
		return
	}
	data, _ := json.Marshal(envelope{UserID: userID, Payload: raw})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, Channel, data).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("notification publish failed")
	}
}

// Relay feeds notifications published on Redis into the local hub.
type Relay struct {
	rdb *redis.Client
	hub *Hub
}

// NewRelay delivers Channel messages into hub
func NewRelay(rdb *redis.Client, hub *Hub) *Relay {
	return &Relay{rdb: rdb, hub: hub}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil { // Wait for the subscription confirmation
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	logrus.WithField("channel", Channel).Info("Notification relay subscribed")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil // Subscription closed
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("malformed relay message")
				continue
			}
			r.hub.BroadcastToUser(env.UserID, env.Payload)
		}
	}
}

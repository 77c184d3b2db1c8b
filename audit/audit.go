// Package audit publishes tenant-scoped audit events for admin mutations.
// Publishing is fire and forget: a failed publish is logged and never fails
// the operation that produced it.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Event records who did what to which tenant.
type Event struct {
	TenantID  string         `json:"tenantId"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Publisher emits audit events.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher publishes events to a Redis pub/sub channel as JSON.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a RedisPublisher on the given channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends the event. Errors are logged, not returned.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("action", ev.Action).Msg("audit: marshal event failed")
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Warn().Err(err).
			Str("action", ev.Action).
			Str("tenant_id", ev.TenantID).
			Msg("audit: publish failed")
	}
}

// NopPublisher discards all events. Used when auditing is not configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) {}

// Package events publishes catalog change events into an external
// notification channel. Delivery is best-effort: the catalog never fails an
// operation because an event could not be published.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"vellum/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel catalog events are published to.
const Channel = "catalog:events"

// Event types emitted by the catalog core.
const (
	DocumentCreated = "document.created"
	DocumentUpdated = "document.updated"
	DocumentDeleted = "document.deleted"
	DocumentStarred = "document.starred"
)

// Publisher sends catalog events into Redis pub/sub. A nil client disables
// publishing entirely.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher using the provided Redis client.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish emits one event. Failures are logged and dropped.
func (p *Publisher) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.rdb == nil {
		return
	}

	body := map[string]any{
		"event":       event,
		"payload":     payload,
		"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(body)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "event marshal failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := p.rdb.Publish(ctx, Channel, b).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// Package events delivers outbox messages to Redis pub/sub subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/pkg/logger"
)

// Envelope is the message published on the Redis channel.
type Envelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Aggregate string          `json:"aggregate_type"`
	Payload   json.RawMessage `json:"payload"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes every outbox message on one channel.
type RedisPublisher struct {
	rdb     publisher
	channel string
}

var _ postgres.OutboxHandler = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher for channel.
func NewRedisPublisher(rdb redis.Cmdable, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Handle publishes msg. A failed publish leaves the message pending for retry.
func (p *RedisPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	raw, err := json.Marshal(Envelope{
		ID:        msg.ID.String(),
		EventType: msg.EventType,
		Aggregate: msg.AggregateType,
		Payload:   json.RawMessage(msg.Payload),
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.EventType, err)
	}
	return nil
}

// Invalidator is satisfied by analysis.Service and the analysis cache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...postgres.OutboxHandler) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err := h.Handle(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// InvalidateOn drops a cache whenever a message of one of the aggregates passes.
// Cache failures are logged and do not block delivery.
func InvalidateOn(inv Invalidator, aggregates ...string) postgres.OutboxHandler {
	watched := make(map[string]struct{}, len(aggregates))
	for _, a := range aggregates {
		watched[strings.ToLower(a)] = struct{}{}
	}
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
		if _, ok := watched[strings.ToLower(msg.AggregateType)]; !ok {
			return nil
		}
		if err := inv.Invalidate(ctx); err != nil {
			logger.Warn(ctx, "cache invalidation failed", "event", msg.EventType, "error", err)
		}
		return nil
	})
}

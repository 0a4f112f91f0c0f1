// Package events publishes formatting outcomes to a Redis stream so other
// services can follow formatter activity. Events never carry user text.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types
const (
	TypeFormatted = "status.formatted"
	TypeFailed    = "status.failed"
)

// Error classes carried by failed events in place of error messages, which
// may quote provider responses.
const (
	ErrorEmptyResponse   = "empty_response"
	ErrorMalformedResult = "malformed_result"
	ErrorUnknownStatus   = "unknown_status"
	ErrorTimeout         = "timeout"
	ErrorTransport       = "transport"
)

// Event describes one handled formatting request
type Event struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id"`
	Status     string    `json:"status"`
	Cached     bool      `json:"cached"`
	Fields     int       `json:"fields"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards events
type Noop struct{}

// Publish does nothing
func (Noop) Publish(context.Context, Event) error { return nil }

// RedisPublisher implements Publisher using Redis Streams
type RedisPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
	logger *zap.Logger
}

// NewRedisPublisher creates a publisher writing to stream. maxLen caps the
// stream length approximately; zero leaves it unbounded.
func NewRedisPublisher(client redis.Cmdable, stream string, maxLen int64, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

// Publish appends event to the stream
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("stream", p.stream),
		zap.String("type", event.Type),
		zap.String("request_id", event.RequestID),
	)

	return nil
}

package glossolalia

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSink appends messages to a Redis stream.
type RedisSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

func NewRedisSink(client redis.UniversalClient, stream string, maxLen int64) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, msg *Message) error {
	data, err := msg.Data()
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Event, err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event":       string(msg.Event),
			"data":        string(data),
			"occurred_at": msg.OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

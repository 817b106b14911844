package glossolalia

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes messages to the service log. Useful in development.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, msg *Message) error {
	data, err := msg.Data()
	if err != nil {
		return err
	}
	s.log.Info("glossolalia message",
		zap.String("event", string(msg.Event)),
		zap.String("key", msg.Key()),
		zap.ByteString("data", data),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

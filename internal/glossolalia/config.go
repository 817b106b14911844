package glossolalia

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

// FromConfig builds a dispatcher with the configured sinks. A disabled
// config gives a dispatcher that drops everything.
func FromConfig(cfg config.GlossolaliaConfig, log *zap.Logger, m *metrics.Collector) (*Dispatcher, error) {
	opts := Options{BufferSize: cfg.BufferSize, SendTimeout: cfg.SendTimeout, Metrics: m}
	if !cfg.Enabled {
		return NewDispatcher(log, opts), nil
	}

	sinks := make([]Sink, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		switch name {
		case "webhook":
			client := &http.Client{Timeout: cfg.SendTimeout}
			sinks = append(sinks, NewWebhookSink(cfg.URLBase, cfg.ServiceType, cfg.BrandName, client))
		case "redis":
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			sinks = append(sinks, NewRedisSink(client, cfg.RedisStream, cfg.RedisMaxLen))
		case "kafka":
			sinks = append(sinks, NewKafkaSink(NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)))
		case "log":
			sinks = append(sinks, NewLogSink(log))
		default:
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("unknown glossolalia sink %q", name)
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("glossolalia enabled", zap.Strings("sinks", names))
	return NewDispatcher(log, opts, sinks...), nil
}

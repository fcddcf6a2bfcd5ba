package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/redis/go-redis/v9"
)

// Redis publishes each line on a channel and keeps the latest values in a hash.
//
// Hash fields: "ch0".."ch3" hold the values, "timestamp" the receive time in
// Unix milliseconds.
type Redis struct {
	client  *redis.Client
	channel string
	key     string
}

// NewRedis creates a Redis sink. It does not dial; use Ping to check.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   0,
	})
	return newRedis(client, cfg.Channel, cfg.Key), nil
}

func newRedis(client *redis.Client, channel, key string) *Redis {
	return &Redis{
		client:  client,
		channel: channel,
		key:     key,
	}
}

// Ping checks the connection.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Write updates the hash and publishes the line in one pipeline.
func (s *Redis) Write(ctx context.Context, f telemetry.Frame) error {
	pipe := s.client.Pipeline()
	if s.key != "" {
		pipe.HSet(ctx, s.key, hashFields(f))
	}
	if s.channel != "" {
		pipe.Publish(ctx, s.channel, f.Line())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write failed: %w", err)
	}
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}

func hashFields(f telemetry.Frame) map[string]any {
	fields := make(map[string]any, sampler.NumChannels+1)
	for i, v := range f.Values {
		fields["ch"+strconv.Itoa(i)] = v
	}
	fields["timestamp"] = f.Timestamp.UnixMilli()
	return fields
}

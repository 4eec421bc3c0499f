package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"sjsage522/pricesheet/pkg/errors"
)

// MessageField is the stream entry field holding the base64 encoded batch.
const MessageField = "b64_batch"

// RedisPublisher implements Publisher using Redis streams, one stream per
// price domain
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping() error {
	if err := p.client.Ping(p.ctx).Err(); err != nil {
		return errors.NewPublisher(p.streamPrefix, "redis unreachable", err)
	}
	return nil
}

// Stream returns the stream name of key
func (p *RedisPublisher) Stream(key string) string {
	return p.streamPrefix + ":" + key
}

// Publish appends a message to the stream of key.
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.Stream(key),
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(p.Stream(key), "publishing batch", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	// Get all streams with the prefix
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return errors.NewPublisher(pattern, "listing streams", err)
	}

	// Trim each stream
	for _, stream := range streams {
		err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err()
		if err != nil {
			return errors.NewPublisher(stream, "trimming stream", err)
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package ws

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher sends envelopes to Redis pub/sub so that every API instance's relay
// can hand them to its local hub.
type RedisPublisher struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	log     zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, prefix string, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix, timeout: 2 * time.Second, log: log}
}

func (p *RedisPublisher) Publish(topic Topic, kind string, payload interface{}) {
	data, err := Encode(kind, payload)
	if err != nil {
		p.log.Error().Err(err).Str("kind", kind).Msg("encode notification")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, channelName(p.prefix, topic), data).Err(); err != nil {
		p.log.Error().Err(err).Str("topic", string(topic)).Msg("redis publish failed")
	}
}

// RedisRelay subscribes to every topic channel under prefix and delivers into hub.
type RedisRelay struct {
	client *redis.Client
	prefix string
	hub    *Hub
	log    zerolog.Logger
}

func NewRedisRelay(client *redis.Client, prefix string, hub *Hub, log zerolog.Logger) *RedisRelay {
	return &RedisRelay{client: client, prefix: prefix, hub: hub, log: log}
}

// Run blocks until ctx is canceled or the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, r.prefix+"*")
	defer sub.Close()

	// Wait for confirmation that subscription is created
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info().Str("pattern", r.prefix+"*").Msg("redis relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			topic, ok := topicFromChannel(r.prefix, msg.Channel)
			if !ok {
				continue
			}
			r.hub.Deliver(topic, []byte(msg.Payload))
		}
	}
}

func channelName(prefix string, topic Topic) string {
	return prefix + string(topic)
}

func topicFromChannel(prefix, channel string) (Topic, bool) {
	if !strings.HasPrefix(channel, prefix) || len(channel) == len(prefix) {
		return "", false
	}
	return Topic(strings.TrimPrefix(channel, prefix)), true
}

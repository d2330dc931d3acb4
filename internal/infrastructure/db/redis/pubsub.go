package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// EventsChannel carries realtime events between API instances.
const EventsChannel = "community:events"

// EventBus fans realtime events out to every API instance through Redis
// pub/sub, so a socket connected to any instance receives them.
type EventBus struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewEventBus(client *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{client: client, channel: EventsChannel, log: log}
}

// Publish serializes event onto the channel.
func (b *EventBus) Publish(ctx context.Context, event domain.RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe delivers every event received on the channel to handle until
// ctx is cancelled. Undecodable payloads are logged and skipped.
func (b *EventBus) Subscribe(ctx context.Context, handle func(domain.RealtimeEvent)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting readiness.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("realtime subscription active")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event domain.RealtimeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn().Err(err).Msg("dropping malformed realtime event")
				continue
			}
			handle(event)
		}
	}
}

package websocket

import (
	"context"

	"clip-share/internal/events"
	"clip-share/pkg/logger"
)

// RedisBridge forwards per-user events from the bus to the local hub, so every API
// instance reaches the connections it holds.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     *logger.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, l *logger.Logger) *RedisBridge {
	if l == nil {
		l = logger.NewNop()
	}
	return &RedisBridge{subscriber: subscriber, hub: hub, logger: l}
}

// Run blocks until ctx is done or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.UserChannelPattern}, func(channel string, payload []byte) {
		if _, ok := events.UserFromChannel(channel); !ok {
			b.logger.Debugf("dropping event on unexpected channel %s", channel)
			return
		}
		b.hub.Broadcast(channel, payload)
	})
}

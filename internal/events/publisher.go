package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// RawPublisher delivers an encoded payload on a named channel.
type RawPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// UserPublisher routes envelopes to the channel of the user they concern.
type UserPublisher struct {
	raw RawPublisher
}

func NewUserPublisher(raw RawPublisher) *UserPublisher {
	return &UserPublisher{raw: raw}
}

func (p *UserPublisher) PublishToUser(ctx context.Context, uid string, env Envelope) error {
	if p == nil || p.raw == nil || uid == "" {
		return nil
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.raw.Publish(ctx, UserChannel(uid), data)
}

package websocket

import "clip-share/internal/events"

// ChannelAuthorizer decides which channels a connection may listen on. Users only ever
// see their own channel.
type ChannelAuthorizer struct{}

func NewChannelAuthorizer() *ChannelAuthorizer {
	return &ChannelAuthorizer{}
}

func (a *ChannelAuthorizer) CanSubscribe(userID, channel string) bool {
	if userID == "" {
		return false
	}
	owner, ok := events.UserFromChannel(channel)
	return ok && owner == userID
}

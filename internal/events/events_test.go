package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	channel string
	payload []byte
}

func (r *recordingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	r.channel = channel
	r.payload = payload
	return nil
}

func TestUserPublisher_RoutesToUserChannel(t *testing.T) {
	raw := &recordingPublisher{}
	pub := NewUserPublisher(raw)

	env, err := NewEnvelope(EventTypeUploadProgress, AggregateUpload, "s1", UploadEvent{SessionID: "s1", Percentage: 0.5})
	require.NoError(t, err)
	require.NoError(t, pub.PublishToUser(context.Background(), "u1", env))

	assert.Equal(t, "channel:user:u1", raw.channel)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(raw.payload, &decoded))
	assert.Equal(t, EventTypeUploadProgress, decoded.EventType)

	var ev UploadEvent
	require.NoError(t, decoded.Decode(&ev))
	assert.Equal(t, 0.5, ev.Percentage)
}

func TestUserPublisher_SkipsAnonymous(t *testing.T) {
	raw := &recordingPublisher{}
	require.NoError(t, NewUserPublisher(raw).PublishToUser(context.Background(), "", Envelope{}))
	assert.Empty(t, raw.channel)
}

func TestUserFromChannel(t *testing.T) {
	uid, ok := UserFromChannel(UserChannel("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", uid)

	_, ok = UserFromChannel("channel:conversation:abc")
	assert.False(t, ok)
}

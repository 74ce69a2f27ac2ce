package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clip-share/internal/domain/clip"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - clip:{doc_id} - published clip, ClipTTL
const DefaultClipTTL = 5 * time.Minute

// ClipCache keeps recently resolved clips in Redis.
type ClipCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewClipCache(client *goredis.Client, ttl time.Duration) *ClipCache {
	if ttl <= 0 {
		ttl = DefaultClipTTL
	}
	return &ClipCache{client: client, ttl: ttl}
}

func clipKey(docID string) string {
	return fmt.Sprintf("clip:%s", docID)
}

// Get returns nil, nil on a cache miss.
func (c *ClipCache) Get(ctx context.Context, docID string) (*clip.Clip, error) {
	data, err := c.client.Get(ctx, clipKey(docID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached clip.Clip
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *ClipCache) Set(ctx context.Context, entry clip.Clip) error {
	if entry.DocID == "" {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, clipKey(entry.DocID), data, c.ttl).Err()
}

func (c *ClipCache) Delete(ctx context.Context, docID string) error {
	return c.client.Del(ctx, clipKey(docID)).Err()
}

package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
}

func TestClipKey(t *testing.T) {
	assert.Equal(t, "clip:abc", clipKey("abc"))
}

func TestNewClipCacheDefaultsTTL(t *testing.T) {
	assert.Equal(t, DefaultClipTTL, NewClipCache(nil, 0).ttl)
	assert.Equal(t, time.Minute, NewClipCache(nil, time.Minute).ttl)
}

func TestNewRateLimiterFillsDefaults(t *testing.T) {
	limiter := NewRateLimiter(nil, RateLimitConfig{UploadLimit: 3})

	assert.Equal(t, 3, limiter.config.UploadLimit)
	assert.Equal(t, time.Hour, limiter.config.UploadWindow)
	assert.Equal(t, 120, limiter.config.ResolveLimit)
	assert.Equal(t, time.Minute, limiter.config.ResolveWindow)
}

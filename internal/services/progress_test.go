package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressAggregator_WaitsForBothTracks(t *testing.T) {
	agg := NewProgressAggregator(true)

	_, ok := agg.UpdateVideo(40)
	assert.False(t, ok)

	snap, ok := agg.UpdateThumbnail(20)
	assert.True(t, ok)
	assert.InDelta(t, 0.30, snap.Fraction, 1e-9)

	snap, ok = agg.UpdateVideo(100)
	assert.True(t, ok)
	assert.InDelta(t, 0.60, snap.Fraction, 1e-9)
}

func TestProgressAggregator_VideoOnly(t *testing.T) {
	agg := NewProgressAggregator(false)

	snap, ok := agg.UpdateVideo(50)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, snap.Fraction, 1e-9)

	_, ok = agg.UpdateThumbnail(100)
	assert.False(t, ok)
	assert.InDelta(t, 0.5, agg.Snapshot().Fraction, 1e-9)
}

func TestProgressAggregator_NeverRegresses(t *testing.T) {
	agg := NewProgressAggregator(true)
	agg.UpdateVideo(80)
	agg.UpdateThumbnail(80)

	snap, _ := agg.UpdateVideo(10)
	assert.InDelta(t, 0.8, snap.Fraction, 1e-9)
	assert.Equal(t, float64(80), snap.Video)

	snap, _ = agg.UpdateThumbnail(250)
	assert.Equal(t, float64(100), snap.Thumbnail)
	assert.InDelta(t, 0.9, snap.Fraction, 1e-9)
	assert.InDelta(t, 90, snap.Percentage(), 1e-9)
}

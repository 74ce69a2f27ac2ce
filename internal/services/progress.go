package services

import "sync"

// ProgressSnapshot holds per-track percentages (0..100) and the combined fraction (0..1).
type ProgressSnapshot struct {
	Video     float64
	Thumbnail float64
	Fraction  float64
}

// Percentage is the combined progress on a 0..100 scale.
func (p ProgressSnapshot) Percentage() float64 {
	return p.Fraction * 100
}

// ProgressAggregator combines the video and thumbnail upload streams into one value.
// With both tracks the fraction is (video+thumbnail)/200 and nothing is reported until
// each track emitted once. With the video alone it is video/100. The fraction never
// goes down.
type ProgressAggregator struct {
	mu            sync.Mutex
	withThumbnail bool
	video         float64
	thumbnail     float64
	videoSeen     bool
	thumbSeen     bool
	fraction      float64
}

func NewProgressAggregator(withThumbnail bool) *ProgressAggregator {
	return &ProgressAggregator{withThumbnail: withThumbnail}
}

// UpdateVideo records a video percentage. ok is false while the aggregate is not yet defined.
func (a *ProgressAggregator) UpdateVideo(pct float64) (ProgressSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pct > a.video || !a.videoSeen {
		a.video = clampPercent(pct)
	}
	a.videoSeen = true
	return a.recompute()
}

// UpdateThumbnail records a thumbnail percentage. Ignored when no thumbnail is uploaded.
func (a *ProgressAggregator) UpdateThumbnail(pct float64) (ProgressSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.withThumbnail {
		return a.snapshot(), false
	}
	if pct > a.thumbnail || !a.thumbSeen {
		a.thumbnail = clampPercent(pct)
	}
	a.thumbSeen = true
	return a.recompute()
}

func (a *ProgressAggregator) Snapshot() ProgressSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *ProgressAggregator) recompute() (ProgressSnapshot, bool) {
	var next float64
	if a.withThumbnail {
		if !a.videoSeen || !a.thumbSeen {
			return a.snapshot(), false
		}
		next = (a.video + a.thumbnail) / 200
	} else {
		if !a.videoSeen {
			return a.snapshot(), false
		}
		next = a.video / 100
	}
	if next > a.fraction {
		a.fraction = next
	}
	return a.snapshot(), true
}

func (a *ProgressAggregator) snapshot() ProgressSnapshot {
	return ProgressSnapshot{Video: a.video, Thumbnail: a.thumbnail, Fraction: a.fraction}
}

func clampPercent(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

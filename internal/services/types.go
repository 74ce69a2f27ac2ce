package services

import (
	"context"
	"iter"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	"clip-share/internal/events"
	"clip-share/internal/storage"
)

// AssetStore is the durable blob store holding clip videos and screenshots.
type AssetStore interface {
	Upload(ctx context.Context, path string, blob *upload.Blob) *storage.Transfer
	URL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

// ThumbnailExtractor derives still-image candidates from a video.
type ThumbnailExtractor interface {
	Extract(ctx context.Context, video *upload.Blob) (iter.Seq[*upload.Blob], error)
	BlobFromDataURL(dataURL string) (*upload.Blob, error)
}

// ClipCache is an optional read-through cache for single clips. Get returns nil on a miss.
type ClipCache interface {
	Get(ctx context.Context, docID string) (*clip.Clip, error)
	Set(ctx context.Context, c clip.Clip) error
	Delete(ctx context.Context, docID string) error
}

type EventPublisher interface {
	PublishToUser(ctx context.Context, uid string, env events.Envelope) error
}

package repository

import (
	"context"

	"clip-share/internal/domain/clip"
)

// ClipQuery selects a page of clips. An empty OwnerID spans every owner.
type ClipQuery struct {
	OwnerID   string
	Direction clip.SortDirection
	Limit     int
	After     *clip.Cursor
}

// ClipPatch lists the mutable fields of a clip. Nil fields are left untouched.
type ClipPatch struct {
	Title *string
}

type ClipRepository interface {
	// Insert stores c and fills in its DocID and Timestamp.
	Insert(ctx context.Context, c *clip.Clip) (string, error)
	GetByID(ctx context.Context, docID string) (clip.Clip, error)
	Update(ctx context.Context, docID string, patch ClipPatch) error
	Delete(ctx context.Context, docID string) error
	Query(ctx context.Context, q ClipQuery) ([]clip.Clip, error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clip-share/internal/domain/clip"
	"clip-share/internal/events"
	"clip-share/internal/repository"
	clip_errors "clip-share/pkg/errors"
	"clip-share/pkg/logger"
)

const DefaultPageSize = 6

type CatalogConfig struct {
	PublicOrigin string
	PageSize     int
}

// CatalogQueryService reads and edits published clips.
type CatalogQueryService struct {
	repo   repository.ClipRepository
	assets AssetStore
	cache  ClipCache
	events EventPublisher
	cfg    CatalogConfig
	logger *logger.Logger
}

func NewCatalogQueryService(
	repo repository.ClipRepository,
	assets AssetStore,
	cache ClipCache,
	publisher EventPublisher,
	cfg CatalogConfig,
	l *logger.Logger,
) *CatalogQueryService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &CatalogQueryService{
		repo:   repo,
		assets: assets,
		cache:  cache,
		events: publisher,
		cfg:    cfg,
		logger: l,
	}
}

func (s *CatalogQueryService) PageSize() int {
	return s.cfg.PageSize
}

// CreateEntry inserts record and returns the id assigned by the store.
func (s *CatalogQueryService) CreateEntry(ctx context.Context, record *clip.Clip) (string, error) {
	if record == nil || record.UID == "" || record.FileName == "" {
		return "", clip_errors.ErrInvalidInput
	}
	return s.repo.Insert(ctx, record)
}

// ListForOwner returns every clip of ownerID ordered by creation time. No owner, no clips.
func (s *CatalogQueryService) ListForOwner(ctx context.Context, ownerID string, dir clip.SortDirection) ([]clip.Clip, error) {
	if ownerID == "" {
		return []clip.Clip{}, nil
	}
	if !dir.Valid() {
		dir = clip.SortDesc
	}
	return s.repo.Query(ctx, repository.ClipQuery{OwnerID: ownerID, Direction: dir})
}

// Page returns the newest clips after cursor. The returned cursor is nil once the
// catalog is exhausted.
func (s *CatalogQueryService) Page(ctx context.Context, after *clip.Cursor) ([]clip.Clip, *clip.Cursor, error) {
	clips, err := s.repo.Query(ctx, repository.ClipQuery{
		Direction: clip.SortDesc,
		Limit:     s.cfg.PageSize,
		After:     after,
	})
	if err != nil {
		return nil, nil, err
	}
	var next *clip.Cursor
	if len(clips) == s.cfg.PageSize {
		next = clip.CursorFor(clips[len(clips)-1])
	}
	return clips, next, nil
}

func (s *CatalogQueryService) UpdateTitle(ctx context.Context, docID, title string) error {
	title = strings.TrimSpace(title)
	if !clip.ValidTitle(title) {
		return fmt.Errorf("%w: title must be at least %d characters", clip_errors.ErrInvalidInput, clip.MinTitleLength)
	}
	if err := s.repo.Update(ctx, docID, repository.ClipPatch{Title: &title}); err != nil {
		return err
	}
	s.evict(ctx, docID)
	if uid, ok := UserIDFromContext(ctx); ok {
		s.announce(ctx, events.EventTypeClipUpdated, clip.Clip{DocID: docID, UID: uid, Title: title})
	}
	return nil
}

// DeleteEntry removes the video, then the screenshot, then the record. Asset removal
// failures are logged and do not keep the record alive.
func (s *CatalogQueryService) DeleteEntry(ctx context.Context, record clip.Clip) error {
	if record.DocID == "" {
		return clip_errors.ErrInvalidInput
	}
	log := s.logger.WithContext(ctx)
	if s.assets != nil {
		if err := s.assets.Delete(ctx, record.VideoPath()); err != nil {
			log.Warnf("failed to delete video of clip %s: %v", record.DocID, err)
		}
		if record.HasScreenshot() {
			if err := s.assets.Delete(ctx, record.ScreenshotPath()); err != nil {
				log.Warnf("failed to delete screenshot of clip %s: %v", record.DocID, err)
			}
		}
	}
	if err := s.repo.Delete(ctx, record.DocID); err != nil {
		return err
	}
	s.evict(ctx, record.DocID)
	s.announce(ctx, events.EventTypeClipDeleted, record)
	return nil
}

// ResolveOne looks a clip up by id. A missing clip reports redirect instead of an error.
func (s *CatalogQueryService) ResolveOne(ctx context.Context, docID string) (*clip.Clip, bool, error) {
	if docID == "" {
		return nil, true, nil
	}
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, docID)
		if err != nil {
			s.logger.WithContext(ctx).Warnf("clip cache read failed for %s: %v", docID, err)
		} else if cached != nil {
			return cached, false, nil
		}
	}

	c, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, clip_errors.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, c); err != nil {
			s.logger.WithContext(ctx).Warnf("clip cache write failed for %s: %v", docID, err)
		}
	}
	return &c, false, nil
}

// OwnedEntry loads a clip that uid is allowed to edit.
func (s *CatalogQueryService) OwnedEntry(ctx context.Context, docID, uid string) (clip.Clip, error) {
	c, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return clip.Clip{}, err
	}
	if uid == "" || c.UID != uid {
		return clip.Clip{}, clip_errors.ErrForbidden
	}
	return c, nil
}

// ShareLink is the public detail link of a clip.
func (s *CatalogQueryService) ShareLink(docID string) string {
	return clip.ShareLink(strings.TrimRight(s.cfg.PublicOrigin, "/"), docID)
}

func (s *CatalogQueryService) evict(ctx context.Context, docID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, docID); err != nil {
		s.logger.WithContext(ctx).Warnf("clip cache evict failed for %s: %v", docID, err)
	}
}

func (s *CatalogQueryService) announce(ctx context.Context, eventType string, c clip.Clip) {
	if s.events == nil {
		return
	}
	env, err := events.NewEnvelope(eventType, events.AggregateClip, c.DocID, events.ClipEvent{
		DocID: c.DocID,
		UID:   c.UID,
		Title: c.Title,
	})
	if err != nil {
		return
	}
	if err := s.events.PublishToUser(ctx, c.UID, env); err != nil {
		s.logger.WithContext(ctx).Warnf("failed to publish %s for clip %s: %v", eventType, c.DocID, err)
	}
}

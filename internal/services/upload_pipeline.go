package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	"clip-share/internal/events"
	clip_errors "clip-share/pkg/errors"
	"clip-share/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type PipelineConfig struct {
	PublicOrigin  string
	RedirectDelay time.Duration
}

// UploadPipeline validates a video, derives thumbnails, uploads both assets in parallel and
// commits the clip record once both uploads are stored.
type UploadPipeline struct {
	assets    AssetStore
	catalog   *CatalogQueryService
	extractor ThumbnailExtractor
	events    EventPublisher
	sessions  *SessionRegistry
	cfg       PipelineConfig
	logger    *logger.Logger

	extractMu  sync.Mutex
	extracting map[string]struct{}

	newID func() string
	after func(d time.Duration, f func())
}

func NewUploadPipeline(
	assets AssetStore,
	catalog *CatalogQueryService,
	extractor ThumbnailExtractor,
	publisher EventPublisher,
	sessions *SessionRegistry,
	cfg PipelineConfig,
	l *logger.Logger,
) *UploadPipeline {
	if l == nil {
		l = logger.NewNop()
	}
	if sessions == nil {
		sessions = NewSessionRegistry(DefaultSessionRetention)
	}
	return &UploadPipeline{
		assets:     assets,
		catalog:    catalog,
		extractor:  extractor,
		events:     publisher,
		sessions:   sessions,
		cfg:        cfg,
		logger:     l,
		extracting: make(map[string]struct{}),
		newID:      uuid.NewString,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (p *UploadPipeline) Sessions() *SessionRegistry {
	return p.sessions
}

// Submit starts a new session for file. It reports false when the file is not an mp4 or
// when a thumbnail extraction for the same owner is still running; nothing else happens
// in that case.
func (p *UploadPipeline) Submit(ctx context.Context, ownerID string, file *upload.Blob) (*Session, bool) {
	if !p.acquireExtraction(ownerID) {
		p.logger.WithContext(ctx).Debugf("submission ignored: extraction in flight for %s", ownerID)
		return nil, false
	}
	defer p.releaseExtraction(ownerID)

	s := newSession(ownerID)
	if !s.validate(file) {
		return s, false
	}
	p.sessions.Add(s)
	p.emit(ctx, s, events.EventTypeUploadValidated, "", "")

	p.extractThumbnails(ctx, s)
	return s, true
}

func (p *UploadPipeline) acquireExtraction(ownerID string) bool {
	p.extractMu.Lock()
	defer p.extractMu.Unlock()
	if _, busy := p.extracting[ownerID]; busy {
		return false
	}
	p.extracting[ownerID] = struct{}{}
	return true
}

func (p *UploadPipeline) releaseExtraction(ownerID string) {
	p.extractMu.Lock()
	delete(p.extracting, ownerID)
	p.extractMu.Unlock()
}

// extractThumbnails collects the candidates of a validated session. A failing extractor
// leaves the session without candidates; the clip can still be published.
func (p *UploadPipeline) extractThumbnails(ctx context.Context, s *Session) {
	if p.extractor == nil {
		return
	}
	s.mu.Lock()
	file := s.file
	s.mu.Unlock()

	seq, err := p.extractor.Extract(ctx, file)
	if err != nil {
		p.logger.WithContext(ctx).Warnf("thumbnail extraction failed for session %s: %v", s.ID, err)
		return
	}
	for candidate := range seq {
		if candidate == nil {
			continue
		}
		s.addCandidate(candidate)
	}
}

func (p *UploadPipeline) SelectThumbnail(s *Session, index int) error {
	return s.selectCandidate(index)
}

// SelectThumbnailDataURL publishes the image encoded in dataURL as screenshot.
func (p *UploadPipeline) SelectThumbnailDataURL(s *Session, dataURL string) error {
	if p.extractor == nil {
		return clip_errors.ErrServiceUnavailable
	}
	blob, err := p.extractor.BlobFromDataURL(dataURL)
	if err != nil {
		return fmt.Errorf("%w: %v", clip_errors.ErrInvalidInput, err)
	}
	return s.selectCustom(blob)
}

func (p *UploadPipeline) ClearThumbnail(s *Session) error {
	return s.clearThumbnail()
}

// Begin freezes the session inputs and moves it to UPLOADING. An empty title falls back to
// the file name.
func (p *UploadPipeline) Begin(s *Session, title string) error {
	if s == nil {
		return clip_errors.ErrNotUploaded
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = s.Snapshot().Title
	}
	if !clip.ValidTitle(title) {
		return fmt.Errorf("%w: title must be at least %d characters", clip_errors.ErrInvalidInput, clip.MinTitleLength)
	}
	if err := s.begin(title, p.newID()); err != nil {
		return err
	}
	p.sessions.Hold(s.ID)
	return nil
}

// Publish runs Begin then Run.
func (p *UploadPipeline) Publish(ctx context.Context, s *Session, title string) error {
	if err := p.Begin(s, title); err != nil {
		return err
	}
	return p.Run(ctx, s)
}

// Run uploads the assets of a session started with Begin and commits its record.
// The identity in ctx is read once, at commit time.
func (p *UploadPipeline) Run(ctx context.Context, s *Session) error {
	if s.State() != upload.StateUploading {
		return clip_errors.ErrInvalidTransition
	}
	defer p.sessions.Expire(s.ID)

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !s.attachCancel(cancel) {
		return p.finishCancelled(ctx, s, nil)
	}

	s.mu.Lock()
	video, thumbnail := s.file, s.thumbnailLocked()
	s.mu.Unlock()
	title, id := s.titleAndID()

	videoPath := clip.VideoPath(id)
	screenshotPath := ""
	if thumbnail != nil {
		screenshotPath = clip.ScreenshotPath(id)
	}

	agg := NewProgressAggregator(thumbnail != nil)
	g, gctx := errgroup.WithContext(uploadCtx)
	g.Go(func() error {
		return p.transfer(gctx, s, videoPath, video, agg.UpdateVideo)
	})
	if thumbnail != nil {
		g.Go(func() error {
			return p.transfer(gctx, s, screenshotPath, thumbnail, agg.UpdateThumbnail)
		})
	}
	uploaded := []string{videoPath}
	if screenshotPath != "" {
		uploaded = append(uploaded, screenshotPath)
	}

	if err := g.Wait(); err != nil {
		if s.isCancelRequested() {
			return p.finishCancelled(ctx, s, uploaded)
		}
		return p.finishFailed(ctx, s, err, nil)
	}
	if s.isCancelRequested() {
		return p.finishCancelled(ctx, s, uploaded)
	}
	if err := s.transition(upload.StateCommitting); err != nil {
		return p.finishCancelled(ctx, s, uploaded)
	}

	// Cancel no longer applies past this point.
	commitCtx := context.WithoutCancel(ctx)

	record, err := p.buildRecord(commitCtx, title, id, videoPath, screenshotPath)
	if err != nil {
		return p.finishFailed(commitCtx, s, fmt.Errorf("commit: %w", err), uploaded)
	}
	if _, err := p.catalog.CreateEntry(commitCtx, &record); err != nil {
		return p.finishFailed(commitCtx, s, fmt.Errorf("commit: %w", err), uploaded)
	}
	if err := s.succeed(record); err != nil {
		return err
	}

	p.logger.WithContext(ctx).Infof("clip %s published by %s", record.DocID, record.UID)
	link := clip.ShareLink(p.cfg.PublicOrigin, record.DocID)
	p.emit(commitCtx, s, events.EventTypeUploadSucceeded, events.MessageUploadSucceeded, link)
	p.after(p.cfg.RedirectDelay, func() {
		p.emit(commitCtx, s, events.EventTypeUploadRedirect, "", link)
	})
	return nil
}

func (p *UploadPipeline) transfer(ctx context.Context, s *Session, path string, blob *upload.Blob, observe func(float64) (ProgressSnapshot, bool)) error {
	t := p.assets.Upload(ctx, path, blob)
	for pct := range t.Progress() {
		p.reportProgress(ctx, s, pct, observe)
	}
	if err := <-t.Done(); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

// reportProgress feeds one track percentage into the aggregate. Both upload goroutines go
// through the session's progress lock so stored and emitted values stay in order.
func (p *UploadPipeline) reportProgress(ctx context.Context, s *Session, pct float64, observe func(float64) (ProgressSnapshot, bool)) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	snap, ok := observe(pct)
	if ok && s.setProgress(snap) {
		p.emit(ctx, s, events.EventTypeUploadProgress, "", "")
	}
}

func (p *UploadPipeline) buildRecord(ctx context.Context, title, id, videoPath, screenshotPath string) (clip.Clip, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil || identity.UID == "" {
		return clip.Clip{}, clip_errors.ErrUnauthorized
	}
	videoURL, err := p.assets.URL(ctx, videoPath)
	if err != nil {
		return clip.Clip{}, err
	}
	record := clip.Clip{
		UID:         identity.UID,
		DisplayName: identity.DisplayName,
		Title:       title,
		FileName:    clip.VideoFileName(id),
		URL:         videoURL,
	}
	if screenshotPath != "" {
		shotURL, err := p.assets.URL(ctx, screenshotPath)
		if err != nil {
			return clip.Clip{}, err
		}
		record.ScreenshotFileName = clip.ScreenshotFileName(id)
		record.ScreenshotURL = shotURL
	}
	return record, nil
}

// finishFailed marks the session failed. Blobs listed in orphans were stored without a
// record and are removed on a best-effort basis.
func (p *UploadPipeline) finishFailed(ctx context.Context, s *Session, cause error, orphans []string) error {
	p.logger.WithContext(ctx).Errorf("session %s failed: %v", s.ID, cause)
	s.fail(clip_errors.ErrUploadFailed)
	p.removeOrphans(ctx, orphans)
	p.emit(ctx, s, events.EventTypeUploadFailed, events.MessageUploadFailed, "")
	return clip_errors.ErrUploadFailed
}

func (p *UploadPipeline) finishCancelled(ctx context.Context, s *Session, orphans []string) error {
	s.cancelled()
	p.removeOrphans(context.WithoutCancel(ctx), orphans)
	p.emit(ctx, s, events.EventTypeUploadCancelled, "", "")
	return clip_errors.ErrCancelled
}

func (p *UploadPipeline) removeOrphans(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := p.assets.Delete(ctx, path); err != nil {
			p.logger.WithContext(ctx).Warnf("failed to remove orphaned asset %s: %v", path, err)
		}
	}
}

// Cancel aborts the session. Safe in every state; committed records are never touched.
func (p *UploadPipeline) Cancel(ctx context.Context, s *Session) {
	if s == nil {
		return
	}
	if s.requestCancel() {
		p.sessions.Expire(s.ID)
		p.emit(ctx, s, events.EventTypeUploadCancelled, "", "")
	}
}

func (p *UploadPipeline) emit(ctx context.Context, s *Session, eventType, message, link string) {
	if p.events == nil {
		return
	}
	snap := s.Snapshot()
	payload := events.UploadEvent{
		SessionID:         s.ID,
		UID:               s.OwnerID,
		State:             string(snap.State),
		Percentage:        snap.Percentage,
		VideoProgress:     snap.VideoProgress,
		ThumbnailProgress: snap.ThumbnailProgress,
		DocID:             snap.DocID,
		Link:              link,
		Message:           message,
	}
	env, err := events.NewEnvelope(eventType, events.AggregateUpload, s.ID, payload)
	if err != nil {
		p.logger.Errorf("failed to build %s event: %v", eventType, err)
		return
	}
	if err := p.events.PublishToUser(context.WithoutCancel(ctx), s.OwnerID, env); err != nil {
		p.logger.Warnf("failed to publish %s for session %s: %v", eventType, s.ID, err)
	}
}

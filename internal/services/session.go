package services

import (
	"context"
	"sync"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	clip_errors "clip-share/pkg/errors"

	"github.com/google/uuid"
)

const noThumbnail = -1

// Session is one submission of one video. Sessions are never reused.
type Session struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time

	mu              sync.Mutex
	progressMu      sync.Mutex
	state           upload.State
	file            *upload.Blob
	title           string
	candidates      []*upload.Blob
	selected        int
	custom          *upload.Blob
	generatedID     string
	progress        ProgressSnapshot
	record          *clip.Clip
	err             error
	cancel          context.CancelFunc
	cancelRequested bool
}

func newSession(ownerID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		state:     upload.StateIdle,
		selected:  noThumbnail,
	}
}

// SessionSnapshot is a consistent copy of a session's observable state.
type SessionSnapshot struct {
	ID                string       `json:"id"`
	State             upload.State `json:"state"`
	Title             string       `json:"title"`
	FileName          string       `json:"file_name,omitempty"`
	FileSize          int64        `json:"file_size"`
	Candidates        int          `json:"candidates"`
	Selected          int          `json:"selected"`
	GeneratedID       string       `json:"generated_id,omitempty"`
	VideoProgress     float64      `json:"video_progress"`
	ThumbnailProgress float64      `json:"thumbnail_progress"`
	Percentage        float64      `json:"percentage"`
	DocID             string       `json:"doc_id,omitempty"`
	Error             string       `json:"error,omitempty"`
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SessionSnapshot{
		ID:                s.ID,
		State:             s.state,
		Title:             s.title,
		Candidates:        len(s.candidates),
		Selected:          s.selected,
		GeneratedID:       s.generatedID,
		VideoProgress:     s.progress.Video,
		ThumbnailProgress: s.progress.Thumbnail,
		Percentage:        s.progress.Percentage(),
	}
	if s.file != nil {
		snap.FileName = s.file.Name
		snap.FileSize = s.file.Size()
	}
	if s.record != nil {
		snap.DocID = s.record.DocID
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

func (s *Session) State() upload.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns the committed clip, nil until the session succeeded.
func (s *Session) Record() *clip.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil
	}
	rec := *s.record
	return &rec
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Candidates() []*upload.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*upload.Blob, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Thumbnail returns the blob that will be published as screenshot, nil when none.
func (s *Session) Thumbnail() *upload.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thumbnailLocked()
}

func (s *Session) thumbnailLocked() *upload.Blob {
	if s.custom != nil {
		return s.custom
	}
	if s.selected >= 0 && s.selected < len(s.candidates) {
		return s.candidates[s.selected]
	}
	return nil
}

func (s *Session) transitionLocked(to upload.State) error {
	if !upload.CanTransition(s.state, to) {
		return clip_errors.ErrInvalidTransition
	}
	s.state = to
	return nil
}

func (s *Session) transition(to upload.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

// validate accepts exactly one mp4 file. Anything else leaves the session idle.
func (s *Session) validate(file *upload.Blob) bool {
	if file == nil || file.ContentType != clip.VideoMimeType {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != upload.StateIdle {
		return false
	}
	s.file = file
	s.title = file.BaseName()
	s.state = upload.StateValidated
	return true
}

func (s *Session) addCandidate(b *upload.Blob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = append(s.candidates, b)
	if s.selected == noThumbnail && s.custom == nil {
		s.selected = 0
	}
}

func (s *Session) editable() error {
	if s.state != upload.StateValidated {
		return clip_errors.ErrInvalidTransition
	}
	return nil
}

func (s *Session) selectCandidate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.candidates) {
		return clip_errors.ErrInvalidInput
	}
	s.selected = index
	s.custom = nil
	return nil
}

func (s *Session) selectCustom(b *upload.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.custom = b
	s.selected = noThumbnail
	return nil
}

func (s *Session) clearThumbnail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.custom = nil
	s.selected = noThumbnail
	return nil
}

// begin moves a validated session to uploading and freezes its inputs.
func (s *Session) begin(title, generatedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(upload.StateUploading); err != nil {
		return err
	}
	s.title = title
	s.generatedID = generatedID
	return nil
}

// attachCancel stores the abort func of the running uploads. It reports false when a
// cancel arrived before the uploads started.
func (s *Session) attachCancel(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRequested {
		return false
	}
	s.cancel = cancel
	return true
}

// requestCancel marks the session cancelled. Idle and validated sessions end immediately;
// uploading sessions abort their transfers and end once the uploads unwind. Committing and
// terminal sessions are left alone.
func (s *Session) requestCancel() (ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case upload.StateIdle, upload.StateValidated:
		s.cancelRequested = true
		s.state = upload.StateCancelled
		s.err = clip_errors.ErrCancelled
		return true
	case upload.StateUploading:
		s.cancelRequested = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	return false
}

func (s *Session) isCancelRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRequested
}

// setProgress stores p unless the session already holds a higher fraction. It reports
// whether p was stored.
func (s *Session) setProgress(p ProgressSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Fraction < s.progress.Fraction {
		return false
	}
	s.progress = p
	return true
}

func (s *Session) titleAndID() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.generatedID
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitionLocked(upload.StateFailed) == nil {
		s.err = err
	}
}

func (s *Session) cancelled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitionLocked(upload.StateCancelled) == nil {
		s.err = clip_errors.ErrCancelled
	}
}

func (s *Session) succeed(record clip.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(upload.StateSucceeded); err != nil {
		return err
	}
	s.record = &record
	return nil
}

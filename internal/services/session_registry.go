package services

import (
	"sync"
	"time"

	clip_errors "clip-share/pkg/errors"
)

// DefaultSessionRetention is how long an idle or finished session stays readable.
const DefaultSessionRetention = 10 * time.Minute

// SessionRegistry keeps the live upload sessions of every user. A registered session is
// dropped after the retention period unless it is held by a running upload.
type SessionRegistry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	timers    map[string]*time.Timer
	retention time.Duration
}

func NewSessionRegistry(retention time.Duration) *SessionRegistry {
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &SessionRegistry{
		sessions:  make(map[string]*Session),
		timers:    make(map[string]*time.Timer),
		retention: retention,
	}
}

// Add registers s and starts its idle timer.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.armLocked(s.ID)
}

// Get returns the session when it belongs to ownerID. Sessions of other users are reported
// as missing.
func (r *SessionRegistry) Get(id, ownerID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.OwnerID != ownerID {
		return nil, clip_errors.ErrNotFound
	}
	return s, nil
}

func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

// Hold stops the timer of a session whose upload is running.
func (r *SessionRegistry) Hold(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
}

// Expire drops a finished session after the retention period.
func (r *SessionRegistry) Expire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	r.armLocked(id)
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) armLocked(id string) {
	if old, ok := r.timers[id]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// a timer replaced by Hold or Expire no longer owns the session
		if r.timers[id] == t {
			r.removeLocked(id)
		}
	})
	r.timers[id] = t
}

func (r *SessionRegistry) removeLocked(id string) {
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	delete(r.sessions, id)
}

package services

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	"clip-share/internal/events"
	"clip-share/internal/repository"
	"clip-share/internal/storage"
	clip_errors "clip-share/pkg/errors"
)

// callLog records the order of side effects across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeAssets struct {
	mu        sync.Mutex
	log       *callLog
	stored    map[string]bool
	deleted   []string
	progress  []float64
	failPaths map[string]error
	deleteErr error
	gates     map[string]chan struct{}
	started   chan string
}

func newFakeAssets(log *callLog) *fakeAssets {
	return &fakeAssets{
		log:       log,
		stored:    make(map[string]bool),
		progress:  []float64{25, 50, 75},
		failPaths: make(map[string]error),
		gates:     make(map[string]chan struct{}),
		started:   make(chan string, 4),
	}
}

func (f *fakeAssets) Upload(ctx context.Context, path string, blob *upload.Blob) *storage.Transfer {
	ctx, cancel := context.WithCancel(ctx)
	t := storage.NewTransfer(cancel)

	f.mu.Lock()
	gate := f.gates[path]
	failure := f.failPaths[path]
	progress := append([]float64(nil), f.progress...)
	f.mu.Unlock()

	go func() {
		defer cancel()
		select {
		case f.started <- path:
		default:
		}
		for _, pct := range progress {
			t.Report(pct)
		}
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				t.Finish(ctx.Err())
				return
			}
		}
		if failure != nil {
			t.Finish(failure)
			return
		}
		f.mu.Lock()
		f.stored[path] = true
		f.mu.Unlock()
		f.log.add("upload " + path)
		t.Finish(nil)
	}()
	return t
}

func (f *fakeAssets) URL(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stored[path] {
		return "", clip_errors.ErrNotFound
	}
	return "https://cdn.test/" + path, nil
}

func (f *fakeAssets) Delete(ctx context.Context, path string) error {
	f.log.add("delete " + path)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	delete(f.stored, path)
	return f.deleteErr
}

func (f *fakeAssets) isStored(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[path]
}

type fakeRepo struct {
	mu         sync.Mutex
	log        *callLog
	clips      map[string]clip.Clip
	seq        int
	base       time.Time
	insertErr  error
	onInsert   func(c clip.Clip)
	queries    int
	queryGate  chan struct{}
	queryStart chan struct{}
}

func newFakeRepo(log *callLog) *fakeRepo {
	return &fakeRepo{
		log:   log,
		clips: make(map[string]clip.Clip),
		base:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var _ repository.ClipRepository = (*fakeRepo)(nil)

func (r *fakeRepo) Insert(ctx context.Context, c *clip.Clip) (string, error) {
	if r.onInsert != nil {
		r.onInsert(*c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.seq++
	c.DocID = docIDFor(r.seq)
	c.Timestamp = r.base.Add(time.Duration(r.seq) * time.Minute)
	r.clips[c.DocID] = *c
	r.log.add("insert " + c.DocID)
	return c.DocID, nil
}

func docIDFor(n int) string {
	return "doc-" + string(rune('a'+n-1))
}

func (r *fakeRepo) seed(uid string, n int) []clip.Clip {
	out := make([]clip.Clip, 0, n)
	for i := 0; i < n; i++ {
		c := clip.Clip{UID: uid, Title: "clip title", FileName: "x.mp4"}
		_, _ = r.Insert(context.Background(), &c)
		out = append(out, c)
	}
	return out
}

func (r *fakeRepo) GetByID(ctx context.Context, docID string) (clip.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[docID]
	if !ok {
		return clip.Clip{}, clip_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) Update(ctx context.Context, docID string, patch repository.ClipPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[docID]
	if !ok {
		return clip_errors.ErrNotFound
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	r.clips[docID] = c
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, docID string) error {
	r.log.add("record " + docID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clips[docID]; !ok {
		return clip_errors.ErrNotFound
	}
	delete(r.clips, docID)
	return nil
}

func (r *fakeRepo) Query(ctx context.Context, q repository.ClipQuery) ([]clip.Clip, error) {
	r.mu.Lock()
	r.queries++
	gate, started := r.queryGate, r.queryStart
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []clip.Clip
	for _, c := range r.clips {
		if q.OwnerID != "" && c.UID != q.OwnerID {
			continue
		}
		out = append(out, c)
	}
	asc := q.Direction == clip.SortAsc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if q.After != nil {
		idx := len(out)
		for i, c := range out {
			if c.DocID == q.After.DocID {
				idx = i + 1
				break
			}
		}
		out = out[idx:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakeRepo) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clips)
}

type fakeExtractor struct {
	frames  int
	err     error
	release chan struct{}
	entered chan struct{}
}

func (e *fakeExtractor) Extract(ctx context.Context, video *upload.Blob) (iter.Seq[*upload.Blob], error) {
	if e.entered != nil {
		e.entered <- struct{}{}
	}
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, e.err
	}
	return func(yield func(*upload.Blob) bool) {
		for i := 0; i < e.frames; i++ {
			b := &upload.Blob{Name: "frame.png", ContentType: clip.ScreenshotMimeType, Data: []byte{byte(i + 1)}}
			if !yield(b) {
				return
			}
		}
	}, nil
}

func (e *fakeExtractor) BlobFromDataURL(dataURL string) (*upload.Blob, error) {
	if dataURL == "" {
		return nil, clip_errors.ErrInvalidInput
	}
	return &upload.Blob{Name: "custom.png", ContentType: clip.ScreenshotMimeType, Data: []byte(dataURL)}, nil
}

type recordedEvent struct {
	uid string
	env events.Envelope
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishToUser(ctx context.Context, uid string, env events.Envelope) error {
	f.mu.Lock()
	f.events = append(f.events, recordedEvent{uid: uid, env: env})
	f.mu.Unlock()
	return nil
}

func (f *fakeEvents) ofType(eventType string) []events.UploadEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.UploadEvent
	for _, e := range f.events {
		if e.env.EventType != eventType {
			continue
		}
		var ev events.UploadEvent
		if err := e.env.Decode(&ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]clip.Clip
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]clip.Clip)}
}

func (c *fakeCache) Get(ctx context.Context, docID string) (*clip.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	entry, ok := c.entries[docID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *fakeCache) Set(ctx context.Context, entry clip.Clip) error {
	c.mu.Lock()
	c.entries[entry.DocID] = entry
	c.mu.Unlock()
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, docID string) error {
	c.mu.Lock()
	delete(c.entries, docID)
	c.mu.Unlock()
	return nil
}

func (c *fakeCache) has(docID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[docID]
	return ok
}

func mp4(name string) *upload.Blob {
	return &upload.Blob{Name: name, ContentType: clip.VideoMimeType, Data: []byte("video-bytes")}
}

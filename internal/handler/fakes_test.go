package handler

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	"clip-share/internal/repository"
	"clip-share/internal/services"
	"clip-share/internal/storage"
	clip_errors "clip-share/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

type memAssets struct {
	mu     sync.Mutex
	stored map[string]bool
}

func newMemAssets() *memAssets {
	return &memAssets{stored: make(map[string]bool)}
}

func (a *memAssets) Upload(ctx context.Context, path string, blob *upload.Blob) *storage.Transfer {
	_, cancel := context.WithCancel(ctx)
	t := storage.NewTransfer(cancel)
	go func() {
		defer cancel()
		t.Report(100)
		a.mu.Lock()
		a.stored[path] = true
		a.mu.Unlock()
		t.Finish(nil)
	}()
	return t
}

func (a *memAssets) URL(ctx context.Context, path string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.stored[path] {
		return "", clip_errors.ErrNotFound
	}
	return "https://cdn.test/" + path, nil
}

func (a *memAssets) Delete(ctx context.Context, path string) error {
	a.mu.Lock()
	delete(a.stored, path)
	a.mu.Unlock()
	return nil
}

type memRepo struct {
	mu    sync.Mutex
	clips map[string]clip.Clip
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{clips: make(map[string]clip.Clip)}
}

func (r *memRepo) Insert(ctx context.Context, c *clip.Clip) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.DocID = fmt.Sprintf("doc-%d", r.seq)
	c.Timestamp = time.Date(2024, 1, 1, 0, r.seq, 0, 0, time.UTC)
	r.clips[c.DocID] = *c
	return c.DocID, nil
}

func (r *memRepo) add(uid, title string) clip.Clip {
	c := clip.Clip{UID: uid, Title: title, FileName: "x.mp4", URL: "https://cdn.test/x.mp4"}
	_, _ = r.Insert(context.Background(), &c)
	return c
}

func (r *memRepo) GetByID(ctx context.Context, docID string) (clip.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clips[docID]
	if !ok {
		return clip.Clip{}, clip_errors.ErrNotFound
	}
	return c, nil
}

func (r *memRepo) Update(ctx context.Context, docID string, patch repository.ClipPatch) error {
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

func (r *memRepo) Delete(ctx context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clips[docID]; !ok {
		return clip_errors.ErrNotFound
	}
	delete(r.clips, docID)
	return nil
}

func (r *memRepo) Query(ctx context.Context, q repository.ClipQuery) ([]clip.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []clip.Clip
	for _, c := range r.clips {
		if q.OwnerID == "" || c.UID == q.OwnerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Direction == clip.SortAsc {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if q.After != nil {
		for i, c := range out {
			if c.DocID == q.After.DocID {
				out = out[i+1:]
				break
			}
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clips)
}

type oneFrameExtractor struct{}

func (oneFrameExtractor) Extract(ctx context.Context, video *upload.Blob) (iter.Seq[*upload.Blob], error) {
	return func(yield func(*upload.Blob) bool) {
		yield(&upload.Blob{Name: "frame.png", ContentType: clip.ScreenshotMimeType, Data: []byte{0x89, 'P', 'N', 'G'}})
	}, nil
}

func (oneFrameExtractor) BlobFromDataURL(dataURL string) (*upload.Blob, error) {
	return nil, clip_errors.ErrInvalidInput
}

// testIdentity signs the request in as the user named in testUserHeader.
func testIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetHeader(testUserHeader); uid != "" {
			ctx := services.WithIdentity(c.Request.Context(), &services.Identity{UID: uid, DisplayName: "User " + uid})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

type fixture struct {
	engine *gin.Engine
	repo   *memRepo
	assets *memAssets
}

func newFixture(t *testing.T, maxUploadMB int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	assets := newMemAssets()
	catalog := services.NewCatalogQueryService(repo, assets, nil, nil, services.CatalogConfig{PublicOrigin: "https://clips.test"}, nil)
	pipeline := services.NewUploadPipeline(assets, catalog, oneFrameExtractor{}, nil, nil, services.PipelineConfig{PublicOrigin: "https://clips.test"}, nil)

	uploads := NewUploadHandler(pipeline, catalog, maxUploadMB, nil)
	clips := NewClipHandler(catalog)

	engine := gin.New()
	engine.Use(testIdentity())
	engine.POST("/v1/uploads", uploads.Submit)
	engine.GET("/v1/uploads/:id", uploads.GetByID)
	engine.PUT("/v1/uploads/:id/thumbnail", uploads.SelectThumbnail)
	engine.POST("/v1/uploads/:id/publish", uploads.Publish)
	engine.DELETE("/v1/uploads/:id", uploads.Cancel)
	engine.GET("/v1/clips", clips.List)
	engine.GET("/v1/me/clips", clips.ListMine)
	engine.PATCH("/v1/clips/:id", clips.Update)
	engine.DELETE("/v1/clips/:id", clips.Delete)
	engine.GET("/v1/clips/:id/link", clips.Link)
	engine.GET("/clip/:id", clips.Resolve)

	return &fixture{engine: engine, repo: repo, assets: assets}
}

func multipartFile(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newRequest(t *testing.T, method, target, uid string, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if uid != "" {
		req.Header.Set(testUserHeader, uid)
	}
	return req
}

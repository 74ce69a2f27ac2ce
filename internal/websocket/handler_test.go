package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/repository"
	"clip-share/internal/services"
	clip_errors "clip-share/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct{}

func (staticAuth) Authenticate(token string) (*services.Identity, error) {
	if token != "good" {
		return nil, clip_errors.ErrUnauthorized
	}
	return &services.Identity{UID: "u1", DisplayName: "Ada"}, nil
}

type memoryRepo struct {
	mu    sync.Mutex
	clips []clip.Clip
}

func newMemoryRepo(owners ...string) *memoryRepo {
	r := &memoryRepo{}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, owner := range owners {
		r.clips = append(r.clips, clip.Clip{
			DocID:     string(rune('a' + i)),
			UID:       owner,
			Title:     "clip",
			FileName:  "x.mp4",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return r
}

func (r *memoryRepo) Insert(ctx context.Context, c *clip.Clip) (string, error) {
	return "", clip_errors.ErrServiceUnavailable
}

func (r *memoryRepo) GetByID(ctx context.Context, docID string) (clip.Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clips {
		if c.DocID == docID {
			return c, nil
		}
	}
	return clip.Clip{}, clip_errors.ErrNotFound
}

func (r *memoryRepo) Update(ctx context.Context, docID string, patch repository.ClipPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.clips {
		if r.clips[i].DocID == docID {
			if patch.Title != nil {
				r.clips[i].Title = *patch.Title
			}
			return nil
		}
	}
	return clip_errors.ErrNotFound
}

func (r *memoryRepo) Delete(ctx context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.clips {
		if r.clips[i].DocID == docID {
			r.clips = append(r.clips[:i], r.clips[i+1:]...)
			return nil
		}
	}
	return clip_errors.ErrNotFound
}

func (r *memoryRepo) Query(ctx context.Context, q repository.ClipQuery) ([]clip.Clip, error) {
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

type received struct {
	Type  string       `json:"type"`
	Data  clipsPayload `json:"data"`
	Error string       `json:"error"`
}

func startServer(t *testing.T, repo repository.ClipRepository) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := runHub(t)
	catalog := services.NewCatalogQueryService(repo, nil, nil, nil, services.CatalogConfig{PublicOrigin: "https://clips.test"}, nil)
	engine := gin.New()
	engine.GET("/v1/ws", NewHandler(staticAuth{}, hub, catalog, nil).Connect)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg received
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	url := startServer(t, newMemoryRepo())

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_OwnerClipsFollowSortCommand(t *testing.T) {
	url := startServer(t, newMemoryRepo("u1", "u2", "u1", "u1"))
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUntil(t, conn, MessageOwnerClips)
	require.Len(t, first.Data.Clips, 3)
	assert.Equal(t, "d", first.Data.Clips[0].DocID)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandSort, Sort: clip.SortParamOldest}))
	asc := readUntil(t, conn, MessageOwnerClips)
	require.Len(t, asc.Data.Clips, 3)
	assert.Equal(t, "a", asc.Data.Clips[0].DocID)
}

func TestHandler_NextPageAppendsToWorkingSet(t *testing.T) {
	url := startServer(t, newMemoryRepo("u1", "u2", "u1", "u2", "u1", "u2", "u1", "u2"))
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandNextPage}))
	page := readUntil(t, conn, MessagePage)
	require.Len(t, page.Data.Clips, 6)
	assert.True(t, page.Data.HasMore)
	assert.Equal(t, "h", page.Data.Clips[0].DocID)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandNextPage}))
	page = readUntil(t, conn, MessagePage)
	assert.Len(t, page.Data.Clips, 8)
	assert.False(t, page.Data.HasMore)
}

func TestHandler_RejectsForeignChannel(t *testing.T) {
	url := startServer(t, newMemoryRepo())
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandSubscribe, Channel: "channel:user:u2"}))
	msg := readUntil(t, conn, MessageError)
	assert.Equal(t, "forbidden channel", msg.Error)
}

func TestHandler_UpdateTitlePatchesOwnerClips(t *testing.T) {
	repo := newMemoryRepo("u1", "u2", "u1")
	url := startServer(t, repo)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageOwnerClips)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandUpdateTitle, DocID: "a", Title: "  Renamed "}))
	updated := readUntil(t, conn, MessageOwnerClips)
	require.Len(t, updated.Data.Clips, 2)
	assert.Equal(t, "c", updated.Data.Clips[0].DocID)
	assert.Equal(t, "Renamed", updated.Data.Clips[1].Title)

	stored, err := repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandUpdateTitle, DocID: "a", Title: "ab"}))
	assert.Equal(t, "INVALID_REQUEST", readUntil(t, conn, MessageError).Error)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandUpdateTitle, DocID: "b", Title: "Not mine"}))
	assert.Equal(t, "FORBIDDEN", readUntil(t, conn, MessageError).Error)
}

func TestHandler_DeleteRemovesEntryFromBothWorkingSets(t *testing.T) {
	url := startServer(t, newMemoryRepo("u1", "u2", "u1"))
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageOwnerClips)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandNextPage}))
	page := readUntil(t, conn, MessagePage)
	require.Len(t, page.Data.Clips, 3)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandDelete, DocID: "c"}))
	owned := readUntil(t, conn, MessageOwnerClips)
	require.Len(t, owned.Data.Clips, 1)
	assert.Equal(t, "a", owned.Data.Clips[0].DocID)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandNextPage}))
	page = readUntil(t, conn, MessagePage)
	require.Len(t, page.Data.Clips, 2)
	assert.Equal(t, "b", page.Data.Clips[0].DocID)
	assert.Equal(t, "a", page.Data.Clips[1].DocID)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandDelete, DocID: "c"}))
	assert.Equal(t, "NOT_FOUND", readUntil(t, conn, MessageError).Error)

	require.NoError(t, conn.WriteJSON(inboundCommand{Type: CommandDelete, DocID: "b"}))
	assert.Equal(t, "FORBIDDEN", readUntil(t, conn, MessageError).Error)
}

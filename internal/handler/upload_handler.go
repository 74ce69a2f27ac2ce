package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"clip-share/internal/domain/upload"
	"clip-share/internal/services"
	"clip-share/internal/thumbnail"
	"clip-share/internal/transport/httpdto"
	clip_errors "clip-share/pkg/errors"
	"clip-share/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	pipeline *services.UploadPipeline
	catalog  *services.CatalogQueryService
	maxBytes int64
	logger   *logger.Logger
}

func NewUploadHandler(pipeline *services.UploadPipeline, catalog *services.CatalogQueryService, maxUploadMB int, l *logger.Logger) *UploadHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &UploadHandler{
		pipeline: pipeline,
		catalog:  catalog,
		maxBytes: int64(maxUploadMB) << 20,
		logger:   l,
	}
}

// Submit accepts a multipart "file" field. Anything that is not an mp4 is answered with
// accepted=false and leaves no session behind.
func (h *UploadHandler) Submit(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}

	blob, err := h.readFile(c)
	if err != nil {
		respondError(c, err)
		return
	}

	session, accepted := h.pipeline.Submit(c.Request.Context(), uid, blob)
	if !accepted {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SubmitUploadResponse{Accepted: false}))
		return
	}

	candidates := session.Candidates()
	thumbs := make([]httpdto.ThumbnailDTO, 0, len(candidates))
	for i, candidate := range candidates {
		thumbs = append(thumbs, httpdto.ThumbnailDTO{Index: i, DataURL: thumbnail.EncodeDataURL(candidate)})
	}
	dto := h.toUploadDTO(session)
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.SubmitUploadResponse{
		Accepted:   true,
		Session:    &dto,
		Thumbnails: thumbs,
	}))
}

// formOverhead is the room left for multipart boundaries and headers around the file.
const formOverhead = 64 << 10

func (h *UploadHandler) readFile(c *gin.Context) (*upload.Blob, error) {
	if c.Request.ContentLength > h.maxBytes+formOverhead {
		return nil, clip_errors.ErrTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, clip_errors.ErrTooLarge
		}
		return nil, clip_errors.ErrNotUploaded
	}
	if header.Size > h.maxBytes {
		return nil, clip_errors.ErrTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, clip_errors.ErrNotUploaded
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, clip_errors.ErrNotUploaded
	}
	return &upload.Blob{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *UploadHandler) GetByID(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.toUploadDTO(session)))
}

func (h *UploadHandler) SelectThumbnail(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req httpdto.SelectThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	switch {
	case req.Index != nil:
		if err := h.pipeline.SelectThumbnail(session, *req.Index); err != nil {
			respondError(c, err)
			return
		}
	case req.DataURL != "":
		if err := h.pipeline.SelectThumbnailDataURL(session, req.DataURL); err != nil {
			respondError(c, err)
			return
		}
	default:
		if err := h.pipeline.ClearThumbnail(session); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.toUploadDTO(session)))
}

// Publish starts the uploads and returns immediately. Progress and the outcome are pushed
// to the owner's websocket channel.
func (h *UploadHandler) Publish(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req httpdto.PublishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
			return
		}
	}

	if err := h.pipeline.Begin(session, req.Title); err != nil {
		respondError(c, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if err := h.pipeline.Run(ctx, session); err != nil {
			h.logger.WithContext(ctx).Debugf("session %s ended: %v", session.ID, err)
		}
	}()
	c.JSON(http.StatusAccepted, httpdto.NewSuccessResponse(h.toUploadDTO(session)))
}

func (h *UploadHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.pipeline.Cancel(c.Request.Context(), session)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.toUploadDTO(session)))
}

func (h *UploadHandler) session(c *gin.Context) (*services.Session, bool) {
	uid, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	session, err := h.pipeline.Sessions().Get(c.Param("id"), uid)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

func (h *UploadHandler) toUploadDTO(s *services.Session) httpdto.UploadDTO {
	snap := s.Snapshot()
	dto := httpdto.UploadDTO{
		ID:                snap.ID,
		State:             string(snap.State),
		Title:             snap.Title,
		FileName:          snap.FileName,
		FileSize:          snap.FileSize,
		Candidates:        snap.Candidates,
		Selected:          snap.Selected,
		VideoProgress:     snap.VideoProgress,
		ThumbnailProgress: snap.ThumbnailProgress,
		Percentage:        snap.Percentage,
		DocID:             snap.DocID,
		Error:             snap.Error,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if snap.DocID != "" {
		dto.Link = h.catalog.ShareLink(snap.DocID)
	}
	return dto
}

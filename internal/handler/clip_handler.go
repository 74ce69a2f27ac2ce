package handler

import (
	"net/http"
	"time"

	"clip-share/internal/domain/clip"
	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ClipHandler struct {
	catalog *services.CatalogQueryService
}

func NewClipHandler(catalog *services.CatalogQueryService) *ClipHandler {
	return &ClipHandler{catalog: catalog}
}

// List serves the public catalog newest first, one page per call.
func (h *ClipHandler) List(c *gin.Context) {
	var req httpdto.ListClipsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	after, err := clip.DecodeCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid cursor", "INVALID_REQUEST"))
		return
	}

	clips, next, err := h.catalog.Page(c.Request.Context(), after)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListClipsResponse{
		Clips:      h.toClipDTOs(clips),
		NextCursor: next.Encode(),
	}))
}

func (h *ClipHandler) ListMine(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.ListOwnClipsRequest
	_ = c.ShouldBindQuery(&req)
	dir := clip.ParseSortParam(req.Sort)

	clips, err := h.catalog.ListForOwner(c.Request.Context(), uid, dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListOwnClipsResponse{
		Clips: h.toClipDTOs(clips),
		Sort:  dir.Param(),
	}))
}

func (h *ClipHandler) Update(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.UpdateClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	ctx := c.Request.Context()
	entry, err := h.catalog.OwnedEntry(ctx, c.Param("id"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.UpdateTitle(ctx, entry.DocID, req.Title); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.catalog.OwnedEntry(ctx, entry.DocID, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.toClipDTO(updated)))
}

func (h *ClipHandler) Delete(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	entry, err := h.catalog.OwnedEntry(ctx, c.Param("id"), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteEntry(ctx, entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ClipHandler) Link(c *gin.Context) {
	entry, redirect, err := h.catalog.ResolveOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if redirect {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("clip not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ShareLinkResponse{Link: h.catalog.ShareLink(entry.DocID)}))
}

// Resolve backs the public detail page. Unknown ids send the visitor home.
func (h *ClipHandler) Resolve(c *gin.Context) {
	entry, redirect, err := h.catalog.ResolveOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if redirect {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(h.toClipDTO(*entry)))
}

func (h *ClipHandler) toClipDTOs(clips []clip.Clip) []httpdto.ClipDTO {
	out := make([]httpdto.ClipDTO, 0, len(clips))
	for _, c := range clips {
		out = append(out, h.toClipDTO(c))
	}
	return out
}

func (h *ClipHandler) toClipDTO(c clip.Clip) httpdto.ClipDTO {
	return httpdto.ClipDTO{
		DocID:         c.DocID,
		UID:           c.UID,
		DisplayName:   c.DisplayName,
		Title:         c.Title,
		URL:           c.URL,
		ScreenshotURL: c.ScreenshotURL,
		Link:          h.catalog.ShareLink(c.DocID),
		CreatedAt:     c.Timestamp.UTC().Format(time.RFC3339),
	}
}

package httpdto

// ClipDTO represents a published clip in API responses.
type ClipDTO struct {
	DocID         string `json:"doc_id"`
	UID           string `json:"uid"`
	DisplayName   string `json:"display_name"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	Link          string `json:"link"`
	CreatedAt     string `json:"created_at"`
}

// ListClipsRequest holds query parameters for GET /v1/clips.
type ListClipsRequest struct {
	Cursor string `form:"cursor"`
}

// ListClipsResponse is one page of the public catalog. NextCursor is empty once the
// catalog is exhausted.
type ListClipsResponse struct {
	Clips      []ClipDTO `json:"clips"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ListOwnClipsRequest holds query parameters for GET /v1/me/clips.
type ListOwnClipsRequest struct {
	Sort string `form:"sort"`
}

type ListOwnClipsResponse struct {
	Clips []ClipDTO `json:"clips"`
	Sort  string    `json:"sort"`
}

// UpdateClipRequest is used for PATCH /v1/clips/:id.
type UpdateClipRequest struct {
	Title string `json:"title" binding:"required"`
}

type ShareLinkResponse struct {
	Link string `json:"link"`
}

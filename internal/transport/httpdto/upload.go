package httpdto

// SubmitUploadResponse is returned by POST /v1/uploads.
type SubmitUploadResponse struct {
	Accepted   bool            `json:"accepted"`
	Session    *UploadDTO     `json:"session,omitempty"`
	Thumbnails []ThumbnailDTO `json:"thumbnails,omitempty"`
}

// ThumbnailDTO is one extracted candidate, inlined as a data URL.
type ThumbnailDTO struct {
	Index   int    `json:"index"`
	DataURL string `json:"data_url"`
}

// SelectThumbnailRequest is used for PUT /v1/uploads/:id/thumbnail. Index wins over DataURL;
// both empty removes the screenshot.
type SelectThumbnailRequest struct {
	Index   *int   `json:"index,omitempty"`
	DataURL string `json:"data_url,omitempty"`
}

// PublishRequest is used for POST /v1/uploads/:id/publish.
type PublishRequest struct {
	Title string `json:"title"`
}

// UploadDTO represents an upload session in API responses.
type UploadDTO struct {
	ID                string  `json:"id"`
	State             string  `json:"state"`
	Title             string  `json:"title"`
	FileName          string  `json:"file_name,omitempty"`
	FileSize          int64   `json:"file_size"`
	Candidates        int     `json:"candidates"`
	Selected          int     `json:"selected"`
	VideoProgress     float64 `json:"video_progress"`
	ThumbnailProgress float64 `json:"thumbnail_progress"`
	Percentage        float64 `json:"percentage"`
	DocID             string  `json:"doc_id,omitempty"`
	Link              string  `json:"link,omitempty"`
	Error             string  `json:"error,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

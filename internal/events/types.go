package events

// Upload session events, published to the owner's channel.
const (
	EventTypeUploadValidated = "upload.validated"
	EventTypeUploadProgress  = "upload.progress"
	EventTypeUploadSucceeded = "upload.succeeded"
	EventTypeUploadFailed    = "upload.failed"
	EventTypeUploadCancelled = "upload.cancelled"
	EventTypeUploadRedirect  = "upload.redirect"
)

// Catalog events
const (
	EventTypeClipUpdated = "clip.updated"
	EventTypeClipDeleted = "clip.deleted"
)

const (
	AggregateUpload = "upload"
	AggregateClip   = "clip"
)

// User-facing status messages carried by terminal upload events.
const (
	MessageUploadSucceeded = "Success! Your clip is now ready to share with the world"
	MessageUploadFailed    = "Upload failed! Try again later"
)

// UploadEvent describes the state of one upload session.
type UploadEvent struct {
	SessionID         string  `json:"session_id"`
	UID               string  `json:"uid"`
	State             string  `json:"state"`
	Percentage        float64 `json:"percentage"`
	VideoProgress     float64 `json:"video_progress"`
	ThumbnailProgress float64 `json:"thumbnail_progress"`
	DocID             string  `json:"doc_id,omitempty"`
	Link              string  `json:"link,omitempty"`
	Message           string  `json:"message,omitempty"`
}

// ClipEvent announces a change to a published clip.
type ClipEvent struct {
	DocID string `json:"doc_id"`
	UID   string `json:"uid"`
	Title string `json:"title,omitempty"`
}

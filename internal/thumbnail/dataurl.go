package thumbnail

import (
	"encoding/base64"
	"errors"
	"strings"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
)

var ErrInvalidDataURL = errors.New("invalid data url")

// EncodeDataURL renders b as a base64 data URL.
func EncodeDataURL(b *upload.Blob) string {
	if b == nil {
		return ""
	}
	contentType := b.ContentType
	if contentType == "" {
		contentType = clip.ScreenshotMimeType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// DecodeDataURL parses a base64 PNG data URL. Screenshots are always stored as PNG.
func DecodeDataURL(dataURL string) (*upload.Blob, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || contentType != clip.ScreenshotMimeType {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidDataURL
	}
	return &upload.Blob{
		Name:        "screenshot" + clip.ScreenshotExt,
		ContentType: contentType,
		Data:        data,
	}, nil
}

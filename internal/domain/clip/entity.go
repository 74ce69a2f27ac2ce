package clip

import (
	"strings"
	"time"
)

// MinTitleLength is the shortest title accepted for publish and rename.
const MinTitleLength = 3

// Clip represents a row of the clips table.
type Clip struct {
	DocID              string    `json:"docId,omitempty"`
	UID                string    `json:"uid"`
	DisplayName        string    `json:"displayName"`
	Title              string    `json:"title"`
	FileName           string    `json:"fileName"`
	URL                string    `json:"url"`
	ScreenshotFileName string    `json:"screenshotFileName,omitempty"`
	ScreenshotURL      string    `json:"screenshotURL,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// HasScreenshot reports whether a thumbnail asset was published with the clip.
func (c Clip) HasScreenshot() bool {
	return c.ScreenshotFileName != ""
}

// VideoPath is the object key of the clip's video asset.
func (c Clip) VideoPath() string {
	return VideoPath(strings.TrimSuffix(c.FileName, VideoExt))
}

// ScreenshotPath is the object key of the clip's thumbnail asset, empty when none exists.
func (c Clip) ScreenshotPath() string {
	if !c.HasScreenshot() {
		return ""
	}
	return ScreenshotPath(strings.TrimSuffix(c.ScreenshotFileName, ScreenshotExt))
}

// ValidTitle reports whether title is long enough once surrounding space is removed.
func ValidTitle(title string) bool {
	return len([]rune(strings.TrimSpace(title))) >= MinTitleLength
}

package clip

import "fmt"

const (
	VideoExt      = ".mp4"
	ScreenshotExt = ".png"

	VideoMimeType      = "video/mp4"
	ScreenshotMimeType = "image/png"
)

// Object key layout shared with every client of the bucket. Do not change.
const (
	videoPrefix      = "clips/"
	screenshotPrefix = "screenshots/"
)

func VideoFileName(id string) string {
	return id + VideoExt
}

func ScreenshotFileName(id string) string {
	return id + ScreenshotExt
}

func VideoPath(id string) string {
	return videoPrefix + VideoFileName(id)
}

func ScreenshotPath(id string) string {
	return screenshotPrefix + ScreenshotFileName(id)
}

// ShareLink builds the public detail link of a published clip.
func ShareLink(origin, docID string) string {
	return fmt.Sprintf("%s/clip/%s", origin, docID)
}

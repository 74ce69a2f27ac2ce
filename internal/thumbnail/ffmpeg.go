package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"strconv"

	"clip-share/internal/domain/clip"
	"clip-share/internal/domain/upload"
	clip_errors "clip-share/pkg/errors"
	"clip-share/pkg/logger"
)

const (
	DefaultCount = 3
	DefaultWidth = 510
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, stderr.String())
	}
	return out, nil
}

type Config struct {
	FFmpegPath string
	Count      int
	Width      int
	TempDir    string
}

// FFmpegExtractor grabs one PNG frame per second from the start of a video.
type FFmpegExtractor struct {
	cfg    Config
	run    Runner
	logger *logger.Logger
}

func NewFFmpegExtractor(cfg Config, l *logger.Logger) *FFmpegExtractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &FFmpegExtractor{cfg: cfg, run: execRunner, logger: l}
}

// Extract returns a lazy sequence of at most Count candidates. Frames are produced while
// the sequence is consumed; the first ffmpeg failure ends it.
func (e *FFmpegExtractor) Extract(ctx context.Context, video *upload.Blob) (iter.Seq[*upload.Blob], error) {
	if video == nil || len(video.Data) == 0 {
		return nil, clip_errors.ErrInvalidInput
	}

	return func(yield func(*upload.Blob) bool) {
		input, err := e.writeInput(video)
		if err != nil {
			e.logger.Warnf("thumbnail input not written: %v", err)
			return
		}
		defer os.Remove(input)

		for second := 1; second <= e.cfg.Count; second++ {
			if ctx.Err() != nil {
				return
			}
			frame, err := e.run(ctx, e.cfg.FFmpegPath, e.frameArgs(input, second)...)
			if err != nil {
				e.logger.Warnf("thumbnail at %ds failed: %v", second, err)
				return
			}
			if len(frame) == 0 {
				// video shorter than the requested offset
				return
			}
			blob := &upload.Blob{
				Name:        fmt.Sprintf("screenshot-%d%s", second, clip.ScreenshotExt),
				ContentType: clip.ScreenshotMimeType,
				Data:        frame,
			}
			if !yield(blob) {
				return
			}
		}
	}, nil
}

func (e *FFmpegExtractor) frameArgs(input string, second int) []string {
	return []string{
		"-loglevel", "error",
		"-ss", strconv.Itoa(second),
		"-i", input,
		"-frames:v", "1",
		"-filter:v", fmt.Sprintf("scale=%d:-1", e.cfg.Width),
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func (e *FFmpegExtractor) writeInput(video *upload.Blob) (string, error) {
	f, err := os.CreateTemp(e.cfg.TempDir, "clip-*"+clip.VideoExt)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(video.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// BlobFromDataURL decodes a candidate previously handed out as a data URL.
func (e *FFmpegExtractor) BlobFromDataURL(dataURL string) (*upload.Blob, error) {
	return DecodeDataURL(dataURL)
}

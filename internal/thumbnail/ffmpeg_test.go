package thumbnail

import (
	"context"
	"errors"
	"os"
	"testing"

	"clip-share/internal/domain/upload"
	clip_errors "clip-share/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls  [][]string
	inputs []string
	failAt int
	empty  int
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	for i, a := range args {
		if a == "-i" {
			f.inputs = append(f.inputs, args[i+1])
		}
	}
	n := len(f.calls)
	if n == f.failAt {
		return nil, errors.New("exit status 1")
	}
	if n == f.empty {
		return nil, nil
	}
	return []byte{byte(n)}, nil
}

func newTestExtractor(t *testing.T, r *fakeRunner) *FFmpegExtractor {
	e := NewFFmpegExtractor(Config{FFmpegPath: "/usr/bin/ffmpeg", TempDir: t.TempDir()}, nil)
	e.run = r.run
	return e
}

func video() *upload.Blob {
	return &upload.Blob{Name: "a.mp4", ContentType: "video/mp4", Data: []byte("mp4")}
}

func collect(seq func(func(*upload.Blob) bool)) []*upload.Blob {
	var out []*upload.Blob
	for b := range seq {
		out = append(out, b)
	}
	return out
}

func TestExtract_ProducesOneFramePerSecond(t *testing.T) {
	r := &fakeRunner{}
	e := newTestExtractor(t, r)

	seq, err := e.Extract(context.Background(), video())
	require.NoError(t, err)
	assert.Empty(t, r.calls, "nothing runs before the sequence is consumed")

	frames := collect(seq)
	require.Len(t, frames, 3)
	assert.Equal(t, "screenshot-1.png", frames[0].Name)
	assert.Equal(t, "image/png", frames[0].ContentType)
	assert.Equal(t, []byte{3}, frames[2].Data)

	require.Len(t, r.calls, 3)
	assert.Equal(t, []string{
		"/usr/bin/ffmpeg", "-loglevel", "error", "-ss", "2", "-i", r.inputs[1],
		"-frames:v", "1", "-filter:v", "scale=510:-1", "-f", "image2pipe", "-vcodec", "png", "-",
	}, r.calls[1])

	_, statErr := os.Stat(r.inputs[0])
	assert.True(t, os.IsNotExist(statErr), "temp input removed")
}

func TestExtract_StopsWhenConsumerStops(t *testing.T) {
	r := &fakeRunner{}
	e := newTestExtractor(t, r)
	seq, err := e.Extract(context.Background(), video())
	require.NoError(t, err)

	for frame := range seq {
		assert.NotNil(t, frame)
		break
	}
	assert.Len(t, r.calls, 1)
}

func TestExtract_EndsOnFailureOrShortVideo(t *testing.T) {
	e := newTestExtractor(t, &fakeRunner{failAt: 2})
	seq, err := e.Extract(context.Background(), video())
	require.NoError(t, err)
	assert.Len(t, collect(seq), 1)

	e = newTestExtractor(t, &fakeRunner{empty: 3})
	seq, err = e.Extract(context.Background(), video())
	require.NoError(t, err)
	assert.Len(t, collect(seq), 2)
}

func TestExtract_RejectsEmptyVideo(t *testing.T) {
	e := newTestExtractor(t, &fakeRunner{})
	_, err := e.Extract(context.Background(), &upload.Blob{})
	assert.ErrorIs(t, err, clip_errors.ErrInvalidInput)
}

func TestDataURL(t *testing.T) {
	blob := &upload.Blob{Name: "x.png", ContentType: "image/png", Data: []byte{1, 2, 3}}

	encoded := EncodeDataURL(blob)
	assert.Equal(t, "data:image/png;base64,AQID", encoded)

	decoded, err := NewFFmpegExtractor(Config{}, nil).BlobFromDataURL(encoded)
	require.NoError(t, err)
	assert.Equal(t, blob.Data, decoded.Data)
	assert.Equal(t, "image/png", decoded.ContentType)

	for _, bad := range []string{"", "image/png;base64,AQID", "data:text/plain;base64,AQID", "data:image/jpeg;base64,AQID", "data:image/png,AQID", "data:image/png;base64,***"} {
		_, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

package storage

import (
	"bytes"
	"io"
)

// progressReader counts bytes handed to the S3 client. The SDK may rewind the body
// (checksums, retries); the high-water mark is what gets reported.
type progressReader struct {
	r       *bytes.Reader
	total   int64
	read    int64
	onBytes func(read, total int64)
}

func newProgressReader(data []byte, onBytes func(read, total int64)) *progressReader {
	return &progressReader{
		r:       bytes.NewReader(data),
		total:   int64(len(data)),
		onBytes: onBytes,
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		pos := p.total - int64(p.r.Len())
		if pos > p.read {
			p.read = pos
			if p.onBytes != nil {
				p.onBytes(p.read, p.total)
			}
		}
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	return p.r.Seek(offset, whence)
}

func (p *progressReader) Len() int {
	return p.r.Len()
}

var _ io.ReadSeeker = (*progressReader)(nil)

func percentOf(read, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(read) * 100 / float64(total)
}

package upload

import (
	"path"
	"strings"
)

// Blob is an in-memory asset payload.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// BaseName returns the blob name without its extension.
func (b *Blob) BaseName() string {
	if b == nil {
		return ""
	}
	name := path.Base(strings.ReplaceAll(b.Name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

package clip

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Cursor is the keyset position of the last clip of a page.
type Cursor struct {
	Timestamp time.Time `json:"ts"`
	DocID     string    `json:"id"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

// CursorFor returns the position right after c.
func CursorFor(c Clip) *Cursor {
	return &Cursor{Timestamp: c.Timestamp, DocID: c.DocID}
}

// Encode renders the cursor as an opaque URL-safe token.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode. An empty token yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.DocID == "" || c.Timestamp.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

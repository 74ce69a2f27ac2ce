package websocket

import (
	"encoding/json"

	"clip-share/internal/domain/clip"
)

// Commands a connection may send.
const (
	CommandSort        = "sort"
	CommandNextPage    = "next_page"
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
	CommandUpdateTitle = "update_title"
	CommandDelete      = "delete"
)

// Messages pushed to a connection besides bus events.
const (
	MessageOwnerClips = "owner_clips"
	MessagePage       = "page"
	MessageError      = "error"
)

type inboundCommand struct {
	Type    string `json:"type"`
	Sort    string `json:"sort,omitempty"`
	Channel string `json:"channel,omitempty"`
	DocID   string `json:"doc_id,omitempty"`
	Title   string `json:"title,omitempty"`
}

type outboundMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type clipsPayload struct {
	Clips   []clip.Clip `json:"clips"`
	HasMore bool        `json:"has_more,omitempty"`
}

func encodeMessage(msgType string, data any) []byte {
	raw, err := json.Marshal(outboundMessage{Type: msgType, Data: data})
	if err != nil {
		return nil
	}
	return raw
}

func encodeError(message string) []byte {
	raw, _ := json.Marshal(outboundMessage{Type: MessageError, Error: message})
	return raw
}

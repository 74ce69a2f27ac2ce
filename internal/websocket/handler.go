package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"clip-share/internal/events"
	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"
	"clip-share/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// Authenticator resolves the token query parameter to the signed-in identity.
type Authenticator interface {
	Authenticate(token string) (*services.Identity, error)
}

type Handler struct {
	auth       Authenticator
	hub        *Hub
	catalog    *services.CatalogQueryService
	authorizer *ChannelAuthorizer
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

func NewHandler(auth Authenticator, hub *Hub, catalog *services.CatalogQueryService, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Handler{
		auth:       auth,
		hub:        hub,
		catalog:    catalog,
		authorizer: NewChannelAuthorizer(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: l,
	}
}

// Connect upgrades the request. The connection receives the user's upload and clip events
// and answers sort, next_page, update_title and delete commands.
func (h *Handler) Connect(c *gin.Context) {
	identity, err := h.auth.Authenticate(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, identity.UID)
	ctx, cancel := context.WithCancel(services.WithIdentity(context.Background(), identity))
	defer cancel()
	log := h.logger.WithContext(context.WithValue(ctx, logger.UserIdKey, identity.UID))

	h.hub.Register(client, events.UserChannel(identity.UID))
	defer h.hub.Unregister(client)
	go client.WriteLoop(ctx)

	feed := newCatalogFeed(client, h.catalog, log)
	feed.start(ctx, identity)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var cmd inboundCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			client.SendMessage(encodeError("invalid command"))
			continue
		}
		h.dispatch(ctx, client, feed, cmd)
	}
	log.Debugf("websocket %s closed", client.ID)
}

func (h *Handler) dispatch(ctx context.Context, client *Client, feed *catalogFeed, cmd inboundCommand) {
	switch cmd.Type {
	case CommandSort:
		feed.changeSort(ctx, cmd.Sort)
	case CommandNextPage:
		go feed.nextPage(ctx)
	case CommandSubscribe:
		if !h.authorizer.CanSubscribe(client.UserID, cmd.Channel) {
			client.SendMessage(encodeError("forbidden channel"))
			return
		}
		h.hub.Subscribe(client, cmd.Channel)
	case CommandUnsubscribe:
		h.hub.Unsubscribe(client, cmd.Channel)
	case CommandUpdateTitle:
		feed.updateTitle(ctx, client.UserID, cmd.DocID, cmd.Title)
	case CommandDelete:
		feed.deleteEntry(ctx, client.UserID, cmd.DocID)
	default:
		client.SendMessage(encodeError("unknown command"))
	}
}

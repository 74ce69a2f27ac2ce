package websocket

import (
	"context"
	"strings"

	"clip-share/internal/domain/clip"
	"clip-share/internal/services"
	"clip-share/internal/transport/httpdto"
	"clip-share/pkg/logger"
)

// catalogFeed holds the working sets of one connection: the owner's sorted list and the
// paginated public catalog.
type catalogFeed struct {
	client  *Client
	catalog *services.CatalogQueryService
	owned   *services.CatalogView
	public  *services.CatalogView
	sorts   chan clip.SortDirection
	logger  *logger.Logger
}

func newCatalogFeed(client *Client, catalog *services.CatalogQueryService, l *logger.Logger) *catalogFeed {
	return &catalogFeed{
		client:  client,
		catalog: catalog,
		owned:   catalog.NewView(),
		public:  catalog.NewView(),
		sorts:   make(chan clip.SortDirection),
		logger:  l,
	}
}

// start pushes the owner's clips now and after every sort change until ctx is done.
func (f *catalogFeed) start(ctx context.Context, identity *services.Identity) {
	identities := make(chan *services.Identity, 1)
	identities <- identity
	updates := f.owned.FetchForOwner(ctx, identities, f.sorts)

	go func() {
		for items := range updates {
			f.client.SendMessage(encodeMessage(MessageOwnerClips, clipsPayload{Clips: items}))
		}
	}()
}

func (f *catalogFeed) changeSort(ctx context.Context, param string) {
	select {
	case f.sorts <- clip.ParseSortParam(param):
	case <-ctx.Done():
	}
}

// nextPage appends a page to the public working set. Calls made while a page is loading
// are dropped.
func (f *catalogFeed) nextPage(ctx context.Context) {
	before := len(f.public.Items())
	ran, err := f.public.FetchNextPage(ctx)
	if err != nil {
		f.logger.WithContext(ctx).Warnf("next page failed: %v", err)
		f.client.SendMessage(encodeError("failed to load clips"))
		return
	}
	if !ran {
		return
	}
	items := f.public.Items()
	f.client.SendMessage(encodeMessage(MessagePage, clipsPayload{
		Clips:   items,
		HasMore: len(items)-before == f.catalog.PageSize(),
	}))
}

// updateTitle renames one of the owner's clips, patches both working sets and pushes the
// owner's list again.
func (f *catalogFeed) updateTitle(ctx context.Context, uid, docID, title string) {
	if _, err := f.catalog.OwnedEntry(ctx, docID, uid); err != nil {
		f.fail(ctx, "update", docID, err)
		return
	}
	if err := f.owned.UpdateTitle(ctx, docID, title); err != nil {
		f.fail(ctx, "update", docID, err)
		return
	}
	f.public.PatchTitle(docID, strings.TrimSpace(title))
	f.pushOwned()
}

// deleteEntry removes one of the owner's clips from the catalog and from both working sets.
func (f *catalogFeed) deleteEntry(ctx context.Context, uid, docID string) {
	record, err := f.catalog.OwnedEntry(ctx, docID, uid)
	if err != nil {
		f.fail(ctx, "delete", docID, err)
		return
	}
	if err := f.owned.DeleteEntry(ctx, record); err != nil {
		f.fail(ctx, "delete", docID, err)
		return
	}
	f.public.Remove(docID)
	f.pushOwned()
}

func (f *catalogFeed) pushOwned() {
	f.client.SendMessage(encodeMessage(MessageOwnerClips, clipsPayload{Clips: f.owned.Items()}))
}

func (f *catalogFeed) fail(ctx context.Context, op, docID string, err error) {
	status := services.HTTPStatus(err)
	if status >= 500 {
		f.logger.WithContext(ctx).Errorf("%s of clip %s failed: %v", op, docID, err)
	}
	f.client.SendMessage(encodeError(httpdto.ErrorCode(status)))
}

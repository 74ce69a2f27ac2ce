package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"clip-share/internal/domain/clip"
)

// CatalogView is the working set of one consumer, such as a websocket connection.
type CatalogView struct {
	svc *CatalogQueryService

	mu    sync.Mutex
	items []clip.Clip

	busy atomic.Bool
}

func (s *CatalogQueryService) NewView() *CatalogView {
	return &CatalogView{svc: s}
}

// Items returns a copy of the working set.
func (v *CatalogView) Items() []clip.Clip {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]clip.Clip, len(v.items))
	copy(out, v.items)
	return out
}

// FetchNextPage appends the next page of newest clips to the working set. A call made
// while another one is running is dropped and reports false without querying.
func (v *CatalogView) FetchNextPage(ctx context.Context) (bool, error) {
	if !v.busy.CompareAndSwap(false, true) {
		return false, nil
	}
	defer v.busy.Store(false)

	var after *clip.Cursor
	v.mu.Lock()
	if n := len(v.items); n > 0 {
		after = clip.CursorFor(v.items[n-1])
	}
	v.mu.Unlock()

	clips, _, err := v.svc.Page(ctx, after)
	if err != nil {
		return true, err
	}

	v.mu.Lock()
	v.items = append(v.items, clips...)
	v.mu.Unlock()
	return true, nil
}

type ownerQueryResult struct {
	generation uint64
	items      []clip.Clip
	err        error
}

// FetchForOwner re-runs the owner query whenever the identity or the sort order changes.
// A newer query cancels the one in flight. Each result replaces the working set and is
// sent on the returned channel, which only holds the latest value. The sort order starts
// descending; nothing runs until the first identity arrives.
func (v *CatalogView) FetchForOwner(ctx context.Context, identities <-chan *Identity, sorts <-chan clip.SortDirection) <-chan []clip.Clip {
	out := make(chan []clip.Clip, 1)
	results := make(chan ownerQueryResult)

	go func() {
		defer close(out)

		var (
			identity     *Identity
			haveIdentity bool
			dir          = clip.SortDesc
			generation   uint64
			cancelQuery  context.CancelFunc = func() {}
		)
		defer func() { cancelQuery() }()

		start := func() {
			cancelQuery()
			generation++
			qctx, cancel := context.WithCancel(ctx)
			cancelQuery = cancel

			gen, owner, order := generation, "", dir
			if identity != nil {
				owner = identity.UID
			}
			go func() {
				items, err := v.svc.ListForOwner(qctx, owner, order)
				select {
				case results <- ownerQueryResult{generation: gen, items: items, err: err}:
				case <-qctx.Done():
				}
			}()
		}

		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-identities:
				if !ok {
					identities = nil
					continue
				}
				identity, haveIdentity = id, true
				start()
			case d, ok := <-sorts:
				if !ok {
					sorts = nil
					continue
				}
				if !d.Valid() {
					d = clip.SortDesc
				}
				dir = d
				if haveIdentity {
					start()
				}
			case r := <-results:
				if r.generation != generation {
					continue
				}
				if r.err != nil {
					v.svc.logger.WithContext(ctx).Warnf("owner query failed: %v", r.err)
					continue
				}
				v.replace(r.items)
				sendLatest(out, v.Items())
			}
		}
	}()

	return out
}

func sendLatest(out chan []clip.Clip, items []clip.Clip) {
	for {
		select {
		case out <- items:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (v *CatalogView) replace(items []clip.Clip) {
	v.mu.Lock()
	v.items = append([]clip.Clip(nil), items...)
	v.mu.Unlock()
}

// UpdateTitle renames a clip in the store and in the working set.
func (v *CatalogView) UpdateTitle(ctx context.Context, docID, title string) error {
	if err := v.svc.UpdateTitle(ctx, docID, title); err != nil {
		return err
	}
	v.PatchTitle(docID, strings.TrimSpace(title))
	return nil
}

// PatchTitle updates the working-set entry of docID only.
func (v *CatalogView) PatchTitle(docID, title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].DocID == docID {
			v.items[i].Title = title
			return
		}
	}
}

// DeleteEntry deletes record and drops it from the working set.
func (v *CatalogView) DeleteEntry(ctx context.Context, record clip.Clip) error {
	if err := v.svc.DeleteEntry(ctx, record); err != nil {
		return err
	}
	v.Remove(record.DocID)
	return nil
}

// Remove drops the working-set entry of docID. It reports false when there was none.
func (v *CatalogView) Remove(docID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].DocID == docID {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return true
		}
	}
	return false
}

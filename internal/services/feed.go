package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ripple/internal/models"
	"ripple/internal/store"
	"ripple/internal/utils"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	firstPageTTL    = 30 * time.Second
	cursorSep       = ":"
)

// FeedPage is one stable page of posts plus the cursor for the next one.
// NextCursor is nil when the page came back short of the limit.
type FeedPage struct {
	Data       []models.Post `json:"data"`
	NextCursor *string       `json:"nextCursor"`
}

// FeedPaginator produces ordered pages of posts under a sort key. Paging is
// keyset-based: the cursor carries the sort key of the last item of the
// previous page and the next page starts strictly below it, so concurrent
// inserts can neither duplicate nor skip items across pages.
type FeedPaginator struct {
	store store.Store
	cache *utils.Cache
	// gen invalidates cached first pages without enumerating their keys.
	gen atomic.Uint64
}

func NewFeedPaginator(st store.Store, cache *utils.Cache) *FeedPaginator {
	return &FeedPaginator{store: st, cache: cache}
}

// Page returns one feed page. sortBy is "recent" (default) or "popular";
// category narrows the filter; cursor is the NextCursor of the previous page
// or empty for the first page.
func (p *FeedPaginator) Page(ctx context.Context, sortBy, category, cursor string, limit int) (*FeedPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	sort := store.SortRecent
	if sortBy == string(store.SortPopular) {
		sort = store.SortPopular
	}

	decoded, err := decodeCursor(sort, cursor)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if p.cache != nil && decoded == nil {
		cacheKey = fmt.Sprintf("feed:%d:%s:%s:%d", p.gen.Load(), sort, category, limit)
		if cached := p.cache.Get(cacheKey); cached != nil {
			if page, ok := cached.(*FeedPage); ok {
				return page, nil
			}
		}
	}

	posts, err := p.store.ListPosts(ctx, store.FeedQuery{
		Sort:     sort,
		Category: category,
		Cursor:   decoded,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	page := &FeedPage{Data: posts}
	if len(posts) == limit {
		c := encodeCursor(sort, posts[len(posts)-1])
		page.NextCursor = &c
	}

	if cacheKey != "" {
		p.cache.Set(cacheKey, page, firstPageTTL)
	}
	return page, nil
}

// Invalidate drops every cached first page; called when a post is created.
func (p *FeedPaginator) Invalidate() {
	p.gen.Add(1)
}

func encodeCursor(sort store.SortMode, last models.Post) string {
	if sort == store.SortPopular {
		return strconv.Itoa(last.VoteCount) + cursorSep + strconv.FormatUint(uint64(last.ID), 10)
	}
	return strconv.FormatUint(uint64(last.ID), 10)
}

func decodeCursor(sort store.SortMode, cursor string) (*store.FeedCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	if sort == store.SortPopular {
		count, idStr, found := strings.Cut(cursor, cursorSep)
		if !found {
			return nil, fmt.Errorf("cursor %q: %w", cursor, store.ErrInvalidOperation)
		}
		votes, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("cursor %q: %w", cursor, store.ErrInvalidOperation)
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cursor %q: %w", cursor, store.ErrInvalidOperation)
		}
		return &store.FeedCursor{VoteCount: votes, ID: uint(id)}, nil
	}
	id, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cursor %q: %w", cursor, store.ErrInvalidOperation)
	}
	return &store.FeedCursor{ID: uint(id)}, nil
}

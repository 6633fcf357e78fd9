package feed

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

// Mode selects how much of each author's history the feed includes.
type Mode string

const (
	// ModeAll merges every entry from the viewer and all friends.
	ModeAll Mode = "all"
	// ModeLatestPerAuthor reduces to each friend's single most recent
	// entry. The viewer's own entries are not included in this view.
	ModeLatestPerAuthor Mode = "latest"
)

// AuthorFailure records one author whose fetch failed. The rest of the
// feed is still delivered.
type AuthorFailure struct {
	OwnerUID string `json:"ownerUid"`
	Err      error  `json:"-"`
}

// Result is a merged feed plus the authors that could not contribute.
type Result struct {
	Entries  []models.FeedEntry
	Failures []AuthorFailure
}

// Aggregator assembles one chronological feed out of independent
// per-author queries. The backing store has no cross-document OR query and
// no join, so fetches fan out per author and merge client-side; the merge
// contract holds regardless of backend.
type Aggregator struct {
	entries store.EntryStore
	logger  *zap.SugaredLogger
}

func NewAggregator(entries store.EntryStore, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{entries: entries, logger: logger}
}

// BuildFeed fetches all contributing authors in parallel, waits for every
// fetch to settle, and merges into one sequence sorted descending by
// creation time. A single author's failure drops that author, not the
// feed. An author with no entries contributes nothing.
func (a *Aggregator) BuildFeed(ctx context.Context, viewerUID string, friendUIDs []string, mode Mode) (*Result, error) {
	authors := make([]string, 0, len(friendUIDs)+1)
	if mode == ModeAll {
		authors = append(authors, viewerUID)
	}
	for _, uid := range friendUIDs {
		if uid != viewerUID {
			authors = append(authors, uid)
		}
	}

	var (
		mu     sync.Mutex
		merged []models.FeedEntry
		failed []AuthorFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, author := range authors {
		g.Go(func() error {
			batch, err := a.fetchAuthor(gctx, author, mode)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warnw("feed fetch failed for author", "owner_uid", author, "error", err)
				failed = append(failed, AuthorFailure{OwnerUID: author, Err: err})
				return nil
			}
			merged = append(merged, batch...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortFeed(merged)
	sort.Slice(failed, func(i, j int) bool { return failed[i].OwnerUID < failed[j].OwnerUID })
	return &Result{Entries: merged, Failures: failed}, nil
}

func (a *Aggregator) fetchAuthor(ctx context.Context, ownerUID string, mode Mode) ([]models.FeedEntry, error) {
	if mode == ModeLatestPerAuthor {
		latest, err := a.entries.LatestByOwner(ctx, ownerUID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, nil
		}
		return []models.FeedEntry{{Entry: *latest, OwnerUID: ownerUID}}, nil
	}

	list, err := a.entries.ListByOwner(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	out := make([]models.FeedEntry, 0, len(list))
	for _, e := range list {
		out = append(out, models.FeedEntry{Entry: e, OwnerUID: ownerUID})
	}
	return out, nil
}

// sortFeed orders entries newest first. A missing creation time (zero
// value) sorts last; equal timestamps break by entry id ascending so the
// order is stable across merges.
func sortFeed(entries []models.FeedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].CreatedAt, entries[j].CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].ID < entries[j].ID
	})
}

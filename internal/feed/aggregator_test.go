package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

func newTestAggregator(entries *store.MemoryEntries) *Aggregator {
	return NewAggregator(entries, zap.NewNop().Sugar())
}

func seedEntry(t *testing.T, entries *store.MemoryEntries, ownerUID, id string, createdAt time.Time) {
	t.Helper()
	err := entries.Create(context.Background(), ownerUID, &models.Entry{
		ID:        id,
		Date:      createdAt.Format("2006-01-02"),
		Note:      "note " + id,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	require.NoError(t, err)
}

func feedIDs(result *Result) []string {
	ids := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestBuildFeedMergesChronologically(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "alice", "a1", base.Add(1*time.Hour))
	seedEntry(t, entries, "alice", "a2", base.Add(5*time.Hour))
	seedEntry(t, entries, "bob", "b1", base.Add(3*time.Hour))
	seedEntry(t, entries, "carol", "c1", base.Add(4*time.Hour))
	seedEntry(t, entries, "carol", "c2", base.Add(2*time.Hour))

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob", "carol"}, ModeAll)
	require.NoError(t, err)
	require.Empty(t, result.Failures)

	assert.Equal(t, []string{"a2", "c1", "b1", "c2", "a1"}, feedIDs(result))

	owners := map[string]string{}
	for _, e := range result.Entries {
		owners[e.ID] = e.OwnerUID
	}
	assert.Equal(t, "alice", owners["a2"])
	assert.Equal(t, "carol", owners["c1"])
}

func TestBuildFeedLatestPerAuthor(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "alice", "a1", base.Add(10*time.Hour))
	seedEntry(t, entries, "bob", "b1", base.Add(1*time.Hour))
	seedEntry(t, entries, "bob", "b2", base.Add(2*time.Hour))
	seedEntry(t, entries, "carol", "c1", base.Add(3*time.Hour))

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob", "carol"}, ModeLatestPerAuthor)
	require.NoError(t, err)

	// One entry per friend; the viewer's own entries stay out.
	assert.Equal(t, []string{"c1", "b2"}, feedIDs(result))
}

func TestBuildFeedSkipsEmptyAuthors(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	seedEntry(t, entries, "bob", "b1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob", "carol"}, ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, feedIDs(result))
	assert.Empty(t, result.Failures)
}

func TestBuildFeedDeduplicatesViewerInFriends(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	seedEntry(t, entries, "alice", "a1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"alice"}, ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, feedIDs(result))
}

func TestBuildFeedMissingTimestampSortsLast(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	seedEntry(t, entries, "alice", "a1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	seedEntry(t, entries, "bob", "b1", time.Time{})

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob"}, ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1"}, feedIDs(result))
}

func TestBuildFeedTieBreaksByEntryID(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "bob", "zz", at)
	seedEntry(t, entries, "carol", "aa", at)

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob", "carol"}, ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "zz"}, feedIDs(result))
}

func TestBuildFeedToleratesAuthorFailure(t *testing.T) {
	entries := store.NewMemoryEntries()
	agg := newTestAggregator(entries)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "alice", "a1", base.Add(1*time.Hour))
	seedEntry(t, entries, "carol", "c1", base.Add(2*time.Hour))

	entries.FailOwners = map[string]error{"bob": errors.New("backend unavailable")}

	result, err := agg.BuildFeed(context.Background(), "alice", []string{"bob", "carol"}, ModeAll)
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "a1"}, feedIDs(result))
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bob", result.Failures[0].OwnerUID)
}

func TestBuildFeedEmpty(t *testing.T) {
	agg := newTestAggregator(store.NewMemoryEntries())

	result, err := agg.BuildFeed(context.Background(), "alice", nil, ModeAll)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Failures)
}

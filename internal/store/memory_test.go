package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/tsunagari/backend/internal/models/account"
)

func TestEnsureCreatesAndBackfills(t *testing.T) {
	profiles := NewMemoryProfiles()
	ctx := context.Background()

	created, err := profiles.Ensure(ctx, Identity{UID: "u1", DisplayName: "Grace Hopper", Email: "Grace@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "grace hopper", created.DisplayNameLower)
	assert.Equal(t, "grace@example.com", created.EmailLower)

	// A pre-existing profile missing derived fields gets them filled in.
	profiles.Put(&models.UserProfile{UID: "u2", DisplayName: "Old Timer", Email: "old@example.com"})
	filled, err := profiles.Ensure(ctx, Identity{UID: "u2", DisplayName: "Old Timer", Email: "old@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "old timer", filled.DisplayNameLower)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	entries := NewMemoryEntries()
	ctx := context.Background()

	require.NoError(t, entries.Create(ctx, "owner", &models.Entry{ID: "e1", CreatedAt: time.Now()}))

	liked, err := entries.ToggleLike(ctx, "owner", "e1", "liker")
	require.NoError(t, err)
	assert.True(t, liked)

	entry, err := entries.Get(ctx, "owner", "e1")
	require.NoError(t, err)
	assert.True(t, entry.LikedBy("liker"))

	liked, err = entries.ToggleLike(ctx, "owner", "e1", "liker")
	require.NoError(t, err)
	assert.False(t, liked)

	entry, err = entries.Get(ctx, "owner", "e1")
	require.NoError(t, err)
	assert.False(t, entry.LikedBy("liker"))
	assert.Empty(t, entry.Likes)
}

func TestToggleLikeMissingEntry(t *testing.T) {
	entries := NewMemoryEntries()
	_, err := entries.ToggleLike(context.Background(), "owner", "missing", "liker")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	entries := NewMemoryEntries()
	ctx := context.Background()

	require.NoError(t, entries.Create(ctx, "owner", &models.Entry{ID: "e1", CreatedAt: time.Now()}))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, entries.AddComment(ctx, "owner", "e1", &models.Comment{ID: "c2", UserID: "u", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, entries.AddComment(ctx, "owner", "e1", &models.Comment{ID: "c1", UserID: "u", CreatedAt: base}))

	comments, err := entries.ListComments(ctx, "owner", "e1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "c2", comments[1].ID)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	entries := NewMemoryEntries()
	ctx := context.Background()

	require.NoError(t, entries.Create(ctx, "owner", &models.Entry{ID: "e1", CreatedAt: time.Now()}))
	require.NoError(t, entries.AddComment(ctx, "owner", "e1", &models.Comment{ID: "c1", UserID: "author", CreatedAt: time.Now()}))

	// The entry owner is not the comment author and cannot delete it.
	err := entries.DeleteComment(ctx, "owner", "e1", "c1", "owner")
	assert.ErrorIs(t, err, ErrCommentForbidden)

	require.NoError(t, entries.DeleteComment(ctx, "owner", "e1", "c1", "author"))

	comments, err := entries.ListComments(ctx, "owner", "e1")
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = entries.DeleteComment(ctx, "owner", "e1", "c1", "author")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestSubscriptionEmitAfterCloseIsDropped(t *testing.T) {
	sub := NewSubscription(2, nil)

	sub.Emit(Event{Kind: EventEntry, EntryID: "1"})
	sub.Close()
	sub.Emit(Event{Kind: EventEntry, EntryID: "2"})

	ev, ok := <-sub.Events()
	require.True(t, ok)
	assert.Equal(t, "1", ev.EntryID)
	_, ok = <-sub.Events()
	assert.False(t, ok)
}

func TestNotifyRacingCancelDoesNotPanic(t *testing.T) {
	profiles := NewMemoryProfiles()
	ctx := context.Background()
	profiles.Put(&models.UserProfile{UID: "u1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			profiles.Put(&models.UserProfile{UID: "u1", DisplayName: "name"})
		}
	}()

	// Subscriptions cancelled mid-notify must drop the event, not panic.
	for i := 0; i < 200; i++ {
		sub := profiles.ListenProfile(ctx, "u1")
		sub.Cancel()
	}
	<-done
}

func TestEntryNotifyRacingCancelDoesNotPanic(t *testing.T) {
	entries := NewMemoryEntries()
	ctx := context.Background()
	require.NoError(t, entries.Create(ctx, "owner", &models.Entry{ID: "e1", CreatedAt: time.Now()}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, _ = entries.ToggleLike(ctx, "owner", "e1", "liker")
		}
	}()

	for i := 0; i < 200; i++ {
		sub := entries.ListenEntry(ctx, "owner", "e1")
		sub.Cancel()
	}
	<-done
}

func TestSubscriptionDropsOldestWhenFull(t *testing.T) {
	sub := NewSubscription(2, nil)

	sub.Emit(Event{Kind: EventEntry, EntryID: "1"})
	sub.Emit(Event{Kind: EventEntry, EntryID: "2"})
	sub.Emit(Event{Kind: EventEntry, EntryID: "3"})

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, "2", first.EntryID)
	assert.Equal(t, "3", second.EntryID)
}

func TestGetManyChunksAndSkipsMissing(t *testing.T) {
	profiles := NewMemoryProfiles()
	ctx := context.Background()

	uids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		uid := string(rune('a'+i/5)) + string(rune('0'+i%5))
		profiles.Put(&models.UserProfile{UID: uid})
		uids = append(uids, uid)
	}
	uids = append(uids, "missing")

	got, err := profiles.GetMany(ctx, uids)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}

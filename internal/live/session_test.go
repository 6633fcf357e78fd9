package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsunagari/backend/internal/feed"
	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

type sessionFixture struct {
	profiles *store.MemoryProfiles
	entries  *store.MemoryEntries
	session  *Session
}

func newSessionFixture(t *testing.T, uid string) *sessionFixture {
	t.Helper()
	profiles := store.NewMemoryProfiles()
	entries := store.NewMemoryEntries()
	logger := zap.NewNop().Sugar()
	session := NewSession(uid, profiles, entries, feed.NewAggregator(entries, logger), logger)
	t.Cleanup(session.Close)
	return &sessionFixture{profiles: profiles, entries: entries, session: session}
}

// awaitUpdate drains the session stream until an update of the wanted type
// arrives.
func awaitUpdate(t *testing.T, s *Session, wantType string) Update {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u, ok := <-s.Updates():
			require.True(t, ok, "updates closed while waiting for %q", wantType)
			if u.Type == wantType {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q update", wantType)
		}
	}
}

func TestSessionInitialReconcile(t *testing.T) {
	fx := newSessionFixture(t, "alice")

	fx.profiles.Put(&models.UserProfile{UID: "alice", DisplayName: "Alice", Friends: []string{"bob"}})
	fx.profiles.Put(&models.UserProfile{UID: "bob", DisplayName: "Bob"})
	require.NoError(t, fx.entries.Create(context.Background(), "bob", &models.Entry{
		ID:        "b1",
		Note:      "hello",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	fx.session.Start(context.Background())

	profileUpdate := awaitUpdate(t, fx.session, "profile")
	assert.Equal(t, "live", profileUpdate.Phase)
	require.NotNil(t, profileUpdate.Profile)
	assert.Equal(t, "alice", profileUpdate.Profile.UID)
	assert.Contains(t, profileUpdate.Friends, "bob")

	feedUpdate := awaitUpdate(t, fx.session, "feed")
	require.Len(t, feedUpdate.Feed, 1)
	assert.Equal(t, "b1", feedUpdate.Feed[0].ID)
	assert.Equal(t, "bob", feedUpdate.Feed[0].OwnerUID)

	assert.Equal(t, PhaseLive, fx.session.State().Phase)
}

func TestSessionProfileChangeRebuildsFeed(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	ctx := context.Background()

	fx.profiles.Put(&models.UserProfile{UID: "alice", DisplayName: "Alice"})
	fx.profiles.Put(&models.UserProfile{UID: "carol", DisplayName: "Carol"})
	require.NoError(t, fx.entries.Create(ctx, "carol", &models.Entry{
		ID:        "c1",
		Note:      "first",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	fx.session.Start(context.Background())
	awaitUpdate(t, fx.session, "feed")

	// Friendship forms after the session started; the profile listener
	// must trigger a rebuild including carol's entries.
	require.NoError(t, fx.profiles.SendRequest(ctx, "carol", "alice"))
	require.NoError(t, fx.profiles.ResolveRequest(ctx, "alice", "carol", true))

	for {
		update := awaitUpdate(t, fx.session, "feed")
		if len(update.Feed) == 1 {
			assert.Equal(t, "c1", update.Feed[0].ID)
			break
		}
	}

	_, ok := fx.session.FriendProfile("carol")
	assert.True(t, ok)
}

func TestSessionWatchDeliversEntryAndComments(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	ctx := context.Background()

	fx.profiles.Put(&models.UserProfile{UID: "alice", DisplayName: "Alice", Friends: []string{"bob"}})
	fx.profiles.Put(&models.UserProfile{UID: "bob", DisplayName: "Bob"})
	require.NoError(t, fx.entries.Create(ctx, "bob", &models.Entry{
		ID:        "b1",
		Note:      "watch me",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	fx.session.Start(context.Background())
	awaitUpdate(t, fx.session, "feed")

	fx.session.Watch("bob", "b1")

	// A like from another user lands as an entry update.
	_, err := fx.entries.ToggleLike(ctx, "bob", "b1", "carol")
	require.NoError(t, err)

	for {
		update := awaitUpdate(t, fx.session, "entry")
		require.NotNil(t, update.Entry)
		if update.Entry.LikedBy("carol") {
			assert.Equal(t, "b1", update.EntryID)
			break
		}
	}

	require.NoError(t, fx.entries.AddComment(ctx, "bob", "b1", &models.Comment{
		ID:          "cm1",
		UserID:      "carol",
		UserName:    "Carol",
		CommentText: "nice",
		CreatedAt:   time.Now(),
	}))

	for {
		update := awaitUpdate(t, fx.session, "comments")
		if len(update.Comments) == 1 {
			assert.Equal(t, "cm1", update.Comments[0].ID)
			break
		}
	}
}

func TestSessionUnwatchStopsDelivery(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	ctx := context.Background()

	fx.profiles.Put(&models.UserProfile{UID: "alice", Friends: []string{"bob"}})
	fx.profiles.Put(&models.UserProfile{UID: "bob"})
	require.NoError(t, fx.entries.Create(ctx, "bob", &models.Entry{ID: "b1", CreatedAt: time.Now()}))

	fx.session.Start(context.Background())
	awaitUpdate(t, fx.session, "feed")

	fx.session.Watch("bob", "b1")
	awaitUpdate(t, fx.session, "entry") // initial snapshot
	fx.session.Unwatch("bob", "b1")

	// Give the cancellation a moment to land, then mutate.
	time.Sleep(50 * time.Millisecond)
	_, err := fx.entries.ToggleLike(ctx, "bob", "b1", "carol")
	require.NoError(t, err)

	select {
	case u, ok := <-fx.session.Updates():
		if ok {
			assert.NotEqual(t, "entry", u.Type)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionCloseClosesUpdates(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	fx.profiles.Put(&models.UserProfile{UID: "alice"})

	fx.session.Start(context.Background())
	awaitUpdate(t, fx.session, "profile")

	fx.session.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-fx.session.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after Close")
		}
	}
}

func TestSessionTouchTracksActivity(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	fx.profiles.Put(&models.UserProfile{UID: "alice"})
	fx.session.Start(context.Background())

	before := fx.session.IdleSince()
	time.Sleep(10 * time.Millisecond)
	fx.session.Touch()
	assert.True(t, fx.session.IdleSince().After(before))
}

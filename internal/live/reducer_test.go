package live

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

func TestReduceProfileArrival(t *testing.T) {
	profile := &models.UserProfile{UID: "u1", Friends: []string{"f1"}}

	next := reduce(SessionState{Phase: PhaseProfileLoading}, store.Event{
		Kind:    store.EventProfile,
		Profile: profile,
	})

	assert.Equal(t, PhaseProfileReady, next.Phase)
	assert.Same(t, profile, next.Profile)
	assert.True(t, next.FriendsStale)
	assert.False(t, next.RetryPending)
}

func TestReduceProfileUpdateKeepsLivePhase(t *testing.T) {
	profile := &models.UserProfile{UID: "u1"}

	next := reduce(SessionState{Phase: PhaseLive, Profile: profile}, store.Event{
		Kind:    store.EventProfile,
		Profile: &models.UserProfile{UID: "u1", Friends: []string{"f1"}},
	})

	assert.Equal(t, PhaseLive, next.Phase)
	assert.True(t, next.FriendsStale)
}

func TestReduceProfileClearsRetryPending(t *testing.T) {
	next := reduce(SessionState{Phase: PhaseLive, RetryPending: true}, store.Event{
		Kind:    store.EventProfile,
		Profile: &models.UserProfile{UID: "u1"},
	})
	assert.False(t, next.RetryPending)
}

func TestReduceProfileGone(t *testing.T) {
	next := reduce(SessionState{Phase: PhaseLive, Profile: &models.UserProfile{UID: "u1"}}, store.Event{
		Kind: store.EventProfileGone,
	})

	assert.Equal(t, PhaseProfileLoading, next.Phase)
	assert.Nil(t, next.Profile)
	assert.False(t, next.FriendsStale)
}

func TestReduceErrorSetsRetryPending(t *testing.T) {
	profile := &models.UserProfile{UID: "u1"}
	prev := SessionState{Phase: PhaseLive, Profile: profile}

	next := reduce(prev, store.Event{Kind: store.EventError, Err: errors.New("listen failed")})

	assert.True(t, next.RetryPending)
	assert.Equal(t, PhaseLive, next.Phase)
	assert.Same(t, profile, next.Profile)
}

func TestReduceIsPure(t *testing.T) {
	prev := SessionState{Phase: PhaseProfileLoading}
	_ = reduce(prev, store.Event{Kind: store.EventProfile, Profile: &models.UserProfile{UID: "u1"}})

	assert.Equal(t, PhaseProfileLoading, prev.Phase)
	assert.Nil(t, prev.Profile)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "signedOut", PhaseSignedOut.String())
	assert.Equal(t, "profileLoading", PhaseProfileLoading.String())
	assert.Equal(t, "profileReady", PhaseProfileReady.String())
	assert.Equal(t, "live", PhaseLive.String())
}

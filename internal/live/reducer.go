package live

import (
	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

// Phase is the per-session lifecycle state. SignedOut is both initial and
// terminal; a listener error moves the session to retry-pending instead of
// tearing it down.
type Phase int

const (
	PhaseSignedOut Phase = iota
	PhaseProfileLoading
	PhaseProfileReady
	PhaseLive
)

func (p Phase) String() string {
	switch p {
	case PhaseProfileLoading:
		return "profileLoading"
	case PhaseProfileReady:
		return "profileReady"
	case PhaseLive:
		return "live"
	default:
		return "signedOut"
	}
}

// SessionState is the value the reducer folds change events into. Profile
// is the viewer's cached profile document; FriendsStale flags that the
// friend cache and feed must be re-derived before the session is Live
// again.
type SessionState struct {
	Phase        Phase
	Profile      *models.UserProfile
	RetryPending bool
	FriendsStale bool
}

// reduce folds one change event into session state. It is pure: all I/O
// (friend resolution, feed rebuild) happens in the session loop after the
// fold, keyed off FriendsStale.
func reduce(s SessionState, ev store.Event) SessionState {
	next := s
	switch ev.Kind {
	case store.EventProfile:
		next.Profile = ev.Profile
		next.RetryPending = false
		next.FriendsStale = true
		if s.Phase == PhaseProfileLoading || s.Phase == PhaseSignedOut {
			next.Phase = PhaseProfileReady
		}
	case store.EventProfileGone:
		next.Profile = nil
		next.FriendsStale = false
		next.Phase = PhaseProfileLoading
	case store.EventError:
		next.RetryPending = true
	}
	return next
}

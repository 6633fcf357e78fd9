package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tsunagari/backend/internal/feed"
	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

// Update is one reconciliation result pushed to the connected client.
type Update struct {
	Type     string                        `json:"type"`
	Phase    string                        `json:"phase,omitempty"`
	Profile  *models.UserProfile           `json:"profile,omitempty"`
	Friends  map[string]models.UserProfile `json:"friends,omitempty"`
	Feed     []models.FeedEntry            `json:"feed,omitempty"`
	OwnerUID string                        `json:"ownerUid,omitempty"`
	EntryID  string                        `json:"entryId,omitempty"`
	Entry    *models.Entry                 `json:"entry,omitempty"`
	Comments []models.Comment              `json:"comments,omitempty"`
	Message  string                        `json:"message,omitempty"`
}

type watchKey struct {
	ownerUID string
	entryID  string
}

// Session is the live reconciliation layer for one authenticated viewer.
// It owns the only mutable caches (current profile, friend profile map);
// consumers read derived state exclusively through the Updates stream.
// Closing the session cancels every listener it opened, so no callback
// from a previous sign-in can touch state after a new session begins.
type Session struct {
	uid      string
	profiles store.ProfileStore
	entries  store.EntryStore
	agg      *feed.Aggregator
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	events chan store.Event
	out    chan Update

	mu      sync.Mutex
	state   SessionState
	friends map[string]models.UserProfile
	watches map[watchKey][]*store.Subscription

	lastActive time.Time
}

func NewSession(uid string, profiles store.ProfileStore, entries store.EntryStore, agg *feed.Aggregator, logger *zap.SugaredLogger) *Session {
	return &Session{
		uid:      uid,
		profiles: profiles,
		entries:  entries,
		agg:      agg,
		logger:   logger,
		events:   make(chan store.Event, 32),
		out:      make(chan Update, 32),
		friends:  make(map[string]models.UserProfile),
		watches:  make(map[watchKey][]*store.Subscription),
	}
}

// Updates is the stream of reconciled state. It closes when the session
// ends.
func (s *Session) Updates() <-chan Update { return s.out }

func (s *Session) UID() string { return s.uid }

// Start subscribes to the viewer's profile document and begins the
// reconciliation loop.
func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Lock()
	s.state = SessionState{Phase: PhaseProfileLoading}
	s.lastActive = time.Now()
	s.mu.Unlock()

	profileSub := s.profiles.ListenProfile(s.ctx, s.uid)
	s.forward(profileSub)
	go s.run()
}

// Close ends the session and cancels all listeners.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Touch records client activity for the idle sweep.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince reports the last client activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Watch opens push subscriptions on one entry document and its comment
// sub-collection, so like counts and comment lists redeliver without a
// refresh.
func (s *Session) Watch(ownerUID, entryID string) {
	key := watchKey{ownerUID, entryID}
	s.mu.Lock()
	if _, ok := s.watches[key]; ok {
		s.mu.Unlock()
		return
	}
	entrySub := s.entries.ListenEntry(s.ctx, ownerUID, entryID)
	commentsSub := s.entries.ListenComments(s.ctx, ownerUID, entryID)
	s.watches[key] = []*store.Subscription{entrySub, commentsSub}
	s.mu.Unlock()

	s.forward(entrySub)
	s.forward(commentsSub)
}

// Unwatch cancels the entry's subscriptions.
func (s *Session) Unwatch(ownerUID, entryID string) {
	key := watchKey{ownerUID, entryID}
	s.mu.Lock()
	subs := s.watches[key]
	delete(s.watches, key)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}

// forward drains one subscription into the session's single event channel.
func (s *Session) forward(sub *store.Subscription) {
	go func() {
		for ev := range sub.Events() {
			select {
			case s.events <- ev:
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Session) run() {
	defer close(s.out)
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

// apply folds one event and performs the derivations the fold flagged.
// An event handler that fails only logs and emits an error update; the
// loop keeps processing subsequent pushes.
func (s *Session) apply(ev store.Event) {
	s.mu.Lock()
	s.state = reduce(s.state, ev)
	state := s.state
	s.mu.Unlock()

	switch ev.Kind {
	case store.EventProfile:
		s.reconcileProfile(state.Profile)
	case store.EventProfileGone:
		s.emit(Update{Type: "phase", Phase: state.Phase.String()})
	case store.EventEntry:
		s.emit(Update{Type: "entry", OwnerUID: ev.OwnerUID, EntryID: ev.EntryID, Entry: ev.Entry})
	case store.EventEntryGone:
		s.emit(Update{Type: "entryGone", OwnerUID: ev.OwnerUID, EntryID: ev.EntryID})
	case store.EventComments:
		s.emit(Update{Type: "comments", OwnerUID: ev.OwnerUID, EntryID: ev.EntryID, Comments: ev.Comments})
	case store.EventError:
		s.logger.Warnw("listener error in session", "uid", s.uid, "error", ev.Err)
		s.emit(Update{Type: "error", Message: "live update temporarily unavailable"})
	}
}

// reconcileProfile re-derives everything that depends on the profile:
// friend profile cache and the merged feed.
func (s *Session) reconcileProfile(profile *models.UserProfile) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	friends := make(map[string]models.UserProfile, len(profile.Friends))
	if len(profile.Friends) > 0 {
		resolved, err := s.profiles.GetMany(ctx, profile.Friends)
		if err != nil {
			s.logger.Errorw("failed to resolve friend profiles", "uid", s.uid, "error", err)
			s.setRetryPending()
			s.emit(Update{Type: "error", Message: "could not load friends"})
			return
		}
		for _, p := range resolved {
			friends[p.UID] = p
		}
	}

	result, err := s.agg.BuildFeed(ctx, s.uid, profile.Friends, feed.ModeAll)
	if err != nil {
		s.logger.Errorw("failed to rebuild feed", "uid", s.uid, "error", err)
		s.setRetryPending()
		s.emit(Update{Type: "error", Message: "could not load feed"})
		return
	}

	s.mu.Lock()
	s.friends = friends
	s.state.FriendsStale = false
	s.state.Phase = PhaseLive
	phase := s.state.Phase
	s.mu.Unlock()

	s.emit(Update{Type: "profile", Phase: phase.String(), Profile: profile, Friends: friends})
	s.emit(Update{Type: "feed", Feed: result.Entries})
	for _, failure := range result.Failures {
		s.logger.Warnw("feed author unavailable", "uid", s.uid, "owner_uid", failure.OwnerUID, "error", failure.Err)
	}
}

func (s *Session) setRetryPending() {
	s.mu.Lock()
	s.state.RetryPending = true
	s.mu.Unlock()
}

// FriendProfile reads the session-owned friend cache.
func (s *Session) FriendProfile(uid string) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.friends[uid]
	return p, ok
}

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) emit(u Update) {
	select {
	case s.out <- u:
	case <-s.ctx.Done():
	}
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	models "github.com/tsunagari/backend/internal/models/account"
)

// MemoryProfiles is an in-memory ProfileStore. It backs tests and local
// development; mutations hold one lock, which gives it the same
// all-or-nothing visibility the Firestore transactions guarantee.
type MemoryProfiles struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	subs     map[string][]*Subscription
}

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{
		profiles: make(map[string]*models.UserProfile),
		subs:     make(map[string][]*Subscription),
	}
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	c := *p
	c.Friends = append([]string(nil), p.Friends...)
	c.PendingRequests = append([]string(nil), p.PendingRequests...)
	c.SentRequests = append([]string(nil), p.SentRequests...)
	return &c
}

func removeUID(uids []string, uid string) []string {
	out := uids[:0]
	for _, u := range uids {
		if u != uid {
			out = append(out, u)
		}
	}
	return out
}

func unionUID(uids []string, uid string) []string {
	for _, u := range uids {
		if u == uid {
			return uids
		}
	}
	return append(uids, uid)
}

// Put seeds a profile, overwriting any existing one. Test helper.
func (s *MemoryProfiles) Put(p *models.UserProfile) {
	s.mu.Lock()
	s.profiles[p.UID] = cloneProfile(p)
	s.mu.Unlock()
	s.notify(p.UID)
}

func (s *MemoryProfiles) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[uid]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryProfiles) GetMany(ctx context.Context, uids []string) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserProfile, 0, len(uids))
	for _, uid := range uids {
		if p, ok := s.profiles[uid]; ok {
			out = append(out, *cloneProfile(p))
		}
	}
	return out, nil
}

func (s *MemoryProfiles) Ensure(ctx context.Context, id Identity) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id.UID]; ok {
		if p.DisplayNameLower == "" && p.DisplayName != "" {
			p.DisplayNameLower = strings.ToLower(p.DisplayName)
		}
		if p.EmailLower == "" && p.Email != "" {
			p.EmailLower = strings.ToLower(p.Email)
		}
		return cloneProfile(p), nil
	}
	p := &models.UserProfile{
		UID:              id.UID,
		DisplayName:      id.DisplayName,
		DisplayNameLower: strings.ToLower(id.DisplayName),
		Email:            id.Email,
		EmailLower:       strings.ToLower(id.Email),
		PhotoURL:         id.PhotoURL,
		Friends:          []string{},
		PendingRequests:  []string{},
		SentRequests:     []string{},
		CreatedAt:        time.Now(),
	}
	s.profiles[id.UID] = p
	return cloneProfile(p), nil
}

func (s *MemoryProfiles) SearchPrefix(ctx context.Context, field SearchField, prefix string, limit int) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []models.UserProfile
	for _, p := range s.profiles {
		var value string
		switch field {
		case SearchByDisplayName:
			value = p.DisplayNameLower
		case SearchByEmail:
			value = p.EmailLower
		}
		if value != "" && strings.HasPrefix(value, prefix) {
			matches = append(matches, *cloneProfile(p))
		}
	}
	// The backing store orders range queries by the queried field.
	sort.Slice(matches, func(i, j int) bool {
		if field == SearchByEmail {
			return matches[i].EmailLower < matches[j].EmailLower
		}
		return matches[i].DisplayNameLower < matches[j].DisplayNameLower
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryProfiles) SendRequest(ctx context.Context, fromUID, toUID string) error {
	s.mu.Lock()
	from, okFrom := s.profiles[fromUID]
	to, okTo := s.profiles[toUID]
	if !okFrom || !okTo {
		s.mu.Unlock()
		return ErrProfileNotFound
	}
	if to.HasFriend(fromUID) {
		s.mu.Unlock()
		return ErrAlreadyFriends
	}
	to.PendingRequests = unionUID(to.PendingRequests, fromUID)
	from.SentRequests = unionUID(from.SentRequests, toUID)
	s.mu.Unlock()

	s.notify(fromUID)
	s.notify(toUID)
	return nil
}

func (s *MemoryProfiles) ResolveRequest(ctx context.Context, viewerUID, requestorUID string, accept bool) error {
	s.mu.Lock()
	viewer, okViewer := s.profiles[viewerUID]
	requestor, okRequestor := s.profiles[requestorUID]
	if !okViewer || !okRequestor {
		s.mu.Unlock()
		return ErrProfileNotFound
	}
	if !viewer.HasPendingFrom(requestorUID) {
		s.mu.Unlock()
		return ErrNoPendingRequest
	}
	viewer.PendingRequests = removeUID(viewer.PendingRequests, requestorUID)
	requestor.SentRequests = removeUID(requestor.SentRequests, viewerUID)
	if accept {
		viewer.Friends = unionUID(viewer.Friends, requestorUID)
		requestor.Friends = unionUID(requestor.Friends, viewerUID)
	}
	s.mu.Unlock()

	s.notify(viewerUID)
	s.notify(requestorUID)
	return nil
}

func (s *MemoryProfiles) ListenProfile(ctx context.Context, uid string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(8, cancel)

	s.mu.Lock()
	s.subs[uid] = append(s.subs[uid], sub)
	snapshot := s.profiles[uid]
	if snapshot != nil {
		snapshot = cloneProfile(snapshot)
	}
	s.mu.Unlock()

	// Initial snapshot, matching the backing store's listen behavior.
	if snapshot != nil {
		sub.Emit(Event{Kind: EventProfile, UID: uid, Profile: snapshot})
	} else {
		sub.Emit(Event{Kind: EventProfileGone, UID: uid})
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		live := s.subs[uid][:0]
		for _, existing := range s.subs[uid] {
			if existing != sub {
				live = append(live, existing)
			}
		}
		s.subs[uid] = live
		s.mu.Unlock()
		sub.Close()
	}()
	return sub
}

func (s *MemoryProfiles) notify(uid string) {
	s.mu.RLock()
	subs := append([]*Subscription(nil), s.subs[uid]...)
	var snapshot *models.UserProfile
	if p, ok := s.profiles[uid]; ok {
		snapshot = cloneProfile(p)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		if snapshot != nil {
			sub.Emit(Event{Kind: EventProfile, UID: uid, Profile: cloneProfile(snapshot)})
		} else {
			sub.Emit(Event{Kind: EventProfileGone, UID: uid})
		}
	}
}

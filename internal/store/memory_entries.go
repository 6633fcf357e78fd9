package store

import (
	"context"
	"sort"
	"sync"

	models "github.com/tsunagari/backend/internal/models/account"
)

type entryKey struct {
	ownerUID string
	entryID  string
}

// MemoryEntries is an in-memory EntryStore for tests and local development.
type MemoryEntries struct {
	mu          sync.RWMutex
	entries     map[string]map[string]*models.Entry // ownerUID -> entryID -> entry
	comments    map[entryKey][]models.Comment
	entrySubs   map[entryKey][]*Subscription
	commentSubs map[entryKey][]*Subscription

	// FailOwners makes per-owner reads fail, for partial-feed tests.
	FailOwners map[string]error
}

func NewMemoryEntries() *MemoryEntries {
	return &MemoryEntries{
		entries:     make(map[string]map[string]*models.Entry),
		comments:    make(map[entryKey][]models.Comment),
		entrySubs:   make(map[entryKey][]*Subscription),
		commentSubs: make(map[entryKey][]*Subscription),
	}
}

func cloneEntry(e *models.Entry) *models.Entry {
	c := *e
	c.ImageURLs = append([]string(nil), e.ImageURLs...)
	c.Likes = append([]string(nil), e.Likes...)
	return &c
}

func (s *MemoryEntries) ownerEntries(ownerUID string) map[string]*models.Entry {
	m, ok := s.entries[ownerUID]
	if !ok {
		m = make(map[string]*models.Entry)
		s.entries[ownerUID] = m
	}
	return m
}

func (s *MemoryEntries) ListByOwner(ctx context.Context, ownerUID string) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.FailOwners[ownerUID]; err != nil {
		return nil, err
	}
	var out []models.Entry
	for _, e := range s.entries[ownerUID] {
		out = append(out, *cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryEntries) LatestByOwner(ctx context.Context, ownerUID string) (*models.Entry, error) {
	entries, err := s.ListByOwner(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *MemoryEntries) Get(ctx context.Context, ownerUID, entryID string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[ownerUID][entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return cloneEntry(e), nil
}

func (s *MemoryEntries) Create(ctx context.Context, ownerUID string, entry *models.Entry) error {
	s.mu.Lock()
	s.ownerEntries(ownerUID)[entry.ID] = cloneEntry(entry)
	s.mu.Unlock()
	s.notifyEntry(ownerUID, entry.ID)
	return nil
}

func (s *MemoryEntries) Update(ctx context.Context, ownerUID string, entry *models.Entry) error {
	s.mu.Lock()
	existing, ok := s.entries[ownerUID][entry.ID]
	if !ok {
		s.mu.Unlock()
		return ErrEntryNotFound
	}
	existing.Date = entry.Date
	existing.Note = entry.Note
	existing.UpdatedAt = entry.UpdatedAt
	if len(entry.ImageURLs) > 0 {
		existing.ImageURLs = append([]string(nil), entry.ImageURLs...)
	}
	s.mu.Unlock()
	s.notifyEntry(ownerUID, entry.ID)
	return nil
}

func (s *MemoryEntries) Delete(ctx context.Context, ownerUID, entryID string) error {
	s.mu.Lock()
	delete(s.entries[ownerUID], entryID)
	s.mu.Unlock()
	s.notifyEntry(ownerUID, entryID)
	return nil
}

func (s *MemoryEntries) ToggleLike(ctx context.Context, ownerUID, entryID, likerUID string) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[ownerUID][entryID]
	if !ok {
		s.mu.Unlock()
		return false, ErrEntryNotFound
	}
	var liked bool
	if e.LikedBy(likerUID) {
		e.Likes = removeUID(e.Likes, likerUID)
		liked = false
	} else {
		e.Likes = unionUID(e.Likes, likerUID)
		liked = true
	}
	s.mu.Unlock()
	s.notifyEntry(ownerUID, entryID)
	return liked, nil
}

func (s *MemoryEntries) AddComment(ctx context.Context, ownerUID, entryID string, comment *models.Comment) error {
	key := entryKey{ownerUID, entryID}
	s.mu.Lock()
	if _, ok := s.entries[ownerUID][entryID]; !ok {
		s.mu.Unlock()
		return ErrEntryNotFound
	}
	s.comments[key] = append(s.comments[key], *comment)
	s.mu.Unlock()
	s.notifyComments(ownerUID, entryID)
	return nil
}

func (s *MemoryEntries) DeleteComment(ctx context.Context, ownerUID, entryID, commentID, requestorUID string) error {
	key := entryKey{ownerUID, entryID}
	s.mu.Lock()
	found := -1
	for i, c := range s.comments[key] {
		if c.ID == commentID {
			found = i
			break
		}
	}
	if found < 0 {
		s.mu.Unlock()
		return ErrCommentNotFound
	}
	if s.comments[key][found].UserID != requestorUID {
		s.mu.Unlock()
		return ErrCommentForbidden
	}
	s.comments[key] = append(s.comments[key][:found], s.comments[key][found+1:]...)
	s.mu.Unlock()
	s.notifyComments(ownerUID, entryID)
	return nil
}

func (s *MemoryEntries) ListComments(ctx context.Context, ownerUID, entryID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCommentsLocked(entryKey{ownerUID, entryID}), nil
}

func (s *MemoryEntries) sortedCommentsLocked(key entryKey) []models.Comment {
	out := append([]models.Comment(nil), s.comments[key]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryEntries) ListenEntry(ctx context.Context, ownerUID, entryID string) *Subscription {
	return s.listen(ctx, s.entrySubs, ownerUID, entryID, func(sub *Subscription) {
		s.mu.RLock()
		e, ok := s.entries[ownerUID][entryID]
		if ok {
			e = cloneEntry(e)
		}
		s.mu.RUnlock()
		if ok {
			sub.Emit(Event{Kind: EventEntry, OwnerUID: ownerUID, EntryID: entryID, Entry: e})
		} else {
			sub.Emit(Event{Kind: EventEntryGone, OwnerUID: ownerUID, EntryID: entryID})
		}
	})
}

func (s *MemoryEntries) ListenComments(ctx context.Context, ownerUID, entryID string) *Subscription {
	return s.listen(ctx, s.commentSubs, ownerUID, entryID, func(sub *Subscription) {
		s.mu.RLock()
		comments := s.sortedCommentsLocked(entryKey{ownerUID, entryID})
		s.mu.RUnlock()
		sub.Emit(Event{Kind: EventComments, OwnerUID: ownerUID, EntryID: entryID, Comments: comments})
	})
}

func (s *MemoryEntries) listen(ctx context.Context, registry map[entryKey][]*Subscription, ownerUID, entryID string, initial func(*Subscription)) *Subscription {
	key := entryKey{ownerUID, entryID}
	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(8, cancel)

	s.mu.Lock()
	registry[key] = append(registry[key], sub)
	s.mu.Unlock()

	initial(sub)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		live := registry[key][:0]
		for _, existing := range registry[key] {
			if existing != sub {
				live = append(live, existing)
			}
		}
		registry[key] = live
		s.mu.Unlock()
		sub.Close()
	}()
	return sub
}

func (s *MemoryEntries) notifyEntry(ownerUID, entryID string) {
	key := entryKey{ownerUID, entryID}
	s.mu.RLock()
	subs := append([]*Subscription(nil), s.entrySubs[key]...)
	e, ok := s.entries[ownerUID][entryID]
	if ok {
		e = cloneEntry(e)
	}
	s.mu.RUnlock()
	for _, sub := range subs {
		if ok {
			sub.Emit(Event{Kind: EventEntry, OwnerUID: ownerUID, EntryID: entryID, Entry: cloneEntry(e)})
		} else {
			sub.Emit(Event{Kind: EventEntryGone, OwnerUID: ownerUID, EntryID: entryID})
		}
	}
}

func (s *MemoryEntries) notifyComments(ownerUID, entryID string) {
	key := entryKey{ownerUID, entryID}
	s.mu.RLock()
	subs := append([]*Subscription(nil), s.commentSubs[key]...)
	comments := s.sortedCommentsLocked(key)
	s.mu.RUnlock()
	for _, sub := range subs {
		sub.Emit(Event{Kind: EventComments, OwnerUID: ownerUID, EntryID: entryID, Comments: comments})
	}
}

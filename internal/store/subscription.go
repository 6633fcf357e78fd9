package store

import (
	"context"
	"sync"

	models "github.com/tsunagari/backend/internal/models/account"
)

// EventKind discriminates the payload carried by an Event.
type EventKind string

const (
	EventProfile     EventKind = "profile"
	EventProfileGone EventKind = "profileGone"
	EventEntry       EventKind = "entry"
	EventEntryGone   EventKind = "entryGone"
	EventComments    EventKind = "comments"
	EventError       EventKind = "error"
)

// Event is one push notification from the document store. Exactly one of
// Profile, Entry or Comments is set, matching Kind; Err is set for
// EventError only.
type Event struct {
	Kind     EventKind
	UID      string
	OwnerUID string
	EntryID  string
	Profile  *models.UserProfile
	Entry    *models.Entry
	Comments []models.Comment
	Err      error
}

// Subscription is a cancellable handle over a stream of change events.
// The events channel is closed after Cancel or when the producing context
// ends; consumers range over Events until it closes.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

func NewSubscription(buffer int, cancel context.CancelFunc) *Subscription {
	return &Subscription{
		events: make(chan Event, buffer),
		cancel: cancel,
	}
}

func (s *Subscription) Events() <-chan Event { return s.events }

// Cancel stops the subscription. Safe to call more than once. Teardown is
// asynchronous: the producer closes the channel after it observes the
// cancellation, and anything emitted past that point is dropped.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Emit delivers an event without blocking the producer: when the consumer
// lags, the oldest buffered event is dropped in favor of the newer state.
// Listeners carry full snapshots, so a dropped intermediate event is
// superseded by the one replacing it. Emit after Close is a silent drop,
// so fan-out producers may race cancellation safely.
func (s *Subscription) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}

// Close closes the event channel. Subsequent Emit calls are dropped.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

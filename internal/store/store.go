package store

import (
	"context"
	"errors"

	models "github.com/tsunagari/backend/internal/models/account"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCommentForbidden = errors.New("comment can only be deleted by its author")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrNoPendingRequest = errors.New("no pending request between users")
)

// SearchField selects which derived lowercase field a prefix query runs on.
// Profiles missing the derived field are unreachable by that query; Ensure
// back-fills it on sign-in.
type SearchField string

const (
	SearchByDisplayName SearchField = "displayNameLower"
	SearchByEmail       SearchField = "emailLower"
)

// Identity is what the identity provider yields on sign-in.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// ProfileStore is the profile side of the remote document store. The two
// relationship mutations are atomic across both affected documents: a
// half-written request or acceptance can never be observed.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (*models.UserProfile, error)
	GetMany(ctx context.Context, uids []string) ([]models.UserProfile, error)
	Ensure(ctx context.Context, id Identity) (*models.UserProfile, error)
	SearchPrefix(ctx context.Context, field SearchField, prefix string, limit int) ([]models.UserProfile, error)
	SendRequest(ctx context.Context, fromUID, toUID string) error
	ResolveRequest(ctx context.Context, viewerUID, requestorUID string, accept bool) error
	ListenProfile(ctx context.Context, uid string) *Subscription
}

// EntryStore is the entry/comment side of the remote document store.
// Entries live in a per-owner sub-collection; comments nest under entries.
type EntryStore interface {
	ListByOwner(ctx context.Context, ownerUID string) ([]models.Entry, error)
	LatestByOwner(ctx context.Context, ownerUID string) (*models.Entry, error)
	Get(ctx context.Context, ownerUID, entryID string) (*models.Entry, error)
	Create(ctx context.Context, ownerUID string, entry *models.Entry) error
	Update(ctx context.Context, ownerUID string, entry *models.Entry) error
	Delete(ctx context.Context, ownerUID, entryID string) error
	ToggleLike(ctx context.Context, ownerUID, entryID, likerUID string) (liked bool, err error)
	AddComment(ctx context.Context, ownerUID, entryID string, comment *models.Comment) error
	DeleteComment(ctx context.Context, ownerUID, entryID, commentID, requestorUID string) error
	ListComments(ctx context.Context, ownerUID, entryID string) ([]models.Comment, error)
	ListenEntry(ctx context.Context, ownerUID, entryID string) *Subscription
	ListenComments(ctx context.Context, ownerUID, entryID string) *Subscription
}

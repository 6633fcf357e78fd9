package social

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/store"
)

const (
	// Search terms shorter than this hit too much of the user base.
	minSearchTermLen = 3
	searchResultCap  = 10
)

var (
	ErrTermTooShort = errors.New("search term must be at least 3 characters")
	ErrSelfRequest  = errors.New("cannot send a friend request to yourself")
)

// SearchResult pairs a matched profile with its relationship to the viewer.
type SearchResult struct {
	Profile models.UserProfile        `json:"profile"`
	State   models.FriendRequestState `json:"state"`
}

// Controller owns the friend-graph operations: search, request lifecycle,
// and derived relationship state.
type Controller struct {
	profiles store.ProfileStore
	logger   *zap.SugaredLogger
}

func NewController(profiles store.ProfileStore, logger *zap.SugaredLogger) *Controller {
	return &Controller{profiles: profiles, logger: logger}
}

// Search runs two independent prefix lookups, one per derived lowercase
// field, and merges them by uid. Merge order is stable: display-name
// matches first, then email matches not already seen. The viewer's own
// profile is never returned.
func (c *Controller) Search(ctx context.Context, viewer *models.UserProfile, term string) ([]SearchResult, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len(term) < minSearchTermLen {
		return nil, ErrTermTooShort
	}

	var byName, byEmail []models.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byName, err = c.profiles.SearchPrefix(gctx, store.SearchByDisplayName, term, searchResultCap)
		return err
	})
	g.Go(func() error {
		var err error
		byEmail, err = c.profiles.SearchPrefix(gctx, store.SearchByEmail, term, searchResultCap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(byName)+len(byEmail))
	results := make([]SearchResult, 0, len(byName)+len(byEmail))
	for _, batch := range [][]models.UserProfile{byName, byEmail} {
		for _, p := range batch {
			if p.UID == viewer.UID || seen[p.UID] {
				continue
			}
			seen[p.UID] = true
			results = append(results, SearchResult{Profile: p, State: c.Classify(viewer, &p)})
		}
	}
	return results, nil
}

// Classify derives the four-way relationship state from the viewer's and
// candidate's cached profiles. It must be recomputed whenever either
// profile changes.
func (c *Controller) Classify(viewer, candidate *models.UserProfile) models.FriendRequestState {
	switch {
	case viewer.HasFriend(candidate.UID):
		return models.RelationFriends
	case viewer.HasSentTo(candidate.UID) || candidate.HasPendingFrom(viewer.UID):
		return models.RelationRequestSentByMe
	case viewer.HasPendingFrom(candidate.UID):
		return models.RelationRequestReceivedFromThem
	default:
		return models.RelationNone
	}
}

// SendRequest records viewer -> target. The paired dual-document write is
// atomic in the store; repeating the call before resolution is a no-op
// thanks to set semantics.
func (c *Controller) SendRequest(ctx context.Context, viewerUID, targetUID string) error {
	if viewerUID == targetUID {
		return ErrSelfRequest
	}
	return c.profiles.SendRequest(ctx, viewerUID, targetUID)
}

// RespondToRequest accepts or rejects requestorUID's pending request. A
// request already resolved elsewhere surfaces as store.ErrNoPendingRequest
// and mutates nothing.
func (c *Controller) RespondToRequest(ctx context.Context, viewerUID, requestorUID string, accept bool) error {
	return c.profiles.ResolveRequest(ctx, viewerUID, requestorUID, accept)
}

// PendingProfiles resolves the viewer's incoming request uids to profiles.
func (c *Controller) PendingProfiles(ctx context.Context, viewer *models.UserProfile) ([]models.UserProfile, error) {
	if len(viewer.PendingRequests) == 0 {
		return nil, nil
	}
	return c.profiles.GetMany(ctx, viewer.PendingRequests)
}

// FriendProfiles resolves the viewer's friends list to profiles.
func (c *Controller) FriendProfiles(ctx context.Context, viewer *models.UserProfile) ([]models.UserProfile, error) {
	if len(viewer.Friends) == 0 {
		return nil, nil
	}
	return c.profiles.GetMany(ctx, viewer.Friends)
}

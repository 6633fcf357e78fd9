package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	models "github.com/tsunagari/backend/internal/models/account"
)

// FirestoreProfiles implements ProfileStore against the users collection.
type FirestoreProfiles struct {
	client *firestore.Client
	logger *zap.SugaredLogger
}

func NewFirestoreProfiles(client *firestore.Client, logger *zap.SugaredLogger) *FirestoreProfiles {
	return &FirestoreProfiles{client: client, logger: logger}
}

func (s *FirestoreProfiles) doc(uid string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(uid)
}

func (s *FirestoreProfiles) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	snap, err := s.doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	var p models.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", uid, err)
	}
	return &p, nil
}

// GetMany resolves uids to profiles with documentID "in" queries, chunked to
// the store's per-query item cap. Unknown uids are skipped, not errors.
func (s *FirestoreProfiles) GetMany(ctx context.Context, uids []string) ([]models.UserProfile, error) {
	profiles := make([]models.UserProfile, 0, len(uids))
	for start := 0; start < len(uids); start += inQueryLimit {
		end := start + inQueryLimit
		if end > len(uids) {
			end = len(uids)
		}
		it := s.client.Collection(usersCollection).
			Where(firestore.DocumentID, "in", uids[start:end]).
			Documents(ctx)
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				it.Stop()
				return nil, fmt.Errorf("failed to resolve profiles: %w", err)
			}
			var p models.UserProfile
			if err := snap.DataTo(&p); err != nil {
				it.Stop()
				return nil, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
			}
			profiles = append(profiles, p)
		}
		it.Stop()
	}
	return profiles, nil
}

// Ensure creates the profile on first sign-in and lazily back-fills the
// derived lowercase search fields on profiles created before they existed.
func (s *FirestoreProfiles) Ensure(ctx context.Context, id Identity) (*models.UserProfile, error) {
	existing, err := s.Get(ctx, id.UID)
	if err == nil {
		return s.backfill(ctx, existing)
	}
	if err != ErrProfileNotFound {
		return nil, err
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
	}
	if _, err := s.doc(id.UID).Set(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create profile %s: %w", id.UID, err)
	}
	return s.Get(ctx, id.UID)
}

func (s *FirestoreProfiles) backfill(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	updates := make([]firestore.Update, 0, 2)
	if p.DisplayNameLower == "" && p.DisplayName != "" {
		p.DisplayNameLower = strings.ToLower(p.DisplayName)
		updates = append(updates, firestore.Update{Path: "displayNameLower", Value: p.DisplayNameLower})
	}
	if p.EmailLower == "" && p.Email != "" {
		p.EmailLower = strings.ToLower(p.Email)
		updates = append(updates, firestore.Update{Path: "emailLower", Value: p.EmailLower})
	}
	if len(updates) == 0 {
		return p, nil
	}
	if _, err := s.doc(p.UID).Update(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to backfill profile %s: %w", p.UID, err)
	}
	return p, nil
}

func (s *FirestoreProfiles) SearchPrefix(ctx context.Context, field SearchField, prefix string, limit int) ([]models.UserProfile, error) {
	it := s.client.Collection(usersCollection).
		Where(string(field), ">=", prefix).
		Where(string(field), "<=", prefix+"\uf8ff").
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var results []models.UserProfile
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return results, nil
		}
		if err != nil {
			return nil, fmt.Errorf("prefix search on %s failed: %w", field, err)
		}
		var p models.UserProfile
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
		}
		results = append(results, p)
	}
}

// SendRequest records an outgoing friend request as one transaction over
// both profiles, so a half-sent request can never be observed. Array-union
// writes make repeat sends idempotent.
func (s *FirestoreProfiles) SendRequest(ctx context.Context, fromUID, toUID string) error {
	fromRef := s.doc(fromUID)
	toRef := s.doc(toUID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		toSnap, err := tx.Get(toRef)
		if err != nil {
			if isNotFound(err) {
				return ErrProfileNotFound
			}
			return err
		}
		var target models.UserProfile
		if err := toSnap.DataTo(&target); err != nil {
			return err
		}
		if target.HasFriend(fromUID) {
			return ErrAlreadyFriends
		}
		if err := tx.Update(toRef, []firestore.Update{
			{Path: "pendingRequests", Value: firestore.ArrayUnion(fromUID)},
		}); err != nil {
			return err
		}
		return tx.Update(fromRef, []firestore.Update{
			{Path: "sentRequests", Value: firestore.ArrayUnion(toUID)},
		})
	})
	if err == ErrProfileNotFound || err == ErrAlreadyFriends {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to send friend request: %w", err)
	}
	return nil
}

// ResolveRequest accepts or rejects a pending request as one transaction
// over both profiles: friendship symmetry and marker cleanup commit
// together or not at all.
func (s *FirestoreProfiles) ResolveRequest(ctx context.Context, viewerUID, requestorUID string, accept bool) error {
	viewerRef := s.doc(viewerUID)
	requestorRef := s.doc(requestorUID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		viewerSnap, err := tx.Get(viewerRef)
		if err != nil {
			if isNotFound(err) {
				return ErrProfileNotFound
			}
			return err
		}
		var viewer models.UserProfile
		if err := viewerSnap.DataTo(&viewer); err != nil {
			return err
		}
		if !viewer.HasPendingFrom(requestorUID) {
			// Already resolved elsewhere; report the race, change nothing.
			return ErrNoPendingRequest
		}

		viewerUpdates := []firestore.Update{
			{Path: "pendingRequests", Value: firestore.ArrayRemove(requestorUID)},
		}
		requestorUpdates := []firestore.Update{
			{Path: "sentRequests", Value: firestore.ArrayRemove(viewerUID)},
		}
		if accept {
			viewerUpdates = append(viewerUpdates, firestore.Update{Path: "friends", Value: firestore.ArrayUnion(requestorUID)})
			requestorUpdates = append(requestorUpdates, firestore.Update{Path: "friends", Value: firestore.ArrayUnion(viewerUID)})
		}
		if err := tx.Update(viewerRef, viewerUpdates); err != nil {
			return err
		}
		return tx.Update(requestorRef, requestorUpdates)
	})
	if err == ErrProfileNotFound || err == ErrNoPendingRequest {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to resolve friend request: %w", err)
	}
	return nil
}

// ListenProfile subscribes to push notifications on one profile document.
// Listener errors are reported on the stream and the listen is
// re-established after a short delay; they never end the subscription.
func (s *FirestoreProfiles) ListenProfile(ctx context.Context, uid string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(8, cancel)

	go func() {
		defer sub.Close()
		for {
			it := s.doc(uid).Snapshots(ctx)
			for {
				snap, err := it.Next()
				if err != nil {
					it.Stop()
					if ctx.Err() != nil {
						return
					}
					s.logger.Warnw("profile listener error, retrying", "uid", uid, "error", err)
					sub.Emit(Event{Kind: EventError, UID: uid, Err: err})
					break
				}
				if !snap.Exists() {
					sub.Emit(Event{Kind: EventProfileGone, UID: uid})
					continue
				}
				var p models.UserProfile
				if err := snap.DataTo(&p); err != nil {
					sub.Emit(Event{Kind: EventError, UID: uid, Err: err})
					continue
				}
				sub.Emit(Event{Kind: EventProfile, UID: uid, Profile: &p})
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(listenRetryDelay):
			}
		}
	}()
	return sub
}

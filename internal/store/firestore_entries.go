package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	models "github.com/tsunagari/backend/internal/models/account"
)

// FirestoreEntries implements EntryStore against the per-owner entries
// sub-collections under diaries/{ownerUID}.
type FirestoreEntries struct {
	client *firestore.Client
	logger *zap.SugaredLogger
}

func NewFirestoreEntries(client *firestore.Client, logger *zap.SugaredLogger) *FirestoreEntries {
	return &FirestoreEntries{client: client, logger: logger}
}

func (s *FirestoreEntries) entries(ownerUID string) *firestore.CollectionRef {
	return s.client.Collection(diariesCollection).Doc(ownerUID).Collection(entriesCollection)
}

func (s *FirestoreEntries) entryDoc(ownerUID, entryID string) *firestore.DocumentRef {
	return s.entries(ownerUID).Doc(entryID)
}

func (s *FirestoreEntries) comments(ownerUID, entryID string) *firestore.CollectionRef {
	return s.entryDoc(ownerUID, entryID).Collection(commentsCollection)
}

func decodeEntry(snap *firestore.DocumentSnapshot) (*models.Entry, error) {
	var e models.Entry
	if err := snap.DataTo(&e); err != nil {
		return nil, fmt.Errorf("failed to decode entry %s: %w", snap.Ref.ID, err)
	}
	e.ID = snap.Ref.ID
	return &e, nil
}

func (s *FirestoreEntries) ListByOwner(ctx context.Context, ownerUID string) ([]models.Entry, error) {
	it := s.entries(ownerUID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer it.Stop()

	var entries []models.Entry
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list entries for %s: %w", ownerUID, err)
		}
		e, err := decodeEntry(snap)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
}

// LatestByOwner returns the owner's most recent entry, or nil when the
// owner has none.
func (s *FirestoreEntries) LatestByOwner(ctx context.Context, ownerUID string) (*models.Entry, error) {
	it := s.entries(ownerUID).OrderBy("createdAt", firestore.Desc).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest entry for %s: %w", ownerUID, err)
	}
	return decodeEntry(snap)
}

func (s *FirestoreEntries) Get(ctx context.Context, ownerUID, entryID string) (*models.Entry, error) {
	snap, err := s.entryDoc(ownerUID, entryID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry %s: %w", entryID, err)
	}
	return decodeEntry(snap)
}

func (s *FirestoreEntries) Create(ctx context.Context, ownerUID string, entry *models.Entry) error {
	if _, err := s.entryDoc(ownerUID, entry.ID).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func (s *FirestoreEntries) Update(ctx context.Context, ownerUID string, entry *models.Entry) error {
	updates := []firestore.Update{
		{Path: "date", Value: entry.Date},
		{Path: "note", Value: entry.Note},
		{Path: "updatedAt", Value: entry.UpdatedAt},
	}
	if len(entry.ImageURLs) > 0 {
		updates = append(updates, firestore.Update{Path: "imageUrls", Value: entry.ImageURLs})
	}
	if _, err := s.entryDoc(ownerUID, entry.ID).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to update entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *FirestoreEntries) Delete(ctx context.Context, ownerUID, entryID string) error {
	if _, err := s.entryDoc(ownerUID, entryID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}
	return nil
}

// ToggleLike flips likerUID's membership in the entry's likes set inside a
// transaction, so concurrent togglers cannot double-add a liker. Returns
// whether the entry is liked by likerUID after the call.
func (s *FirestoreEntries) ToggleLike(ctx context.Context, ownerUID, entryID, likerUID string) (bool, error) {
	ref := s.entryDoc(ownerUID, entryID)
	var liked bool

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return ErrEntryNotFound
			}
			return err
		}
		e, err := decodeEntry(snap)
		if err != nil {
			return err
		}
		var op interface{}
		if e.LikedBy(likerUID) {
			op = firestore.ArrayRemove(likerUID)
			liked = false
		} else {
			op = firestore.ArrayUnion(likerUID)
			liked = true
		}
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: op}})
	})
	if err == ErrEntryNotFound {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle like on entry %s: %w", entryID, err)
	}
	return liked, nil
}

func (s *FirestoreEntries) AddComment(ctx context.Context, ownerUID, entryID string, comment *models.Comment) error {
	if _, err := s.comments(ownerUID, entryID).Doc(comment.ID).Set(ctx, comment); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment after verifying requestorUID authored it.
func (s *FirestoreEntries) DeleteComment(ctx context.Context, ownerUID, entryID, commentID, requestorUID string) error {
	ref := s.comments(ownerUID, entryID).Doc(commentID)
	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to get comment %s: %w", commentID, err)
	}
	var c models.Comment
	if err := snap.DataTo(&c); err != nil {
		return fmt.Errorf("failed to decode comment %s: %w", commentID, err)
	}
	if c.UserID != requestorUID {
		return ErrCommentForbidden
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", commentID, err)
	}
	return nil
}

func (s *FirestoreEntries) ListComments(ctx context.Context, ownerUID, entryID string) ([]models.Comment, error) {
	it := s.comments(ownerUID, entryID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer it.Stop()

	var comments []models.Comment
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return comments, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list comments for entry %s: %w", entryID, err)
		}
		var c models.Comment
		if err := snap.DataTo(&c); err != nil {
			return nil, fmt.Errorf("failed to decode comment %s: %w", snap.Ref.ID, err)
		}
		c.ID = snap.Ref.ID
		comments = append(comments, c)
	}
}

// ListenEntry subscribes to push notifications on one entry document.
func (s *FirestoreEntries) ListenEntry(ctx context.Context, ownerUID, entryID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(8, cancel)

	go func() {
		defer sub.Close()
		for {
			it := s.entryDoc(ownerUID, entryID).Snapshots(ctx)
			for {
				snap, err := it.Next()
				if err != nil {
					it.Stop()
					if ctx.Err() != nil {
						return
					}
					s.logger.Warnw("entry listener error, retrying",
						"owner_uid", ownerUID, "entry_id", entryID, "error", err)
					sub.Emit(Event{Kind: EventError, OwnerUID: ownerUID, EntryID: entryID, Err: err})
					break
				}
				if !snap.Exists() {
					sub.Emit(Event{Kind: EventEntryGone, OwnerUID: ownerUID, EntryID: entryID})
					continue
				}
				e, err := decodeEntry(snap)
				if err != nil {
					sub.Emit(Event{Kind: EventError, OwnerUID: ownerUID, EntryID: entryID, Err: err})
					continue
				}
				sub.Emit(Event{Kind: EventEntry, OwnerUID: ownerUID, EntryID: entryID, Entry: e})
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

// ListenComments subscribes to an entry's comment sub-collection; every
// notification carries the full list ordered ascending by creation time.
func (s *FirestoreEntries) ListenComments(ctx context.Context, ownerUID, entryID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := NewSubscription(8, cancel)

	go func() {
		defer sub.Close()
		for {
			it := s.comments(ownerUID, entryID).OrderBy("createdAt", firestore.Asc).Snapshots(ctx)
			for {
				qsnap, err := it.Next()
				if err != nil {
					it.Stop()
					if ctx.Err() != nil {
						return
					}
					s.logger.Warnw("comments listener error, retrying",
						"owner_uid", ownerUID, "entry_id", entryID, "error", err)
					sub.Emit(Event{Kind: EventError, OwnerUID: ownerUID, EntryID: entryID, Err: err})
					break
				}
				comments := make([]models.Comment, 0, qsnap.Size)
				failed := false
				docs := qsnap.Documents
				for {
					snap, err := docs.Next()
					if err == iterator.Done {
						break
					}
					if err != nil {
						sub.Emit(Event{Kind: EventError, OwnerUID: ownerUID, EntryID: entryID, Err: err})
						failed = true
						break
					}
					var c models.Comment
					if err := snap.DataTo(&c); err != nil {
						sub.Emit(Event{Kind: EventError, OwnerUID: ownerUID, EntryID: entryID, Err: err})
						failed = true
						break
					}
					c.ID = snap.Ref.ID
					comments = append(comments, c)
				}
				if failed {
					continue
				}
				sub.Emit(Event{Kind: EventComments, OwnerUID: ownerUID, EntryID: entryID, Comments: comments})
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

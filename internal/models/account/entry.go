package models

import "time"

// Entry is one diary entry document under diaries/{ownerUID}/entries.
type Entry struct {
	ID        string    `json:"id" firestore:"-"`
	Date      string    `json:"date" firestore:"date"`
	Note      string    `json:"note" firestore:"note"`
	ImageURLs []string  `json:"imageUrls" firestore:"imageUrls"`
	Likes     []string  `json:"likes" firestore:"likes"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// LikedBy reports whether uid is in the entry's likes set.
func (e *Entry) LikedBy(uid string) bool {
	return containsUID(e.Likes, uid)
}

// FeedEntry is an Entry annotated with its owner so presentation can resolve
// display name and photo from a profile cache without extra lookups.
type FeedEntry struct {
	Entry
	OwnerUID string `json:"ownerUid"`
}

package models

import "time"

// Comment is one document in an entry's comments sub-collection. The author
// identity is denormalized onto the comment the way the store keeps it.
type Comment struct {
	ID          string    `json:"id" firestore:"-"`
	UserID      string    `json:"userId" firestore:"userId"`
	UserName    string    `json:"userName" firestore:"userName"`
	UserPhoto   string    `json:"userPhoto" firestore:"userPhoto"`
	CommentText string    `json:"commentText" firestore:"commentText"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

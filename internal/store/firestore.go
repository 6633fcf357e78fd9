package store

import (
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection    = "users"
	diariesCollection  = "diaries"
	entriesCollection  = "entries"
	commentsCollection = "comments"

	// Firestore caps documentID "in" queries; GetMany chunks at this size
	// so callers never trip the store-side limit.
	inQueryLimit = 10

	listenRetryDelay = 3 * time.Second
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

package models

import "time"

// UserProfile is one document in the users collection. The three uid lists
// carry set semantics: every mutation goes through array-union/array-remove
// operations, never list append.
type UserProfile struct {
	UID              string    `json:"uid" firestore:"uid"`
	DisplayName      string    `json:"displayName" firestore:"displayName"`
	DisplayNameLower string    `json:"-" firestore:"displayNameLower"`
	Email            string    `json:"email" firestore:"email"`
	EmailLower       string    `json:"-" firestore:"emailLower"`
	PhotoURL         string    `json:"photoURL" firestore:"photoURL"`
	Friends          []string  `json:"friends" firestore:"friends"`
	PendingRequests  []string  `json:"pendingRequests" firestore:"pendingRequests"`
	SentRequests     []string  `json:"sentRequests" firestore:"sentRequests"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}

// HasFriend reports whether uid is in the profile's friends list.
func (p *UserProfile) HasFriend(uid string) bool {
	return containsUID(p.Friends, uid)
}

// HasPendingFrom reports whether uid has an unresolved incoming request.
func (p *UserProfile) HasPendingFrom(uid string) bool {
	return containsUID(p.PendingRequests, uid)
}

// HasSentTo reports whether the profile owner has an unresolved outgoing
// request to uid.
func (p *UserProfile) HasSentTo(uid string) bool {
	return containsUID(p.SentRequests, uid)
}

func containsUID(uids []string, uid string) bool {
	for _, u := range uids {
		if u == uid {
			return true
		}
	}
	return false
}

// FriendRequestState classifies the relationship between a viewer and a
// candidate profile. It is derived, never stored.
type FriendRequestState int

const (
	RelationNone FriendRequestState = iota
	RelationFriends
	RelationRequestSentByMe
	RelationRequestReceivedFromThem
)

func (s FriendRequestState) String() string {
	switch s {
	case RelationFriends:
		return "friends"
	case RelationRequestSentByMe:
		return "requestSent"
	case RelationRequestReceivedFromThem:
		return "requestReceived"
	default:
		return "none"
	}
}

// MarshalJSON renders the state as its string form for API responses.
func (s FriendRequestState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

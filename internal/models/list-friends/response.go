package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type ListFriendsResponse struct {
	Friends []accountmodels.UserProfile `json:"friends"`
}

type ListFriendRequestsResponse struct {
	Requests []accountmodels.UserProfile `json:"requests"`
}

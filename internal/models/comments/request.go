package models

import (
	accountmodels "github.com/tsunagari/backend/internal/models/account"
)

type AddCommentRequest struct {
	OwnerUID    string `json:"ownerUid"`
	EntryID     string `json:"entryId"`
	CommentText string `json:"commentText"`
}

type DeleteCommentRequest struct {
	OwnerUID  string `json:"ownerUid"`
	EntryID   string `json:"entryId"`
	CommentID string `json:"commentId"`
}

type ListCommentsResponse struct {
	Comments []accountmodels.Comment `json:"comments"`
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	friendmodels "github.com/tsunagari/backend/internal/models/friend_request"
	"github.com/tsunagari/backend/internal/social"
	"github.com/tsunagari/backend/internal/store"
)

// SendFriendRequest records a pending request from the caller to the
// target user. Both profile documents update atomically; repeating the
// call before the target responds is a no-op.
func (h *UsersHandler) SendFriendRequest(c *gin.Context) {
	var req friendmodels.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.TargetUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "targetUid is required"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx := context.Background()
	if err := h.controller.SendRequest(ctx, uid, req.TargetUID); err != nil {
		switch {
		case errors.Is(err, social.ErrSelfRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a friend request to yourself"})
		case errors.Is(err, store.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, store.ErrAlreadyFriends):
			c.JSON(http.StatusConflict, gin.H{"error": "Already friends"})
		default:
			h.logError(c, err, "failed to send friend request", "target_uid", req.TargetUID)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Friend request could not be saved"})
		}
		return
	}

	h.invalidateSocialCaches(ctx, uid, req.TargetUID)
	c.JSON(http.StatusOK, gin.H{"status": "requestSent"})
}

// invalidateSocialCaches drops the cached friend lists and search results
// for both sides of a relationship mutation.
func (h *UsersHandler) invalidateSocialCaches(ctx context.Context, uids ...string) {
	for _, uid := range uids {
		_ = h.redis.Del(ctx, "friends:"+uid).Err()
		iter := h.redis.Scan(ctx, 0, "search_users:"+uid+":*", 0).Iterator()
		for iter.Next(ctx) {
			_ = h.redis.Del(ctx, iter.Val()).Err()
		}
	}
}

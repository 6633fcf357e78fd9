package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	friendmodels "github.com/tsunagari/backend/internal/models/friend_request"
	"github.com/tsunagari/backend/internal/store"
)

// RespondFriendRequest accepts or rejects a pending request addressed to
// the caller. Acceptance makes the friendship visible on both profiles in
// one atomic write; a request already resolved elsewhere mutates nothing.
func (h *UsersHandler) RespondFriendRequest(c *gin.Context) {
	var req friendmodels.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.RequestorUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requestorUid is required"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx := context.Background()
	if err := h.controller.RespondToRequest(ctx, uid, req.RequestorUID, req.Accept); err != nil {
		switch {
		case errors.Is(err, store.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, store.ErrNoPendingRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "No pending request from this user"})
		default:
			h.logError(c, err, "failed to respond to friend request", "requestor_uid", req.RequestorUID, "accept", req.Accept)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Response could not be saved"})
		}
		return
	}

	h.invalidateSocialCaches(ctx, uid, req.RequestorUID)

	status := "rejected"
	if req.Accept {
		status = "accepted"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

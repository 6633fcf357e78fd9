package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	likemodels "github.com/tsunagari/backend/internal/models/like_entry"
	"github.com/tsunagari/backend/internal/store"
)

// ToggleLike flips the caller's like on an entry: absent uid joins the
// liker set, present uid leaves it. Toggling twice restores the original
// state.
func (h *EntryHandler) ToggleLike(c *gin.Context) {
	var req likemodels.LikeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if req.OwnerUID == "" || req.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerUid and entryId are required"})
		return
	}

	ctx := context.Background()
	liked, err := h.entries.ToggleLike(ctx, req.OwnerUID, req.EntryID, uid)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to toggle like", "owner_uid", req.OwnerUID, "entry_id", req.EntryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Like could not be saved"})
		return
	}

	h.invalidateFeedCaches(ctx, req.OwnerUID)
	c.JSON(http.StatusOK, likemodels.LikeEntryResponse{Liked: liked})
}

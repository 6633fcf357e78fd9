package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	commentmodels "github.com/tsunagari/backend/internal/models/comments"
	"github.com/tsunagari/backend/internal/store"
)

// DeleteComment removes a comment. Only the comment's author may delete
// it, even on their own entry's comments written by others.
func (h *EntryHandler) DeleteComment(c *gin.Context) {
	var req commentmodels.DeleteCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if req.OwnerUID == "" || req.EntryID == "" || req.CommentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerUid, entryId and commentId are required"})
		return
	}

	ctx := context.Background()
	if err := h.entries.DeleteComment(ctx, req.OwnerUID, req.EntryID, req.CommentID, uid); err != nil {
		switch {
		case errors.Is(err, store.ErrCommentNotFound), errors.Is(err, store.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		case errors.Is(err, store.ErrCommentForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the comment author can delete it"})
		default:
			h.logError(c, err, "failed to delete comment", "comment_id", req.CommentID)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Comment could not be deleted"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountmodels "github.com/tsunagari/backend/internal/models/account"
	commentmodels "github.com/tsunagari/backend/internal/models/comments"
	"github.com/tsunagari/backend/internal/store"
)

// ListComments returns an entry's comments oldest first.
func (h *EntryHandler) ListComments(c *gin.Context) {
	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ownerUID := c.Query("ownerUid")
	entryID := c.Query("entryId")
	if ownerUID == "" || entryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerUid and entryId are required"})
		return
	}

	ctx := context.Background()
	comments, err := h.entries.ListComments(ctx, ownerUID, entryID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to list comments", "owner_uid", ownerUID, "entry_id", entryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Comments temporarily unavailable"})
		return
	}
	if comments == nil {
		comments = []accountmodels.Comment{}
	}

	c.JSON(http.StatusOK, commentmodels.ListCommentsResponse{Comments: comments})
}

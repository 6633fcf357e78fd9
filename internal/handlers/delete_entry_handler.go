package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	deletemodels "github.com/tsunagari/backend/internal/models/delete_entry"
	"github.com/tsunagari/backend/internal/store"
)

// DeleteEntry removes an entry the caller owns.
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	var req deletemodels.DeleteEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if req.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entryId is required"})
		return
	}

	ctx := context.Background()
	if err := h.entries.Delete(ctx, uid, req.EntryID); err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to delete entry", "entry_id", req.EntryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Entry could not be deleted"})
		return
	}

	h.invalidateFeedCaches(ctx, uid)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

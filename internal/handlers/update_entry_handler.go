package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	updatemodels "github.com/tsunagari/backend/internal/models/update_entry"
	"github.com/tsunagari/backend/internal/store"
)

// UpdateEntry rewrites an entry the caller owns. New images upload before
// anything is written; kept image URLs pass through untouched.
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	var req updatemodels.UpdateEntryRequest
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

	existing, err := h.entries.Get(ctx, uid, req.EntryID)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to load entry", "entry_id", req.EntryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Entry store unavailable"})
		return
	}

	newURLs, ok := h.uploadImages(ctx, c, req.Images)
	if !ok {
		return
	}

	existing.Date = req.Date
	existing.Note = req.Note
	existing.ImageURLs = append(req.KeepImageURLs, newURLs...)
	existing.UpdatedAt = time.Now()

	if err := h.entries.Update(ctx, uid, existing); err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to update entry", "entry_id", req.EntryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Entry could not be saved"})
		return
	}

	h.invalidateFeedCaches(ctx, uid)
	c.JSON(http.StatusOK, updatemodels.UpdateEntryResponse{Entry: *existing})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	models "github.com/tsunagari/backend/internal/models/account"
	commentmodels "github.com/tsunagari/backend/internal/models/comments"
	"github.com/tsunagari/backend/internal/store"
)

// AddComment appends a comment to an entry. Author name and photo are
// denormalized onto the comment at write time so readers never resolve
// profiles.
func (h *EntryHandler) AddComment(c *gin.Context) {
	var req commentmodels.AddCommentRequest
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
	text := strings.TrimSpace(req.CommentText)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commentText is required"})
		return
	}

	ctx := context.Background()

	author, err := h.profiles.Get(ctx, uid)
	if err != nil {
		h.logError(c, err, "failed to load comment author profile", "uid", uid)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Profile store unavailable"})
		return
	}

	comment := &models.Comment{
		ID:          uuid.New().String(),
		UserID:      author.UID,
		UserName:    author.DisplayName,
		UserPhoto:   author.PhotoURL,
		CommentText: text,
		CreatedAt:   time.Now(),
	}

	if err := h.entries.AddComment(ctx, req.OwnerUID, req.EntryID, comment); err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
			return
		}
		h.logError(c, err, "failed to add comment", "owner_uid", req.OwnerUID, "entry_id", req.EntryID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Comment could not be saved"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

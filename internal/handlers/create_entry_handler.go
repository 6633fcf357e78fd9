package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tsunagari/backend/internal/feed"
	"github.com/tsunagari/backend/internal/images"
	models "github.com/tsunagari/backend/internal/models/account"
	createmodels "github.com/tsunagari/backend/internal/models/create_entry"
	"github.com/tsunagari/backend/internal/store"
)

type EntryHandler struct {
	entries  store.EntryStore
	profiles store.ProfileStore
	agg      *feed.Aggregator
	images   *images.Client
	redis    *redis.Client
	logger   *zap.SugaredLogger
	cacheTTL time.Duration
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entries store.EntryStore, profiles store.ProfileStore, agg *feed.Aggregator, imageClient *images.Client, redisClient *redis.Client, logger *zap.SugaredLogger, cacheTTL time.Duration) *EntryHandler {
	return &EntryHandler{
		entries:  entries,
		profiles: profiles,
		agg:      agg,
		images:   imageClient,
		redis:    redisClient,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// CreateEntry creates a dated diary entry for the caller. Images upload to
// the image host first; the entry is only written once every upload
// succeeded, so a half-illustrated entry is never saved.
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req createmodels.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if req.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		return
	}

	ctx := context.Background()

	urls, ok := h.uploadImages(ctx, c, req.Images)
	if !ok {
		return
	}

	now := time.Now()
	entry := &models.Entry{
		ID:        uuid.New().String(),
		Date:      req.Date,
		Note:      req.Note,
		ImageURLs: urls,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.entries.Create(ctx, uid, entry); err != nil {
		h.logError(c, err, "failed to create entry", "entry_id", entry.ID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Entry could not be saved"})
		return
	}

	h.invalidateFeedCaches(ctx, uid)
	c.JSON(http.StatusCreated, createmodels.CreateEntryResponse{Entry: *entry})
}

// uploadImages decodes and uploads client-supplied images. On failure it
// writes the error response itself, reporting the URLs already uploaded so
// the client can retry without re-sending them.
func (h *EntryHandler) uploadImages(ctx context.Context, c *gin.Context, uploads []models.ImageUpload) ([]string, bool) {
	if len(uploads) == 0 {
		return nil, true
	}

	files := make([]images.File, 0, len(uploads))
	for _, img := range uploads {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image data must be base64 encoded", "filename": img.Name})
			return nil, false
		}
		files = append(files, images.File{Name: img.Name, Reader: bytes.NewReader(data)})
	}

	urls, err := h.images.UploadAll(ctx, files)
	if err != nil {
		var uploadErr *images.UploadError
		if errors.As(err, &uploadErr) {
			h.logError(c, err, "image upload failed", "filename", uploadErr.Filename)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        "Image upload failed",
				"filename":     uploadErr.Filename,
				"uploadedUrls": uploadErr.Uploaded,
			})
			return nil, false
		}
		h.logError(c, err, "image upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed"})
		return nil, false
	}
	return urls, true
}

// invalidateFeedCaches drops the cached feeds that could contain the
// owner's entries: the owner's own and every friend's.
func (h *EntryHandler) invalidateFeedCaches(ctx context.Context, ownerUID string) {
	uids := []string{ownerUID}
	if profile, err := h.profiles.Get(ctx, ownerUID); err == nil {
		uids = append(uids, profile.Friends...)
	}
	for _, uid := range uids {
		_ = h.redis.Del(ctx, "feed:"+uid+":all", "feed:"+uid+":latest").Err()
	}
}

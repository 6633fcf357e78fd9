package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tsunagari/backend/internal/feed"
	accountmodels "github.com/tsunagari/backend/internal/models/account"
	feedmodels "github.com/tsunagari/backend/internal/models/list-feeds"
	"github.com/tsunagari/backend/internal/store"
)

// Feed merges the caller's and their friends' entries into one
// chronological stream. mode=latest reduces to each friend's single most
// recent entry. Authors whose fetch failed are reported, not fatal.
func (h *EntryHandler) Feed(c *gin.Context) {
	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	mode := feed.ModeAll
	switch c.DefaultQuery("mode", "all") {
	case "all":
	case "latest":
		mode = feed.ModeLatestPerAuthor
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'all' or 'latest'"})
		return
	}

	ctx := context.Background()
	cacheKey := "feed:" + uid + ":" + string(mode)

	// Try Redis cache first
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		var cachedResponse feedmodels.FeedResponse
		if err := json.Unmarshal([]byte(cached), &cachedResponse); err == nil {
			c.JSON(http.StatusOK, cachedResponse)
			return
		}
	}

	profile, err := h.profiles.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logError(c, err, "failed to load viewer profile", "uid", uid)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Profile store unavailable"})
		return
	}

	result, err := h.agg.BuildFeed(ctx, uid, profile.Friends, mode)
	if err != nil {
		h.logError(c, err, "failed to build feed", "mode", string(mode))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Feed temporarily unavailable"})
		return
	}

	entries := result.Entries
	if entries == nil {
		entries = []accountmodels.FeedEntry{}
	}
	var unavailable []string
	for _, failure := range result.Failures {
		unavailable = append(unavailable, failure.OwnerUID)
	}

	response := feedmodels.FeedResponse{Entries: entries, UnavailableAuthors: unavailable}

	// A partial feed stays uncached: the next poll goes back to the
	// store and retries the failed authors immediately, instead of
	// serving the gap for a full cache TTL.
	if len(unavailable) == 0 {
		if data, err := json.Marshal(response); err == nil {
			_ = h.redis.Set(ctx, cacheKey, data, h.cacheTTL).Err()
		}
	}

	c.JSON(http.StatusOK, response)
}

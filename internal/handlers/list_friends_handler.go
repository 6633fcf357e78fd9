package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	accountmodels "github.com/tsunagari/backend/internal/models/account"
	friendsmodels "github.com/tsunagari/backend/internal/models/list-friends"
)

// ListFriends returns full profiles for every friend of the caller.
func (h *UsersHandler) ListFriends(c *gin.Context) {
	ctx := context.Background()
	viewer, ok := h.viewerProfile(ctx, c)
	if !ok {
		return
	}

	cacheKey := "friends:" + viewer.UID

	// Try Redis cache first
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		var cachedResponse friendsmodels.ListFriendsResponse
		if err := json.Unmarshal([]byte(cached), &cachedResponse); err == nil {
			c.JSON(http.StatusOK, cachedResponse)
			return
		}
	}

	friends, err := h.controller.FriendProfiles(ctx, viewer)
	if err != nil {
		h.logError(c, err, "failed to resolve friend profiles", "uid", viewer.UID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Friends temporarily unavailable"})
		return
	}
	if friends == nil {
		friends = []accountmodels.UserProfile{}
	}

	response := friendsmodels.ListFriendsResponse{Friends: friends}
	if data, err := json.Marshal(response); err == nil {
		_ = h.redis.Set(ctx, cacheKey, data, h.cacheTTL).Err()
	}

	c.JSON(http.StatusOK, response)
}

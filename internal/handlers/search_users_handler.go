package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	searchmodels "github.com/tsunagari/backend/internal/models/search_users"
	"github.com/tsunagari/backend/internal/social"
)

// SearchUsers finds users by display name or email prefix, annotated with
// the viewer's relationship to each match.
func (h *UsersHandler) SearchUsers(c *gin.Context) {
	ctx := context.Background()
	viewer, ok := h.viewerProfile(ctx, c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	cacheKey := fmt.Sprintf("search_users:%s:%s", viewer.UID, strings.ToLower(query))

	// Try Redis cache first
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		var cachedResponse searchmodels.SearchUsersResponse
		if err := json.Unmarshal([]byte(cached), &cachedResponse); err == nil {
			c.JSON(http.StatusOK, cachedResponse)
			return
		}
	}

	results, err := h.controller.Search(ctx, viewer, query)
	if err != nil {
		if errors.Is(err, social.ErrTermTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search term must be at least 3 characters"})
			return
		}
		h.logError(c, err, "user search failed", "query", query)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search temporarily unavailable"})
		return
	}

	response := searchmodels.SearchUsersResponse{Results: results}
	if data, err := json.Marshal(response); err == nil {
		_ = h.redis.Set(ctx, cacheKey, data, h.cacheTTL).Err()
	}

	c.JSON(http.StatusOK, response)
}

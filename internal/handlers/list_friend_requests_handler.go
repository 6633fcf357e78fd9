package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	accountmodels "github.com/tsunagari/backend/internal/models/account"
	friendsmodels "github.com/tsunagari/backend/internal/models/list-friends"
)

// ListFriendRequests returns profiles for users with a pending request to
// the caller. Not cached: the list must reflect responses immediately.
func (h *UsersHandler) ListFriendRequests(c *gin.Context) {
	ctx := context.Background()
	viewer, ok := h.viewerProfile(ctx, c)
	if !ok {
		return
	}

	requests, err := h.controller.PendingProfiles(ctx, viewer)
	if err != nil {
		h.logError(c, err, "failed to resolve pending requests", "uid", viewer.UID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Requests temporarily unavailable"})
		return
	}
	if requests == nil {
		requests = []accountmodels.UserProfile{}
	}

	c.JSON(http.StatusOK, friendsmodels.ListFriendRequestsResponse{Requests: requests})
}

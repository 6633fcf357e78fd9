package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	models "github.com/tsunagari/backend/internal/models/account"
	"github.com/tsunagari/backend/internal/social"
	"github.com/tsunagari/backend/internal/store"
)

type UsersHandler struct {
	controller *social.Controller
	profiles   store.ProfileStore
	redis      *redis.Client
	logger     *zap.SugaredLogger
	cacheTTL   time.Duration
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(controller *social.Controller, profiles store.ProfileStore, redisClient *redis.Client, logger *zap.SugaredLogger, cacheTTL time.Duration) *UsersHandler {
	return &UsersHandler{
		controller: controller,
		profiles:   profiles,
		redis:      redisClient,
		logger:     logger,
		cacheTTL:   cacheTTL,
	}
}

// viewerProfile loads the authenticated caller's profile.
func (h *UsersHandler) viewerProfile(ctx context.Context, c *gin.Context) (*models.UserProfile, bool) {
	uid := c.GetString("uid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	profile, err := h.profiles.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return nil, false
		}
		h.logError(c, err, "failed to load viewer profile", "uid", uid)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Profile store unavailable"})
		return nil, false
	}
	return profile, true
}

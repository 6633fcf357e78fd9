package handlers

import (
	"context"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	firebaseutil "github.com/tsunagari/backend/internal/firebase"
	loginmodels "github.com/tsunagari/backend/internal/models/login"
	"github.com/tsunagari/backend/internal/store"
)

type AuthHandler struct {
	firebaseApp *firebase.App
	profiles    store.ProfileStore
	redis       *redis.Client
	logger      *zap.SugaredLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(firebaseApp *firebase.App, profiles store.ProfileStore, redisClient *redis.Client, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		firebaseApp: firebaseApp,
		profiles:    profiles,
		redis:       redisClient,
		logger:      logger,
	}
}

// Login verifies the provided ID token and ensures a profile document
// exists for the caller, back-filling derived search fields on the way.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginmodels.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	ctx := context.Background()
	authClient, err := firebaseutil.GetAuthClient(h.firebaseApp)
	if err != nil {
		h.logError(c, err, "failed to initialize auth client")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize auth client"})
		return
	}

	token, err := authClient.VerifyIDToken(ctx, req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	userRecord, err := authClient.GetUser(ctx, token.UID)
	if err != nil {
		h.logError(c, err, "failed to load user record", "uid", token.UID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user information"})
		return
	}

	profile, err := h.profiles.Ensure(ctx, store.Identity{
		UID:         userRecord.UID,
		DisplayName: userRecord.DisplayName,
		Email:       userRecord.Email,
		PhotoURL:    userRecord.PhotoURL,
	})
	if err != nil {
		h.logError(c, err, "failed to ensure profile", "uid", userRecord.UID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Profile store unavailable"})
		return
	}

	c.JSON(http.StatusOK, loginmodels.LoginResponse{Profile: *profile})
}

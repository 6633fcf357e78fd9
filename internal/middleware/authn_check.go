package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	firebaseutil "github.com/tsunagari/backend/internal/firebase"
)

const tokenCacheTTL = 5 * time.Minute

// AuthMiddleware verifies the bearer ID token with the identity provider
// and sets the caller's uid in the request context. Verified tokens are
// cached briefly in Redis, keyed by token digest, to keep hot paths off
// the provider.
func AuthMiddleware(firebaseApp *firebase.App, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with 'Bearer '"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, bearerPrefix)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			c.Abort()
			return
		}

		ctx := context.Background()
		cacheKey := tokenCacheKey(token)

		var userUID string
		if cached, err := redisClient.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			userUID = cached
		}

		if userUID == "" {
			authClient, err := firebaseutil.GetAuthClient(firebaseApp)
			if err == nil {
				if idToken, err := authClient.VerifyIDToken(ctx, token); err == nil {
					userUID = idToken.UID
					_ = redisClient.Set(ctx, cacheKey, userUID, tokenCacheTTL).Err()
				}
			}
		}

		if userUID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("uid", userUID)
		c.Next()
	}
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "authtok:" + hex.EncodeToString(sum[:])
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ecocritique/internal/config"
	"ecocritique/internal/user"
)

// Session calls are swappable so handler tests run without a live Redis.
var (
	LookupSession  = GetSession
	RefreshSession = SetSession
)

// Middleware authenticates the bearer token, verifies the Redis session and
// attaches a request-scoped Identity. With requireProfessor set, students
// get 403.
func Middleware(cfg *config.Config, rdb *redis.Client, requireProfessor bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		// Check session in Redis
		sessionToken, err := LookupSession(rdb, claims.UserID)
		if err != nil || sessionToken != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Session expired or invalid"}})
			return
		}
		// Sliding inactivity window
		_ = RefreshSession(rdb, claims.UserID, tokenStr, SessionIdleTimeout)

		id := Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     user.Role(claims.Role),
		}
		if requireProfessor && !id.IsProfessor() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Professor only"}})
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// PrincipalHeader carries the authenticated user's ID, set by the
	// authentication layer upstream of this service
	PrincipalHeader = "X-User-ID"

	// PrincipalKey is the key used to store the user ID in the context
	PrincipalKey = "user_id"
)

// Principal middleware extracts the authenticated user's ID from the request
// and rejects requests that lack a valid one. Routes behind it can rely on
// GetUserID returning a real ID.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(PrincipalHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing " + PrincipalHeader + " header",
				},
			})
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid " + PrincipalHeader + " header",
				},
			})
			return
		}

		c.Set(PrincipalKey, userID)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the gin context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(PrincipalKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

package middleware

import (
	"log"
	"net/http"
	"strings"

	"perchstats/api/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired resolves the calling organization from the session JWT and
// stores its identity in the gin context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("session_token")
		if err != nil {
			tokenString = c.GetHeader("Authorization")
			if tokenString == "" {
				log.Println("AuthRequired: No session token found in cookie or header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		}

		claims, err := utils.ValidateSessionJWT(tokenString)
		if err != nil {
			log.Printf("AuthRequired: Invalid session token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("org_id", claims.OrgID)
		c.Set("org_email", claims.Email)
		c.Next()
	}
}

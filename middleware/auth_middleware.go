package middleware

import (
	"log"
	"net/http"
	"os"

	"cathedral/analytics/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired guards the admin stats routes. A configured API key header
// short-circuits the JWT check for server-to-server consumers.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		defaultToken := c.GetHeader("X-API-KEY")
		if defaultToken != "" && defaultToken == os.Getenv("AUTH_DEFAULT") {
			c.Next()
			return
		}
		tokenString, err := c.Cookie("jwt_token")
		if err != nil {
			tokenString = c.GetHeader("Authorization")
			if tokenString == "" {
				log.Println("AuthRequired: No JWT token found in cookie or header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}
		}
		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("AuthRequired: Invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

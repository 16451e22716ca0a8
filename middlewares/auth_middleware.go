package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const emailKey = "email"

// TokenParser resolves a bearer token to the email it was issued for.
type TokenParser interface {
	ParseJWT(tokenString string) (string, error)
}

// AuthMiddleware accepts the Authorization header with or without the "Bearer " prefix.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		email, err := tokens.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(emailKey, email)
		c.Next()
	}
}

// CurrentEmail returns the email AuthMiddleware stored, or "" outside an authenticated route.
func CurrentEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}

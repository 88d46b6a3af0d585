package delivery

import (
	"net/http"
	"strings"

	"betterish-backend/internal/auth/domain"
	"betterish-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token and stores the user and its id
// under "user" and "userID". EventSource clients cannot set headers, so a
// "token" query parameter is accepted as well.
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}
			token = parts[1]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		user, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// RequireAdmin lets through only users whose email is in adminEmails.
// It must run after AuthMiddleware.
func RequireAdmin(adminEmails []string) gin.HandlerFunc {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = true
	}
	return func(c *gin.Context) {
		user, ok := c.Get("user")
		u, isUser := user.(*domain.User)
		if !ok || !isUser || !admins[strings.ToLower(u.Email)] {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

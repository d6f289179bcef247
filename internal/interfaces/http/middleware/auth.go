// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/pkg/auth"
)

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Store member information in context
		c.Set("member_id", claims.MemberID)
		c.Set("member_email", claims.Email)
		c.Set("is_staff", claims.IsStaff)
		c.Set("token_claims", claims)

		c.Next()
	}
}

// StaffMiddleware ensures the member is a staff member
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isStaff, exists := c.Get("is_staff")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if !isStaff.(bool) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Staff access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware provides optional authentication
func OptionalAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// No auth header, continue without authentication
			c.Next()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			// Invalid token, continue without authentication
			c.Next()
			return
		}

		c.Set("member_id", claims.MemberID)
		c.Set("member_email", claims.Email)
		c.Set("is_staff", claims.IsStaff)
		c.Set("token_claims", claims)

		c.Next()
	}
}

// GetMemberIDFromContext extracts member ID from gin context
func GetMemberIDFromContext(c *gin.Context) (uint, bool) {
	memberID, exists := c.Get("member_id")
	if !exists {
		return 0, false
	}
	return memberID.(uint), true
}

// GetMemberEmailFromContext extracts member email from gin context
func GetMemberEmailFromContext(c *gin.Context) (string, bool) {
	email, exists := c.Get("member_email")
	if !exists {
		return "", false
	}
	return email.(string), true
}

// IsStaffFromContext checks if member is staff from gin context
func IsStaffFromContext(c *gin.Context) bool {
	isStaff, exists := c.Get("is_staff")
	if !exists {
		return false
	}
	return isStaff.(bool)
}

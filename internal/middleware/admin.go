package middleware

import (
	"net/http"               // HTTP status codes
	"rewear/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ActiveUserMiddleware loads the caller from the database on each request, so role changes and
// suspensions apply to tokens that were issued earlier
func ActiveUserMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if userID == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Where("id = ?", userID).Take(&user).Error; err != nil {
			// Deleted accounts keep valid tokens until expiry
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Suspended accounts are locked out
		if user.Suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account suspended"})
			return
		}
		c.Set(RoleKey, string(user.Role)) // Store role in context
		c.Next()                          // Proceed to the next handler
	}
}

// AdminOnlyMiddleware checks the role loaded by ActiveUserMiddleware
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if user role is admin
		if domain.Role(c.GetString(RoleKey)) != domain.RoleAdmin {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}

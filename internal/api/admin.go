package api

import (
	"context"                  // Context for database operations
	"net/http"                 // HTTP status codes
	"rewear/internal/catalog"  // Read-side queries
	"rewear/internal/domain"   // Importing domain models
	"rewear/internal/exchange" // Exchange operations
	"rewear/internal/utils"    // Utility functions
	"strconv"                  // String conversion
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Moderation actions accepted by the admin item endpoint
const (
	ModerationApprove = "APPROVE" // Approve a pending listing
	ModerationReject  = "REJECT"  // Reject a pending listing
	ModerationDelete  = "DELETE"  // Remove a listing in any state
)

// ModerationRequest carries an admin action on an item
type ModerationRequest struct {
	Action string `json:"action" binding:"required"` // APPROVE, REJECT or DELETE
}

// UserActionRequest carries an admin action on an account
type UserActionRequest struct {
	Action string `json:"action" binding:"required"` // SUSPEND, ACTIVATE or DELETE
}

// StatsHandler returns platform counters for the admin dashboard
func StatsHandler(cat *catalog.Catalog, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		serveCached(c, rdb, utils.CacheStatsKey, ttl, "stats", func(ctx context.Context) (*catalog.Stats, error) {
			return cat.Stats(ctx)
		})
	}
}

// ListAllItemsHandler lists items in any status; moderation queues use status=PENDING
func ListAllItemsHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := itemFilterFrom(c)                        // Parse filters
		f.Status = domain.ItemStatus(statusFilter(c)) // Optional status filter
		page, err := cat.ListItems(c.Request.Context(), f)
		if err != nil {
			respondError(c, err, "list items")
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// ModerateItemHandler approves, rejects or removes an item
func ModerateItemHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ModerationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context() // Request-scoped context
		caller := callerFrom(c)    // Authenticated admin
		id := c.Param("id")        // Item ID from path
		switch req.Action {
		case ModerationApprove, ModerationReject:
			item, err := svc.Moderate(ctx, caller, id, exchange.ModerationDecision(req.Action))
			if err != nil {
				respondError(c, err, "moderate item")
				return
			}
			invalidate(ctx, rdb, item.OwnerID) // Owner balance and listings changed
			c.JSON(http.StatusOK, gin.H{"message": "Item moderated", "item": item})
		case ModerationDelete:
			if err := svc.Remove(ctx, caller, id); err != nil {
				respondError(c, err, "remove item")
				return
			}
			invalidateAll(ctx, rdb) // Swaps of any user may have been dropped
			c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
		default:
			// Unknown action
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid moderation action"})
		}
	}
}

// ListSwapsHandler lists swaps, optionally filtered by status, user or item
func ListSwapsHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := cat.ListSwaps(c.Request.Context(), catalog.SwapFilter{
			Status:     domain.SwapStatus(statusFilter(c)), // Optional status filter
			UserID:     c.Query("user"),                    // Either party
			ItemID:     c.Query("item"),                    // Target item
			Pagination: parsePagination(c),                 // Page and limit
		})
		if err != nil {
			respondError(c, err, "list swaps")
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// ListUsersHandler lists accounts with their activity counts
func ListUsersHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := catalog.UserFilter{
			Role:       domain.Role(c.Query("role")), // Optional role filter
			Pagination: parsePagination(c),           // Page and limit
		}
		// Parse optional suspension filter
		if s := c.Query("suspended"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid suspended filter"})
				return
			}
			f.Suspended = &v
		}
		page, err := cat.ListUsers(c.Request.Context(), f)
		if err != nil {
			respondError(c, err, "list users")
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// ManageUserHandler suspends, reactivates or deletes an account
func ManageUserHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserActionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		id := c.Param("id") // User ID from path
		if err := svc.ManageUser(c.Request.Context(), callerFrom(c), id, exchange.UserAction(req.Action)); err != nil {
			respondError(c, err, "manage user")
			return
		}
		invalidate(c.Request.Context(), rdb, id) // User's dashboard and counters changed
		c.JSON(http.StatusOK, gin.H{"message": "User updated"})
	}
}

package api

import (
	"context"                  // Context for database operations
	"net/http"                 // HTTP status codes
	"net/url"                  // Query encoding for cache keys
	"rewear/internal/catalog"  // Read-side queries
	"rewear/internal/domain"   // Importing domain models
	"rewear/internal/exchange" // Exchange operations
	"rewear/internal/utils"    // Utility functions
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// SubmitItemRequest represents a new listing
type SubmitItemRequest struct {
	Title       string   `json:"title" binding:"required"`       // Listing title
	Description string   `json:"description" binding:"required"` // Listing description
	Category    string   `json:"category" binding:"required"`    // Clothing category
	Size        string   `json:"size" binding:"required"`        // Garment size
	Condition   string   `json:"condition" binding:"required"`   // Garment condition
	Tags        []string `json:"tags"`                           // Optional tags
	Images      []string `json:"images"`                         // Optional image URLs
}

// itemsCacheKey derives a cache key from the normalized query string
func itemsCacheKey(kind string, query url.Values) string {
	return utils.CacheItemsPrefix + kind + ":" + query.Encode() // Encode sorts by key
}

// itemFilterFrom reads listing filters from the query string
func itemFilterFrom(c *gin.Context) catalog.ItemFilter {
	return catalog.ItemFilter{
		Category:   c.Query("category"),               // Category filter
		Condition:  c.Query("condition"),              // Condition filter
		OwnerID:    c.Query("owner"),                  // Owner filter
		Sort:       catalog.ItemSort(c.Query("sort")), // Sort order
		Pagination: parsePagination(c),                // Page and limit
	}
}

// BrowseItemsHandler lists approved items for the public catalog
func BrowseItemsHandler(cat *catalog.Catalog, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := itemFilterFrom(c)         // Parse filters
		f.Status = domain.ItemApproved // Only approved items are public
		key := itemsCacheKey("browse", c.Request.URL.Query())
		serveCached(c, rdb, key, ttl, "browse items", func(ctx context.Context) (catalog.Page[domain.Item], error) {
			return cat.ListItems(ctx, f)
		})
	}
}

// FeaturedItemsHandler returns the newest approved items
func FeaturedItemsHandler(cat *catalog.Catalog, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := utils.CacheItemsPrefix + "featured" // Single cached entry
		serveCached(c, rdb, key, ttl, "featured items", func(ctx context.Context) ([]domain.Item, error) {
			return cat.Featured(ctx, catalog.FeaturedCount)
		})
	}
}

// GetItemHandler returns a single item with its owner
func GetItemHandler(cat *catalog.Catalog, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")                            // Item ID from path
		key := utils.CacheItemsPrefix + "detail:" + id // Per-item cache key
		serveCached(c, rdb, key, ttl, "get item", func(ctx context.Context) (*domain.Item, error) {
			return cat.GetItem(ctx, id)
		})
	}
}

// SubmitItemHandler creates a listing awaiting moderation
func SubmitItemHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitItemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		caller := callerFrom(c) // Authenticated caller
		item, err := svc.Submit(c.Request.Context(), caller, exchange.ItemInput{
			Title:       req.Title,       // Listing title
			Description: req.Description, // Listing description
			Category:    req.Category,    // Clothing category
			Size:        req.Size,        // Garment size
			Condition:   req.Condition,   // Garment condition
			Tags:        req.Tags,        // Tags
			Images:      req.Images,      // Image URLs
		})
		if err != nil {
			respondError(c, err, "submit item")
			return
		}
		invalidate(c.Request.Context(), rdb, caller.UserID) // Listings, stats and dashboard changed
		// Return the created item
		c.JSON(http.StatusCreated, gin.H{"message": "Item submitted for review", "item": item})
	}
}

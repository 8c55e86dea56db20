package api

import (
	"context"                    // Context for Redis operations
	"net/http"                   // HTTP status codes
	"rewear/internal/apperrors"  // Error kinds
	"rewear/internal/catalog"    // Read-side queries
	"rewear/internal/domain"     // Importing domain models
	"rewear/internal/exchange"   // Exchange operations
	"rewear/internal/middleware" // Context keys
	"rewear/internal/utils"      // Cache helpers
	"strconv"                    // String conversion
	"time"                       // Cache lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrValidation, apperrors.ErrConflict, apperrors.ErrInsufficientFunds:
		return http.StatusBadRequest
	case apperrors.ErrAuthorization:
		return http.StatusForbidden
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to; server-side failures are logged
// and reported without detail
func respondError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"action":  action,                            // Failed operation
			"user_id": c.GetString(middleware.UserIDKey), // Caller, if authenticated
			"error":   err.Error(),                       // Error message
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// callerFrom builds the exchange caller from values set by the auth middleware
func callerFrom(c *gin.Context) exchange.Caller {
	return exchange.Caller{
		UserID: c.GetString(middleware.UserIDKey),            // Authenticated user ID
		Role:   domain.Role(c.GetString(middleware.RoleKey)), // Role loaded from the database
	}
}

// parsePagination reads page and limit query parameters, ignoring invalid values
func parsePagination(c *gin.Context) catalog.Pagination {
	var p catalog.Pagination
	// Check and set page number
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	// Check and set page size; the catalog clamps it
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	return p
}

// statusFilter treats "" and "ALL" as no filter
func statusFilter(c *gin.Context) string {
	s := c.Query("status")
	if s == "ALL" {
		return ""
	}
	return s
}

// Cache status header values
const (
	cacheHeader = "X-Cache" // Response header reporting cache use
	cacheHit    = "HIT"     // Served from Redis
	cacheMiss   = "MISS"    // Served from the database
)

// serveCached answers from Redis when key is present, otherwise runs load, stores its result
// for ttl and returns it. Cache failures fall through to the database. The result is only stored
// if no invalidation ran while load was in flight.
func serveCached[T any](c *gin.Context, rdb *redis.Client, key string, ttl time.Duration, action string, load func(ctx context.Context) (T, error)) {
	ctx := c.Request.Context() // Request-scoped context for Redis and the database
	var cached T               // Destination for the cached value
	// If cached data found, return it
	if found, err := utils.GetCache(ctx, rdb, key, &cached); err == nil && found {
		c.Header(cacheHeader, cacheHit)
		c.JSON(http.StatusOK, cached)
		return
	}
	gen, genErr := utils.CacheGeneration(ctx, rdb) // Taken before the database read
	value, err := load(ctx)                         // Query the database
	if err != nil {
		respondError(c, err, action)
		return
	}
	// Cache the result for subsequent requests
	if genErr == nil {
		_, genErr = utils.SetCacheIfGeneration(ctx, rdb, gen, key, value, ttl)
	}
	if genErr != nil {
		logrus.WithFields(logrus.Fields{
			"key":   key,            // Cache key
			"error": genErr.Error(), // Error message
		}).Warn("Cache write failed")
	}
	c.Header(cacheHeader, cacheMiss)
	c.JSON(http.StatusOK, value)
}

// invalidate drops cached listings and stats, and the dashboards of the given users
func invalidate(ctx context.Context, rdb *redis.Client, userIDs ...string) {
	keys := []string{utils.CacheStatsKey} // Admin counters always change
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, utils.CacheDashboardPrefix+id) // Per-user dashboard
		}
	}
	// Bump the generation so in-flight reads do not re-cache old data, then delete exact keys
	// and every item listing page
	err := utils.BumpCacheGeneration(ctx, rdb)
	if err == nil {
		err = utils.DeleteCache(ctx, rdb, keys...)
	}
	if err == nil {
		err = utils.DeleteCachePrefix(ctx, rdb, utils.CacheItemsPrefix)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"users": userIDs,     // Affected users
			"error": err.Error(), // Error message
		}).Warn("Cache invalidation failed")
	}
}

// invalidateAll drops every cached listing, stats entry and dashboard
func invalidateAll(ctx context.Context, rdb *redis.Client) {
	invalidate(ctx, rdb)
	if err := utils.DeleteCachePrefix(ctx, rdb, utils.CacheDashboardPrefix); err != nil {
		logrus.WithError(err).Warn("Cache invalidation failed")
	}
}

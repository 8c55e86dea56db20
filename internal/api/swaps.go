package api

import (
	"net/http"                 // HTTP status codes
	"rewear/internal/domain"   // Importing domain models
	"rewear/internal/exchange" // Exchange operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// SwapRequest names the item a swap or redemption targets
type SwapRequest struct {
	ItemID string `json:"itemId" binding:"required"` // Target item ID
}

// DecisionRequest carries a verdict on a pending swap
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"` // APPROVE, REJECT or CANCEL
}

// invalidateSwap drops caches touched by a change to swap
func invalidateSwap(c *gin.Context, rdb *redis.Client, swap *domain.Swap) {
	invalidate(c.Request.Context(), rdb, swap.FromUserID, swap.ToUserID)
}

// RequestSwapHandler opens a pending swap for an item
func RequestSwapHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SwapRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		swap, err := svc.Request(c.Request.Context(), callerFrom(c), req.ItemID)
		if err != nil {
			respondError(c, err, "request swap")
			return
		}
		invalidateSwap(c, rdb, swap) // Both dashboards show the new swap
		// Return the pending swap
		c.JSON(http.StatusCreated, gin.H{"message": "Swap requested", "swap": swap})
	}
}

// RedeemItemHandler takes an item for points at once
func RedeemItemHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SwapRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		swap, err := svc.Redeem(c.Request.Context(), callerFrom(c), req.ItemID)
		if err != nil {
			respondError(c, err, "redeem item")
			return
		}
		invalidateSwap(c, rdb, swap) // Ownership and balances changed
		// Return the completed swap
		c.JSON(http.StatusCreated, gin.H{"message": "Item redeemed", "swap": swap})
	}
}

// DecideSwapHandler approves, rejects or cancels a pending swap; the service checks who may
func DecideSwapHandler(svc *exchange.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DecisionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		swap, err := svc.Decide(c.Request.Context(), callerFrom(c), c.Param("id"), exchange.SwapDecision(req.Decision))
		if err != nil {
			respondError(c, err, "decide swap")
			return
		}
		invalidateSwap(c, rdb, swap) // Swap status and possibly ownership changed
		// Return the decided swap
		c.JSON(http.StatusOK, gin.H{"message": "Swap updated", "swap": swap})
	}
}

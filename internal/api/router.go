package api

import (
	"errors"                     // Setup errors
	"rewear/internal/account"    // Account registration and login
	"rewear/internal/catalog"    // Read-side queries
	"rewear/internal/exchange"   // Exchange operations
	"rewear/internal/middleware" // Custom package for middleware
	"time"                       // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RouterOptions carries the settings handlers need beyond the stores
type RouterOptions struct {
	JWTSecret      string        // HMAC key for tokens
	TokenTTL       time.Duration // Token lifetime
	CacheTTL       time.Duration // Lifetime of cached reads
	BcryptCost     int           // Password hashing cost, 0 for the default
	TrustedProxies []string      // Proxies allowed to set client IP headers
}

// SetupRouter wires every route onto a new Gin engine
func SetupRouter(db *gorm.DB, rdb *redis.Client, opts RouterOptions) (*gin.Engine, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("api: JWT secret is required")
	}
	accounts := account.NewService(db, opts.BcryptCost) // Registration and login
	svc := exchange.NewService(db)                      // Write-side operations
	cat := catalog.New(db)                              // Read-side queries

	r := gin.New() // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLoggerMiddleware())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	// Auth routes
	auth := r.Group("/auth")
	auth.POST("/register", RegisterHandler(accounts))                          // Registration endpoint
	auth.POST("/login", LoginHandler(accounts, opts.JWTSecret, opts.TokenTTL)) // Login endpoint

	// Public catalog
	items := r.Group("/items")
	items.GET("", BrowseItemsHandler(cat, rdb, opts.CacheTTL))            // Browse approved items
	items.GET("/featured", FeaturedItemsHandler(cat, rdb, opts.CacheTTL)) // Landing page items
	items.GET("/:id", GetItemHandler(cat, rdb, opts.CacheTTL))            // Item detail

	// Member routes (protected by JWT, active accounts only)
	member := r.Group("")
	member.Use(middleware.JWTAuthMiddleware(opts.JWTSecret), middleware.ActiveUserMiddleware(db))
	member.POST("/items", SubmitItemHandler(svc, rdb))                       // Submit listing
	member.POST("/swaps", RequestSwapHandler(svc, rdb))                      // Request swap
	member.POST("/swaps/redeem", RedeemItemHandler(svc, rdb))                // Redeem with points
	member.POST("/swaps/:id/decision", DecideSwapHandler(svc, rdb))          // Approve, reject or cancel
	member.GET("/user/dashboard", DashboardHandler(cat, rdb, opts.CacheTTL)) // Caller dashboard

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(opts.JWTSecret), middleware.ActiveUserMiddleware(db), middleware.AdminOnlyMiddleware())
	admin.GET("/stats", StatsHandler(cat, rdb, opts.CacheTTL))         // Platform counters
	admin.GET("/items", ListAllItemsHandler(cat))                      // Items in any status
	admin.POST("/items/:id/moderation", ModerateItemHandler(svc, rdb)) // Approve, reject or remove
	admin.GET("/swaps", ListSwapsHandler(cat))                         // All swaps
	admin.POST("/swaps/:id/decision", DecideSwapHandler(svc, rdb))     // Decide any swap
	admin.GET("/users", ListUsersHandler(cat))                         // Accounts with counts
	admin.POST("/users/:id/action", ManageUserHandler(svc, rdb))       // Suspend, activate or delete

	return r, nil
}

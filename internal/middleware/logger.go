package middleware

import (
	"time" // Request timing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next() // process request

		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"user_id": c.GetString(UserIDKey),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("HTTP Request")
			return
		}
		entry.Info("HTTP Request")
	}
}

package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vareport/vareport/pkg/ratelimit"
)

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("api: panic recovered",
					slog.String("path", c.Request.URL.Path),
					slog.String("error", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())))
				writeError(c, http.StatusInternalServerError, "internal server error", "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("api: request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("client", c.ClientIP()),
			slog.Duration("took", time.Since(start)))
	}
}

func rateLimit(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			secs := int(math.Ceil(l.RetryAfter(ip).Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			writeError(c, http.StatusTooManyRequests, "rate limit exceeded", "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

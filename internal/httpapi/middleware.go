package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/metrics"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

const maxRequestIDLen = 128

// requestID echoes a caller-supplied X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// rateLimit rejects requests once the token bucket is empty.
func rateLimit(limiter *rate.Limiter, m metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			m.RecordRejected()
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, KindRateLimited, "", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// accessLog logs every request after it is handled.
func accessLog(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			requestIDKey, c.GetString(requestIDKey),
		)
	}
}

func abortWithError(c *gin.Context, status int, kind, stage, msg string) {
	body := gin.H{
		"error":      msg,
		"kind":       kind,
		"request_id": c.GetString(requestIDKey),
	}
	if stage != "" {
		body["stage"] = stage
	}
	c.AbortWithStatusJSON(status, body)
}

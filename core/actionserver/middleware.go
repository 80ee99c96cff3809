package actionserver

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
)

const headerRequestID = "X-Request-ID"

// requestID tags every request with a correlation id, reusing the caller's
// header when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(headerRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)
		c.Request = c.Request.WithContext(logger.WithRID(c.Request.Context(), rid))
		c.Next()
	}
}

// accessLog writes one structured line per request and counts it.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status_code", status),
			slog.Duration("duration", logger.Took(start)),
		}
		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, logger.CompActionServer, "http.request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, logger.CompActionServer, "http.request", attrs...)
		default:
			logger.Info(ctx, logger.CompActionServer, "http.request", attrs...)
		}
	}
}

// tokenAuth accepts "Authorization: Bearer <token>" or ?token=<token>.
func tokenAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				got = strings.TrimSpace(parts[1])
			}
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or missing token"})
			return
		}
		c.Next()
	}
}

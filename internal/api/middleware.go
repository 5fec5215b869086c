package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// cors allows the dashboard origin with credentials. An empty or "*"
// origin allows any caller without credentials.
func cors(allowedOrigin string) gin.HandlerFunc {
	methods := strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		h := c.Writer.Header()

		switch {
		case allowedOrigin == "" || allowedOrigin == "*":
			h.Set("Access-Control-Allow-Origin", "*")
		case origin == allowedOrigin:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		default:
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		}
		if len(c.Errors) > 0 {
			logger.Error("http request with errors", append(attrs, "errors", c.Errors.String())...)
			return
		}
		logger.Debug("http request", attrs...)
	}
}

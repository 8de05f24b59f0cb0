// Package api exposes the read-only audit API: crawl logs, hits and
// notification logs, plus a health endpoint.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/logger"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// AuditStore is the read side of the audit trail.
type AuditStore interface {
	ListRecentCrawlLogs(ctx context.Context, limit int) ([]*domain.CrawlLog, error)
	ListRecentHits(ctx context.Context, limit int) ([]*domain.Hit, error)
	ListRecentNotificationLogs(ctx context.Context, limit int) ([]*domain.NotificationLog, error)
}

// NewRouter builds the gin engine with all audit routes registered.
func NewRouter(store AuditStore, log logger.Interface) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/crawl-logs", func(c *gin.Context) {
		logs, err := store.ListRecentCrawlLogs(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list crawl logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"crawl_logs": logs})
	})

	v1.GET("/hits", func(c *gin.Context) {
		hits, err := store.ListRecentHits(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list hits"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})

	v1.GET("/notification-logs", func(c *gin.Context) {
		logs, err := store.ListRecentNotificationLogs(c.Request.Context(), limitParam(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notification logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notification_logs": logs})
	})

	return router
}

// limitParam parses the optional ?limit= query, clamped to a sane range.
func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// loggingMiddleware logs each request with its status and latency.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

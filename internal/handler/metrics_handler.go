package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/labdesk/lab-ledger-api/internal/repository"
	"github.com/labdesk/lab-ledger-api/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      *sqlx.DB
	cache   *repository.CacheRepository
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, db *sqlx.DB, cache *repository.CacheRepository) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health pings the ledger's dependencies for readiness/liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	dbHealthy := true
	if h.db != nil {
		dbHealthy = h.db.PingContext(c.Request.Context()) == nil
	}

	cacheHealthy := true
	if h.cache != nil {
		cacheHealthy = h.cache.Ping(c.Request.Context()) == nil
	}

	status := http.StatusOK
	overall := "ok"
	if !dbHealthy || !cacheHealthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{"status": overall, "db": dbHealthy, "cache": cacheHealthy})
}

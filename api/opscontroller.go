package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newssum/config"
)

// RegisterOpsRoutes registers operational endpoints: metrics snapshot,
// allowlist reload, and cache prune.
func RegisterOpsRoutes(r *gin.Engine, deps RouterDeps) {
	g := r.Group("/api/ops")
	g.GET("/metrics", handleMetrics(deps))
	g.POST("/reload-allowlist", handleReloadAllowlist(deps))
	g.POST("/prune", handlePrune(deps))
}

func handleMetrics(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		counters, timings := deps.Metrics.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"counters":   counters,
			"timings_ms": timings,
		})
	}
}

// handleReloadAllowlist re-reads the allowlist file into a fresh immutable
// snapshot. Explicit reload instead of implicit global mutation keeps
// in-flight requests on a consistent view.
func handleReloadAllowlist(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		allow, err := config.LoadAllowlist(deps.AllowlistPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "allowlist_reload_failed", "message": err.Error()})
			return
		}
		deps.Gate.Reload(allow)
		c.JSON(http.StatusOK, gin.H{"status": "reloaded", "domains": allow.Size()})
	}
}

func handlePrune(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(config.PruneBatchLimit)))
		deleted := deps.Cache.Prune(c.Request.Context(), limit)
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

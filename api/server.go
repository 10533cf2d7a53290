package api

import (
	"github.com/gin-gonic/gin"

	"newssum/analysis"
	"newssum/cache"
	"newssum/fetcher"
	"newssum/storage"
	"newssum/telemetry"
)

// RouterDeps carries everything the HTTP surface exposes.
type RouterDeps struct {
	Pipeline      *analysis.Pipeline
	History       *storage.SQLite
	Cache         cache.Store
	Gate          *fetcher.Gate
	Metrics       *telemetry.Metrics
	AllowlistPath string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterAnalyzeRoutes(r, deps.Pipeline)
	RegisterArticlesRoutes(r, deps.History)
	RegisterOpsRoutes(r, deps)
	RegisterHealthRoutes(r)
	return r
}

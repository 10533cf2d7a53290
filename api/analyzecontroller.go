package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newssum/analysis"
	"newssum/types"
)

// RegisterAnalyzeRoutes registers the analysis endpoints.
func RegisterAnalyzeRoutes(r *gin.Engine, pipeline *analysis.Pipeline) {
	g := r.Group("/api")
	g.POST("/analyze", handleAnalyze(pipeline))
	g.POST("/feedback", handleFeedback)
}

// handleAnalyze runs the full pipeline for one request.
func handleAnalyze(pipeline *analysis.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "message": err.Error()})
			return
		}

		result, err := pipeline.Analyze(c.Request.Context(), req)
		if err != nil {
			var re *analysis.RequestError
			if errors.As(err, &re) {
				c.JSON(re.Status, gin.H{"code": re.Code})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// handleFeedback acknowledges reader feedback. Stored once a feedback
// table lands; acknowledged unconditionally until then.
func handleFeedback(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

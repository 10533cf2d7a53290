package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newssum/storage"
)

// RegisterArticlesRoutes registers the analysis-history endpoints.
func RegisterArticlesRoutes(r *gin.Engine, history *storage.SQLite) {
	g := r.Group("/api/articles")
	g.GET("", handleListArticles(history))
}

// ListArticlesResponse wraps the history listing.
type ListArticlesResponse struct {
	Count    int                      `json:"count"`
	Articles []storage.StoredAnalysis `json:"articles"`
}

func handleListArticles(history *storage.SQLite) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": "storage_unavailable"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		rows, err := history.ListRecent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "storage_error", "message": err.Error()})
			return
		}
		if rows == nil {
			rows = []storage.StoredAnalysis{}
		}

		c.JSON(http.StatusOK, ListArticlesResponse{Count: len(rows), Articles: rows})
	}
}

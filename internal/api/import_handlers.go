package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/service"
	"github.com/rarefindshq/rarefinds-server/internal/tmdb"
)

// ImportSearchHandler 多类型搜索，按 TMDB 返回顺序透传候选
func ImportSearchHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	client := service.NewTMDBClientFromSettings()
	results, err := client.SearchMulti(query)
	if err != nil {
		if errors.Is(err, tmdb.ErrMissingAPIKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "TMDB API key not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

type SyncRequest struct {
	ID        int    `json:"id" binding:"required"`
	MediaType string `json:"media_type" binding:"required"`
	Title     string `json:"title"`
	Name      string `json:"name"`
}

// ImportSyncHandler 同步一条选中的候选
// 同一时刻只允许一个同步在跑；结果折成一句话给前端横幅，结构化报告附在旁边
func ImportSyncHandler(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cand := tmdb.Candidate{
		ID:        req.ID,
		MediaType: req.MediaType,
		Title:     req.Title,
		Name:      req.Name,
	}

	if !service.BeginSync(cand.DisplayName()) {
		c.JSON(http.StatusConflict, gin.H{"error": "A sync is already running"})
		return
	}

	svc := service.NewSyncService(service.NewTMDBClientFromSettings())
	report := svc.SyncCandidate(cand)

	c.JSON(http.StatusOK, gin.H{
		"message": report.Summary(),
		"ok":      report.OK(),
		"report":  report,
	})
}

// SyncStatusHandler 前端轮询同步横幅状态用
func SyncStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, service.CurrentSyncStatus())
}

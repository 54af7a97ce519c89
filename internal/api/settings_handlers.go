package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/service"
)

// GetSettingsHandler 返回运营配置；API key 只回是否已配置，不回明文
func GetSettingsHandler(c *gin.Context) {
	settings := service.FetchSettings()

	c.JSON(http.StatusOK, gin.H{
		"tmdb_key_set": settings[model.ConfigKeyTMDBAPIKey] != "",
		"proxy_url":    settings[model.ConfigKeyProxyURL],
	})
}

type UpdateSettingsRequest struct {
	TMDBAPIKey string `json:"tmdb_api_key"`
	ProxyURL   string `json:"proxy_url"`
}

func UpdateSettingsHandler(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.TMDBAPIKey != "" {
		if err := service.SaveSetting(model.ConfigKeyTMDBAPIKey, req.TMDBAPIKey); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
			return
		}
	}
	if err := service.SaveSetting(model.ConfigKeyProxyURL, req.ProxyURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}

package service

import (
	"log"

	"github.com/rarefindshq/rarefinds-server/internal/config"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/tmdb"
	"gorm.io/gorm/clause"
)

// FetchSettings 一次取整张 GlobalConfig，避免连续 First 的 scope 污染
func FetchSettings() map[string]string {
	var configs []model.GlobalConfig
	if err := db.DB.Find(&configs).Error; err != nil {
		log.Printf("Error fetching configs: %v", err)
		return map[string]string{}
	}

	cfgMap := make(map[string]string, len(configs))
	for _, c := range configs {
		cfgMap[c.Key] = c.Value
	}
	return cfgMap
}

// SaveSetting 写一条运营配置
func SaveSetting(key, value string) error {
	return db.DB.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model.GlobalConfig{Key: key, Value: value}).Error
}

// NewTMDBClientFromSettings 构造 TMDB 客户端
// DB 里的运营配置优先，没有则退回启动配置；key 为空时客户端方法自己会短路
func NewTMDBClientFromSettings() *tmdb.Client {
	settings := FetchSettings()

	apiKey := settings[model.ConfigKeyTMDBAPIKey]
	if apiKey == "" && config.AppConfig != nil {
		apiKey = config.AppConfig.TMDB.APIKey
	}
	proxyURL := settings[model.ConfigKeyProxyURL]
	if proxyURL == "" && config.AppConfig != nil {
		proxyURL = config.AppConfig.TMDB.ProxyURL
	}

	return tmdb.NewClient(apiKey, proxyURL)
}

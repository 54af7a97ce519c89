package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	Mode          string `mapstructure:"mode"` // debug or release
	SessionSecret string `mapstructure:"session_secret"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TMDBConfig 启动时的 API 配置，DB 里的 GlobalConfig 可以在运行期覆盖
type TMDBConfig struct {
	APIKey   string `mapstructure:"api_key"`
	ProxyURL string `mapstructure:"proxy_url"`
}

// RefreshConfig 控制后台定时重新同步 (0 = 关闭)
type RefreshConfig struct {
	IntervalHours int `mapstructure:"interval_hours"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var AppConfig *Config

func LoadConfig(configPath string) error {
	v := viper.New()

	// 默认值
	v.SetDefault("server.port", 8311)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_secret", "rarefinds-dev-secret")
	v.SetDefault("database.path", "data/catalog.db")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.proxy_url", "")
	v.SetDefault("refresh.interval_hours", 0)
	v.SetDefault("log.level", "info")

	// 配置文件路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	// 环境变量替换 (使用 RAREFINDS_ 前缀)
	// 比如 RAREFINDS_TMDB_API_KEY=xxx
	v.SetEnvPrefix("RAREFINDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, use defaults
		fmt.Println("Config file not found, using defaults")
	}

	AppConfig = &Config{}
	if err := v.Unmarshal(AppConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

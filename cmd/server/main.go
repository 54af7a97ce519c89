package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/api"
	"github.com/rarefindshq/rarefinds-server/internal/config"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/scheduler"
	"github.com/rarefindshq/rarefinds-server/internal/worker"
)

func main() {
	// 1. Load Config
	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Gin Mode
	gin.SetMode(config.AppConfig.Server.Mode)

	// 转换为绝对路径日志一下
	absPath, _ := filepath.Abs(config.AppConfig.Database.Path)
	log.Printf("Initializing database at: %s", absPath)

	db.InitDB(config.AppConfig.Database.Path)

	r := gin.Default()

	// 初始化路由
	api.InitRoutes(r)

	// Start sync worker (keeps the Recently Synced shelf fresh)
	worker.StartSyncWorker()

	// Start Scheduler
	sch := scheduler.NewManager()
	sch.Start()
	defer sch.Stop()

	port := fmt.Sprintf("%d", config.AppConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

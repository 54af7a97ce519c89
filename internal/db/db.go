package db

import (
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(storagePath string) {
	var err error

	// 确保存储目录存在 (":memory:" 的 Dir 是 "."，MkdirAll 直接通过)
	dir := filepath.Dir(storagePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create storage directory: %v", err)
	}

	DB, err = gorm.Open(sqlite.Open(storagePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// 自动迁移模式
	err = DB.AutoMigrate(
		&model.Title{},
		&model.Genre{},
		&model.TitleGenre{},
		&model.Person{},
		&model.CastMember{},
		&model.HomeSection{},
		&model.HomeSectionItem{},
		&model.User{},
		&model.GlobalConfig{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
}

func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

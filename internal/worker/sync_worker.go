package worker

import (
	"log"

	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/event"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/service"
)

const recentSectionTitle = "Recently Synced"

// recentSectionSize 首页 "Recently Synced" 栏目保留的条数
const recentSectionSize = 12

// StartSyncWorker 订阅同步完成事件，维护首页的 "Recently Synced" 栏目
func StartSyncWorker() {
	event.GlobalBus.Subscribe(event.EventSyncCompleted, func(e event.Event) {
		report, ok := e.Payload.(*service.SyncReport)
		if !ok {
			return
		}
		// 人物同步没有 TitleID，不进首页栏目
		if report.TitleID == 0 {
			return
		}

		log.Printf("Worker: refreshing %q section for title %d", recentSectionTitle, report.TitleID)
		if err := refreshRecentSection(report.TitleID); err != nil {
			log.Printf("Worker: failed to refresh section: %v", err)
		}
	})
}

func refreshRecentSection(titleID uint) error {
	var section model.HomeSection
	err := db.DB.Where("title = ?", recentSectionTitle).First(&section).Error
	if err != nil {
		section = model.HomeSection{Title: recentSectionTitle, Order: 0}
		if err := db.DB.Create(&section).Error; err != nil {
			return err
		}
	}

	// 同一个 title 重新同步时先摘掉旧条目，再顶到最前面
	if err := db.DB.Unscoped().
		Where("section_id = ? AND title_id = ?", section.ID, titleID).
		Delete(&model.HomeSectionItem{}).Error; err != nil {
		return err
	}

	var minOrder struct{ Min int }
	db.DB.Model(&model.HomeSectionItem{}).
		Select("COALESCE(MIN(`order`), 0) as min").
		Where("section_id = ?", section.ID).
		Scan(&minOrder)

	item := model.HomeSectionItem{
		SectionID: section.ID,
		TitleID:   titleID,
		Order:     minOrder.Min - 1,
	}
	if err := db.DB.Create(&item).Error; err != nil {
		return err
	}

	// 超出栏目容量的老条目清掉
	var stale []model.HomeSectionItem
	db.DB.Where("section_id = ?", section.ID).
		Order("`order` asc").
		Offset(recentSectionSize).
		Find(&stale)
	for _, s := range stale {
		db.DB.Unscoped().Delete(&model.HomeSectionItem{}, s.ID)
	}
	return nil
}

package scheduler

import (
	"log"
	"time"

	"github.com/rarefindshq/rarefinds-server/internal/config"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/service"
	"github.com/rarefindshq/rarefinds-server/internal/tmdb"
)

// Manager 定时把带 external_id 的 Title 重新同步一遍，保持元数据新鲜
// 间隔来自 refresh.interval_hours，0 表示关闭
type Manager struct {
	interval time.Duration
	ticker   *time.Ticker
	quit     chan struct{}
}

func NewManager() *Manager {
	hours := 0
	if config.AppConfig != nil {
		hours = config.AppConfig.Refresh.IntervalHours
	}
	return &Manager{
		interval: time.Duration(hours) * time.Hour,
		quit:     make(chan struct{}),
	}
}

func (m *Manager) Start() {
	if m.interval <= 0 {
		log.Println("Scheduler: refresh disabled (refresh.interval_hours = 0)")
		return
	}

	log.Printf("Scheduler started (every %s)...", m.interval)
	m.ticker = time.NewTicker(m.interval)
	go func() {
		for {
			select {
			case <-m.ticker.C:
				m.RefreshCatalog()
			case <-m.quit:
				m.ticker.Stop()
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.quit)
	log.Println("Scheduler stopped.")
}

// RefreshCatalog 逐个重新同步已发布且记了 TMDB id 的 Title
// 有人工同步在跑时直接跳过本轮，绝不并发写库
func (m *Manager) RefreshCatalog() {
	var titles []model.Title
	err := db.DB.Where("external_id != 0 AND published = ?", true).Find(&titles).Error
	if err != nil {
		log.Printf("Scheduler Error: failed to fetch titles: %v", err)
		return
	}
	if len(titles) == 0 {
		return
	}

	log.Printf("Scheduler: refreshing %d titles...", len(titles))
	svc := service.NewSyncService(service.NewTMDBClientFromSettings())

	for _, t := range titles {
		if !service.BeginSync(t.Name) {
			log.Println("Scheduler: a sync is already running, skipping this round")
			return
		}

		mediaType := "movie"
		if t.Kind == model.KindSeries {
			mediaType = "tv"
		}
		report := svc.SyncCandidate(tmdb.Candidate{
			ID:        t.ExternalID,
			MediaType: mediaType,
			Title:     t.Name,
		})
		if !report.OK() {
			log.Printf("Scheduler: refresh of %q failed: %s", t.Name, report.Summary())
		}
	}
}

package service

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/event"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/tmdb"
	"gorm.io/gorm/clause"
)

// SyncStage 标记一次同步失败发生在哪一步
type SyncStage string

const (
	StageFetch  SyncStage = "fetch"
	StageTitle  SyncStage = "title upsert"
	StagePerson SyncStage = "person upsert"
	StageGenres SyncStage = "genre link"
	StageCast   SyncStage = "cast link"
)

// ItemError 单条 genre/cast 关联的失败，不会中断其余条目
type ItemError struct {
	Stage SyncStage `json:"stage"`
	Name  string    `json:"name"`
	Err   string    `json:"error"`
}

// SyncReport 一次 SyncCandidate 的完整结果
// Err 非空表示整体失败 (Stage 指明哪一步)；ItemErrors 是逐条收集的局部失败
type SyncReport struct {
	Entity       string      `json:"entity"`
	Kind         string      `json:"kind"`
	TitleID      uint        `json:"title_id,omitempty"`
	Stage        SyncStage   `json:"stage,omitempty"`
	Err          string      `json:"error,omitempty"`
	GenresLinked int         `json:"genres_linked"`
	CastLinked   int         `json:"cast_linked"`
	ItemErrors   []ItemError `json:"item_errors,omitempty"`
}

func (r *SyncReport) OK() bool {
	return r.Err == ""
}

// Summary 给前端横幅用的一句话
func (r *SyncReport) Summary() string {
	if !r.OK() {
		return fmt.Sprintf("Sync failed at %s: %s", r.Stage, r.Err)
	}
	if len(r.ItemErrors) > 0 {
		return fmt.Sprintf("Success: %s synced (%d item(s) skipped).", r.Entity, len(r.ItemErrors))
	}
	return fmt.Sprintf("Sync complete: %s", r.Entity)
}

// SyncStatus 当前同步状态，后台 UI 轮询用；同一时刻只允许一个同步在跑
type SyncStatus struct {
	IsRunning  bool   `json:"is_running"`
	Current    string `json:"current"`
	LastResult string `json:"last_result"`
}

var (
	statusMu         sync.Mutex
	globalSyncStatus SyncStatus
)

// BeginSync 尝试占住同步槽位，已有同步在跑时返回 false
func BeginSync(name string) bool {
	statusMu.Lock()
	defer statusMu.Unlock()
	if globalSyncStatus.IsRunning {
		return false
	}
	globalSyncStatus.IsRunning = true
	globalSyncStatus.Current = name
	return true
}

func endSync(result string) {
	statusMu.Lock()
	defer statusMu.Unlock()
	globalSyncStatus.IsRunning = false
	globalSyncStatus.Current = ""
	globalSyncStatus.LastResult = result
}

func CurrentSyncStatus() SyncStatus {
	statusMu.Lock()
	defer statusMu.Unlock()
	return globalSyncStatus
}

// SyncService 把选中的搜索候选拉全量详情并合并进本地库
// 每次调用严格串行：fetch → 主实体 upsert → genre/cast 关联；主实体失败则不碰关联表
type SyncService struct {
	client   *tmdb.Client
	resolver *Resolver
}

func NewSyncService(client *tmdb.Client) *SyncService {
	return &SyncService{
		client:   client,
		resolver: NewResolver(),
	}
}

// SyncCandidate 同步一条搜索候选，错误全部折进报告，不向上抛
func (s *SyncService) SyncCandidate(cand tmdb.Candidate) *SyncReport {
	name := NormalizeName(cand.DisplayName())
	log.Printf("Sync: starting %s %q (tmdb id %d)", cand.MediaType, name, cand.ID)

	var report *SyncReport
	switch cand.MediaType {
	case "person":
		report = s.syncPerson(cand)
	case "movie", "tv":
		report = s.syncTitle(cand)
	default:
		report = &SyncReport{
			Entity: name,
			Stage:  StageFetch,
			Err:    fmt.Sprintf("unsupported media type %q", cand.MediaType),
		}
	}

	if report.OK() {
		log.Printf("Sync: %s", report.Summary())
		event.GlobalBus.Publish(event.EventSyncCompleted, report)
	} else {
		log.Printf("Sync: %s", report.Summary())
		event.GlobalBus.Publish(event.EventSyncFailed, report)
	}
	endSync(report.Summary())
	return report
}

// syncPerson 人物短路径：详情 → 按名字 upsert 一行 Person，结束
func (s *SyncService) syncPerson(cand tmdb.Candidate) *SyncReport {
	report := &SyncReport{Entity: NormalizeName(cand.DisplayName()), Kind: "person"}

	detail, err := s.client.GetPersonDetails(cand.ID)
	if err != nil {
		report.Stage = StageFetch
		report.Err = err.Error()
		return report
	}

	person := model.Person{
		Name:      NormalizeName(detail.Name),
		Biography: detail.Biography,
		Avatar:    detail.ProfilePath,
	}
	report.Entity = person.Name

	err = db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"biography", "avatar", "updated_at"}),
	}).Create(&person).Error
	if err != nil {
		report.Stage = StagePerson
		report.Err = err.Error()
	}
	return report
}

// syncTitle 长路径：详情(含 credits) → Title upsert → genre 关联 → cast 关联
func (s *SyncService) syncTitle(cand tmdb.Candidate) *SyncReport {
	kind := model.KindMovie
	fetch := s.client.GetMovieDetails
	if cand.MediaType == "tv" {
		kind = model.KindSeries
		fetch = s.client.GetTVDetails
	}
	report := &SyncReport{Entity: NormalizeName(cand.DisplayName()), Kind: kind}

	detail, err := fetch(cand.ID)
	if err != nil {
		report.Stage = StageFetch
		report.Err = err.Error()
		return report
	}

	title, err := s.upsertTitle(detail, kind)
	if err != nil {
		// 主实体没落库就不能写任何关联行
		report.Stage = StageTitle
		report.Err = err.Error()
		return report
	}
	report.Entity = title.Name
	report.TitleID = title.ID

	report.GenresLinked = s.linkGenres(title.ID, detail.Genres, report)
	report.CastLinked = s.linkCast(title.ID, detail.Credits.Cast, report)
	return report
}

// upsertTitle 按自然主键 (title 名) 做全量覆盖式 upsert，返回带 ID 的行
func (s *SyncService) upsertTitle(detail *tmdb.TitleDetail, kind string) (*model.Title, error) {
	title := model.Title{
		Name:       NormalizeName(detail.DisplayName()),
		Year:       tmdb.ReleaseYear(detail.Date()),
		Kind:       kind,
		Poster:     detail.PosterPath,
		Overview:   detail.Overview,
		Published:  true,
		ExternalID: detail.ID,
	}
	if title.Name == "" {
		return nil, errors.New("detail record has no display name")
	}

	err := db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"year", "type", "poster", "overview", "published", "external_id", "updated_at",
		}),
	}).Create(&title).Error
	if err != nil {
		return nil, err
	}

	// 冲突分支下 gorm 不回填 ID，回读一次；后续关联都依赖这个 ID
	var stored model.Title
	if err := db.DB.Where("title = ?", title.Name).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("read back title %q: %w", title.Name, err)
	}
	return &stored, nil
}

// linkGenres 逐条 resolve-or-create 再落关联行；单条失败收进报告，继续跑剩下的
func (s *SyncService) linkGenres(titleID uint, genres []tmdb.GenreRef, report *SyncReport) int {
	linked := 0
	for _, g := range genres {
		genre, err := s.resolver.ResolveGenre(g.Name)
		if err != nil {
			report.ItemErrors = append(report.ItemErrors, ItemError{Stage: StageGenres, Name: g.Name, Err: err.Error()})
			continue
		}

		link := model.TitleGenre{TitleID: titleID, GenreID: genre.ID}
		if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			report.ItemErrors = append(report.ItemErrors, ItemError{Stage: StageGenres, Name: g.Name, Err: err.Error()})
			continue
		}
		linked++
	}
	return linked
}

// linkCast 取前 12 条 cast，按出场顺序写 Position；同步过后把本次不在列表里的旧关联清掉
func (s *SyncService) linkCast(titleID uint, cast []tmdb.CastCredit, report *SyncReport) int {
	if len(cast) > model.MaxCastPerTitle {
		cast = cast[:model.MaxCastPerTitle]
	}

	linked := 0
	kept := make([]uint, 0, len(cast))
	for i, c := range cast {
		person, err := s.resolver.ResolvePerson(c.Name, c.ProfilePath)
		if err != nil {
			report.ItemErrors = append(report.ItemErrors, ItemError{Stage: StageCast, Name: c.Name, Err: err.Error()})
			continue
		}

		link := model.CastMember{
			TitleID:  titleID,
			PersonID: person.ID,
			Role:     c.Character,
			Position: i,
		}
		err = db.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title_id"}, {Name: "person_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "position", "updated_at"}),
		}).Create(&link).Error
		if err != nil {
			report.ItemErrors = append(report.ItemErrors, ItemError{Stage: StageCast, Name: c.Name, Err: err.Error()})
			continue
		}
		kept = append(kept, person.ID)
		linked++
	}

	// 清掉掉出榜单的旧 cast 关联，避免留孤儿行
	prune := db.DB.Where("title_id = ?", titleID)
	if len(kept) > 0 {
		prune = prune.Where("person_id NOT IN ?", kept)
	}
	if err := prune.Unscoped().Delete(&model.CastMember{}).Error; err != nil {
		report.ItemErrors = append(report.ItemErrors, ItemError{Stage: StageCast, Name: "(prune)", Err: err.Error()})
	}
	return linked
}

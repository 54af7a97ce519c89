package model

import (
	"gorm.io/gorm"
)

// Title 代表片库里的一条影视记录 (movie 或 series)
// Name 是自然主键：NOCASE 唯一索引，重复同步走 upsert 覆盖而不是再插一行
type Title struct {
	gorm.Model
	Name       string `json:"title" gorm:"column:title;type:TEXT COLLATE NOCASE;uniqueIndex"`
	Year       int    `json:"year"`
	Kind       string `json:"type" gorm:"column:type"` // "movie" or "series"
	Poster     string `json:"poster"`                  // 绝对 URL，图床前缀已拼好
	Overview   string `json:"overview"`
	Published  bool   `json:"published"`
	ExternalID int    `json:"external_id" gorm:"index"` // TMDB id，重新同步时用

	Genres []Genre      `json:"genres,omitempty" gorm:"-"` // 通过 title_genres 手工联查
	Cast   []CastMember `json:"cast,omitempty"`
}

// Person 演职人员，跨 Title 复用，同名只存一行
type Person struct {
	gorm.Model
	Name      string `json:"name" gorm:"type:TEXT COLLATE NOCASE;uniqueIndex"`
	Biography string `json:"biography"`
	Avatar    string `json:"avatar"`
}

// Genre 按名字惰性创建
type Genre struct {
	gorm.Model
	Name string `json:"name" gorm:"type:TEXT COLLATE NOCASE;uniqueIndex"`
}

// TitleGenre 是 title <-> genre 的关联行，(title_id, genre_id) 作联合主键
// 显式建模是为了能走 OnConflict DoNothing 的幂等插入
type TitleGenre struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}

// CastMember 关联 Title 和 Person，(title_id, person_id) 唯一
// Position 记录当次同步里该演员在 cast 列表中的位置 (0-based，截断到 12 条)
type CastMember struct {
	gorm.Model
	TitleID  uint   `json:"title_id" gorm:"uniqueIndex:idx_cast_title_person"`
	PersonID uint   `json:"person_id" gorm:"uniqueIndex:idx_cast_title_person"`
	Role     string `json:"role"`
	Position int    `json:"position"`

	Person *Person `json:"person,omitempty"`
}

// HomeSection 首页栏目 (如 "Recently Synced")
type HomeSection struct {
	gorm.Model
	Title string            `json:"title"`
	Order int               `json:"order"`
	Items []HomeSectionItem `json:"items,omitempty" gorm:"foreignKey:SectionID"`
}

type HomeSectionItem struct {
	gorm.Model
	SectionID uint `json:"section_id" gorm:"index"`
	TitleID   uint `json:"title_id"`
	Order     int  `json:"order"`
}

// User 后台登录用户
type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	Memo         string `json:"-"`
}

// GlobalConfig 存储运营侧配置 (TMDB key 等)，放 DB 里方便后台改
type GlobalConfig struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

const (
	ConfigKeyTMDBAPIKey = "tmdb_api_key"
	ConfigKeyProxyURL   = "proxy_url"
)

const (
	KindMovie  = "movie"
	KindSeries = "series"
)

// MaxCastPerTitle 每个 Title 最多保留的 cast 关联数
const MaxCastPerTitle = 12

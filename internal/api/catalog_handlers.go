package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"gorm.io/gorm"
)

// ListTitlesHandler 浏览列表，最新入库的在前；kind / q 都是可选过滤
func ListTitlesHandler(c *gin.Context) {
	query := db.DB.Model(&model.Title{}).Order("created_at desc")

	if kind := c.Query("kind"); kind == model.KindMovie || kind == model.KindSeries {
		query = query.Where("type = ?", kind)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("title LIKE ?", "%"+q+"%")
	}

	var titles []model.Title
	if err := query.Find(&titles).Error; err != nil {
		log.Printf("Error fetching titles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch titles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

func GetTitleHandler(c *gin.Context) {
	id := c.Param("id")

	var title model.Title
	err := db.DB.
		Preload("Cast", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc")
		}).
		Preload("Cast.Person").
		First(&title, id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "title not found"})
		return
	}

	// genres 走显式关联表联查
	if err := db.DB.
		Joins("JOIN title_genres ON title_genres.genre_id = genres.id").
		Where("title_genres.title_id = ?", title.ID).
		Order("genres.name asc").
		Find(&title.Genres).Error; err != nil {
		log.Printf("Error fetching genres for title %d: %v", title.ID, err)
	}

	c.JSON(http.StatusOK, title)
}

func GetPersonHandler(c *gin.Context) {
	id := c.Param("id")

	var person model.Person
	if err := db.DB.First(&person, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	// 该演员出演过的 Title 列表
	type credit struct {
		TitleID uint   `json:"title_id"`
		Title   string `json:"title"`
		Poster  string `json:"poster"`
		Role    string `json:"role"`
	}
	var credits []credit
	err := db.DB.Model(&model.CastMember{}).
		Select("cast_members.title_id, titles.title, titles.poster, cast_members.role").
		Joins("JOIN titles ON titles.id = cast_members.title_id").
		Where("cast_members.person_id = ?", person.ID).
		Order("titles.created_at desc").
		Scan(&credits).Error
	if err != nil {
		log.Printf("Error fetching credits for person %d: %v", person.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"person": person, "credits": credits})
}

func ListGenresHandler(c *gin.Context) {
	var genres []model.Genre
	if err := db.DB.Order("name asc").Find(&genres).Error; err != nil {
		log.Printf("Error fetching genres: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch genres"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

// HomeHandler 首页栏目，条目按 order 展开成完整 Title
func HomeHandler(c *gin.Context) {
	var sections []model.HomeSection
	err := db.DB.Order("`order` asc").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("`order` asc")
		}).
		Find(&sections).Error
	if err != nil {
		log.Printf("Error fetching sections: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sections"})
		return
	}

	type sectionView struct {
		ID     uint          `json:"id"`
		Title  string        `json:"title"`
		Titles []model.Title `json:"titles"`
	}

	out := make([]sectionView, 0, len(sections))
	for _, s := range sections {
		view := sectionView{ID: s.ID, Title: s.Title}
		for _, item := range s.Items {
			var t model.Title
			if err := db.DB.First(&t, item.TitleID).Error; err != nil {
				continue // 条目指向的 Title 被后台删了，跳过
			}
			view.Titles = append(view.Titles, t)
		}
		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{"sections": out})
}

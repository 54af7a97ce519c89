package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/db"
	"github.com/rarefindshq/rarefinds-server/internal/model"
	"github.com/rarefindshq/rarefinds-server/internal/service"
)

// CreateTitleRequest 后台手工建档，和导入走同一套自然主键约束
type CreateTitleRequest struct {
	Title    string `json:"title" binding:"required"`
	Year     int    `json:"year"`
	Kind     string `json:"type"`
	Poster   string `json:"poster"`
	Overview string `json:"overview"`
}

func CreateTitleHandler(c *gin.Context) {
	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Kind != model.KindSeries {
		req.Kind = model.KindMovie
	}

	title := model.Title{
		Name:     service.NormalizeName(req.Title),
		Year:     req.Year,
		Kind:     req.Kind,
		Poster:   req.Poster,
		Overview: req.Overview,
	}
	if err := db.DB.Create(&title).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "failed to create title: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, title)
}

func DeleteTitleHandler(c *gin.Context) {
	id := c.Param("id")

	var title model.Title
	if err := db.DB.First(&title, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "title not found"})
		return
	}

	// 关联行一起清，避免孤儿
	db.DB.Where("title_id = ?", title.ID).Delete(&model.TitleGenre{})
	db.DB.Unscoped().Where("title_id = ?", title.ID).Delete(&model.CastMember{})
	db.DB.Unscoped().Where("title_id = ?", title.ID).Delete(&model.HomeSectionItem{})
	db.DB.Unscoped().Delete(&title)

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type CreateGenreRequest struct {
	Name string `json:"name" binding:"required"`
}

func CreateGenreHandler(c *gin.Context) {
	var req CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	genre, err := service.NewResolver().ResolveGenre(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, genre)
}

func DeleteGenreHandler(c *gin.Context) {
	id := c.Param("id")
	db.DB.Where("genre_id = ?", id).Delete(&model.TitleGenre{})
	db.DB.Unscoped().Delete(&model.Genre{}, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// === Home Sections ===

func ListSectionsHandler(c *gin.Context) {
	var sections []model.HomeSection
	if err := db.DB.Order("`order` asc").Preload("Items").Find(&sections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

type CreateSectionRequest struct {
	Title string `json:"title" binding:"required"`
	Order int    `json:"order"`
}

func CreateSectionHandler(c *gin.Context) {
	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	section := model.HomeSection{Title: req.Title, Order: req.Order}
	if err := db.DB.Create(&section).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create section"})
		return
	}
	c.JSON(http.StatusCreated, section)
}

func DeleteSectionHandler(c *gin.Context) {
	id := c.Param("id")
	db.DB.Unscoped().Where("section_id = ?", id).Delete(&model.HomeSectionItem{})
	db.DB.Unscoped().Delete(&model.HomeSection{}, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type AddSectionItemRequest struct {
	TitleID uint `json:"title_id" binding:"required"`
	Order   int  `json:"order"`
}

func AddSectionItemHandler(c *gin.Context) {
	var req AddSectionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var section model.HomeSection
	if err := db.DB.First(&section, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
		return
	}
	var title model.Title
	if err := db.DB.First(&title, req.TitleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "title not found"})
		return
	}

	item := model.HomeSectionItem{SectionID: section.ID, TitleID: title.ID, Order: req.Order}
	if err := db.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add item"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func RemoveSectionItemHandler(c *gin.Context) {
	db.DB.Unscoped().
		Where("section_id = ? AND id = ?", c.Param("id"), c.Param("itemId")).
		Delete(&model.HomeSectionItem{})
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

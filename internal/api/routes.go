package api

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rarefindshq/rarefinds-server/internal/config"
	"github.com/rarefindshq/rarefinds-server/internal/service"
)

func InitRoutes(r *gin.Engine) {
	// 没有用户时建一个默认管理员，避免首次部署锁死
	service.NewAuthService().EnsureDefaultUser()

	secret := "rarefinds-dev-secret"
	if config.AppConfig != nil && config.AppConfig.Server.SessionSecret != "" {
		secret = config.AppConfig.Server.SessionSecret
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("rarefinds_session", store))

	// 公共浏览接口：展示层只读，不做任何 reconciliation
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/titles", ListTitlesHandler)
		apiGroup.GET("/titles/:id", GetTitleHandler)
		apiGroup.GET("/people/:id", GetPersonHandler)
		apiGroup.GET("/genres", ListGenresHandler)
		apiGroup.GET("/home", HomeHandler)

		apiGroup.POST("/login", LoginHandler)
		apiGroup.POST("/logout", LogoutHandler)
	}

	// 后台接口：登录后才能碰
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(AuthMiddleware())
	{
		adminGroup.POST("/password", ChangePasswordHandler)

		// Titles / Genres CRUD
		adminGroup.POST("/titles", CreateTitleHandler)
		adminGroup.DELETE("/titles/:id", DeleteTitleHandler)
		adminGroup.POST("/genres", CreateGenreHandler)
		adminGroup.DELETE("/genres/:id", DeleteGenreHandler)

		// Home Sections
		adminGroup.GET("/sections", ListSectionsHandler)
		adminGroup.POST("/sections", CreateSectionHandler)
		adminGroup.DELETE("/sections/:id", DeleteSectionHandler)
		adminGroup.POST("/sections/:id/items", AddSectionItemHandler)
		adminGroup.DELETE("/sections/:id/items/:itemId", RemoveSectionItemHandler)

		// Import (TMDB)
		adminGroup.GET("/import/search", ImportSearchHandler)
		adminGroup.POST("/import/sync", ImportSyncHandler)
		adminGroup.GET("/import/status", SyncStatusHandler)

		// Settings
		adminGroup.GET("/settings", GetSettingsHandler)
		adminGroup.POST("/settings", UpdateSettingsHandler)
	}
}

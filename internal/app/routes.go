package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zovida/core/internal/modules/analysis"
	"github.com/zovida/core/internal/modules/family"
	"github.com/zovida/core/internal/modules/history"
	"github.com/zovida/core/internal/modules/reminder"
	"github.com/zovida/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "zovida-core",
		"version": "1.0.0",
	}

	api := r.Group("/api/v1")

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	historyStore := history.NewStore(a.rc, a.logger)
	oracle := analysis.NewProviderOracle(a.cfg.AI, a.logger)
	session := analysis.NewSession(oracle, historyStore, a.logger, nil)
	reminderStore := reminder.NewStore(a.rc, a.logger)
	familyStore := family.NewStore(a.rc, a.logger)

	analysis.NewHandler(session).RegisterRoutes(api)
	history.NewHandler(historyStore, nil).RegisterRoutes(api)
	reminder.NewHandler(reminderStore, session).RegisterRoutes(api)
	family.NewHandler(familyStore).RegisterRoutes(api)
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
	"github.com/comitanigiacomo/kanso-habit-store/internal/metrics"
)

type RouterDependencies struct {
	HabitHandler  *HabitHandler
	WidgetHandler *WidgetHandler
	StatsHandler  *StatsHandler
	EventsHandler *EventsHandler
	Store         *store.HabitStore
	Metrics       *metrics.Metrics
	StartTime     time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		storageStatus := "reachable"
		statusCode := 200
		if _, err := deps.Store.LoadForWrite(c.Request.Context()); err != nil {
			storageStatus = "unreachable"
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":      "ok",
			"backend":     deps.Store.Backend().Name(),
			"storage":     storageStatus,
			"subscribers": deps.Store.Subscribers(),
			"storage_key": domain.StorageKey,
			"uptime":      time.Since(deps.StartTime).String(),
		})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	apiV1 := router.Group("/api/v1")

	deps.HabitHandler.RegisterRoutes(apiV1)
	deps.WidgetHandler.RegisterRoutes(apiV1)
	deps.StatsHandler.RegisterRoutes(apiV1)
	deps.EventsHandler.RegisterRoutes(apiV1)

	return router
}

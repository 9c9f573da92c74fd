package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
)

type StatsHandler struct {
	svc    *services.StatsService
	habits *services.HabitService
}

func NewStatsHandler(svc *services.StatsService, habits *services.HabitService) *StatsHandler {
	return &StatsHandler{svc: svc, habits: habits}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/weekly", h.GetWeeklyStats)
	r.GET("/export", h.Export)
}

func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	input := domain.StatsInput{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	stats, err := h.svc.GetWeeklyStats(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export answers one row per recorded day and habit.
func (h *StatsHandler) Export(c *gin.Context) {
	doc := h.habits.Store().Load(c.Request.Context())
	c.JSON(http.StatusOK, services.Flatten(doc))
}

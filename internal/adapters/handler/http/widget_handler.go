package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/widgets"
)

type WidgetHandler struct {
	svc *services.HabitService
}

func NewWidgetHandler(svc *services.HabitService) *WidgetHandler {
	return &WidgetHandler{svc: svc}
}

type assignSlotRequest struct {
	HabitID string `json:"habit_id" binding:"required"`
}

func (h *WidgetHandler) RegisterRoutes(r *gin.RouterGroup) {
	w := r.Group("/widgets")
	{
		w.GET("", h.List)
		w.PUT("/:type/:order", h.Assign)
		w.DELETE("/:type/:order", h.Vacate)
	}
}

func (h *WidgetHandler) index(c *gin.Context) *widgets.Index {
	return widgets.Build(h.svc.Store().Load(c.Request.Context()).Habits)
}

func slotFromPath(c *gin.Context) (domain.WidgetSlot, bool) {
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot order must be a number"})
		return domain.WidgetSlot{}, false
	}
	return domain.WidgetSlot{Type: c.Param("type"), Order: order}, true
}

func (h *WidgetHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.index(c).Entries())
}

func (h *WidgetHandler) Assign(c *gin.Context) {
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}

	var req assignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), req.HabitID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := habit.AssignToWidgetSlot(c.Request.Context(), slot); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.index(c).Entries())
}

// Vacate empties the slot for every habit claiming it. Vacating an empty slot
// succeeds.
func (h *WidgetHandler) Vacate(c *gin.Context) {
	slot, ok := slotFromPath(c)
	if !ok {
		return
	}

	if err := h.svc.VacateWidgetSlot(c.Request.Context(), slot); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

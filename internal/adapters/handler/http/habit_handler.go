package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Unit      string   `json:"unit"`
	Goal      *float64 `json:"goal"`
	Color     string   `json:"bgColor"`
	Icon      string   `json:"icon"`
	ListOrder *int     `json:"listOrder"`
}

type incrementRequest struct {
	Delta *float64 `json:"delta" binding:"required"`
	Date  string   `json:"date"`
}

type checkedRequest struct {
	Checked *bool  `json:"checked" binding:"required"`
	Date    string `json:"date"`
}

type valueRequest struct {
	Value *float64 `json:"value" binding:"required"`
	Date  string   `json:"date"`
	Goal  *float64 `json:"goal"`
}

type orderRequest struct {
	ListOrder *int `json:"listOrder" binding:"required"`
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type habitResponse struct {
	ID            string                         `json:"id"`
	Name          string                         `json:"name"`
	Type          domain.HabitKind               `json:"type"`
	Unit          string                         `json:"unit,omitempty"`
	Goal          float64                        `json:"goal"`
	Color         string                         `json:"bgColor"`
	Icon          string                         `json:"icon,omitempty"`
	Quantity      float64                        `json:"quantity"`
	ListOrder     int                            `json:"listOrder"`
	Completion    domain.CompletionState         `json:"completion"`
	CurrentStreak int                            `json:"current_streak"`
	LongestStreak int                            `json:"longest_streak"`
	WidgetSlots   []domain.WidgetSlot            `json:"widget_slots"`
	History       map[string]domain.HistoryEntry `json:"history"`
}

func toHabitResponse(e *services.HabitEntity) habitResponse {
	current, longest := e.Streaks()
	slots := e.WidgetSlots()
	if slots == nil {
		slots = []domain.WidgetSlot{}
	}
	return habitResponse{
		ID:            e.ID(),
		Name:          e.Name(),
		Type:          e.Kind(),
		Unit:          e.Unit(),
		Goal:          e.Goal(),
		Color:         e.Color(),
		Icon:          e.Icon(),
		Quantity:      e.CurrentQuantity(),
		ListOrder:     e.ListOrder(),
		Completion:    e.CompletionToday(),
		CurrentStreak: current,
		LongestStreak: longest,
		WidgetSlots:   slots,
		History:       e.History(),
	}
}

func toHabitResponses(entities []*services.HabitEntity) []habitResponse {
	out := make([]habitResponse, 0, len(entities))
	for _, e := range entities {
		out = append(out, toHabitResponse(e))
	}
	return out
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.PUT("/order", h.ReorderAll)
		habits.GET("/:id", h.Get)
		habits.DELETE("/:id", h.Delete)
		habits.POST("/:id/increment", h.Increment)
		habits.PUT("/:id/checked", h.SetChecked)
		habits.PUT("/:id/value", h.SetValue)
		habits.PUT("/:id/order", h.Reorder)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		ID:        req.ID,
		Name:      req.Name,
		Kind:      domain.HabitKind(req.Type),
		Unit:      req.Unit,
		Goal:      req.Goal,
		Color:     req.Color,
		Icon:      req.Icon,
		ListOrder: req.ListOrder,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toHabitResponse(habit))
}

func (h *HabitHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, toHabitResponses(h.svc.List(c.Request.Context())))
}

func (h *HabitHandler) Get(c *gin.Context) {
	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHabitResponse(habit))
}

func (h *HabitHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// mutate loads the habit named in the path, applies op and answers with the
// updated habit.
func (h *HabitHandler) mutate(c *gin.Context, op func(e *services.HabitEntity) error) {
	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := op(habit); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toHabitResponse(habit))
}

func (h *HabitHandler) dateOrToday(date string) string {
	if date == "" {
		return h.svc.Today()
	}
	return date
}

func (h *HabitHandler) Increment(c *gin.Context) {
	var req incrementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(e *services.HabitEntity) error {
		return e.IncrementOn(c.Request.Context(), *req.Delta, h.dateOrToday(req.Date))
	})
}

func (h *HabitHandler) SetChecked(c *gin.Context) {
	var req checkedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(e *services.HabitEntity) error {
		return e.SetCheckedOn(c.Request.Context(), *req.Checked, h.dateOrToday(req.Date))
	})
}

func (h *HabitHandler) SetValue(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(e *services.HabitEntity) error {
		return e.SetValue(c.Request.Context(), *req.Value, h.dateOrToday(req.Date), req.Goal)
	})
}

func (h *HabitHandler) Reorder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, func(e *services.HabitEntity) error {
		return e.Reorder(c.Request.Context(), *req.ListOrder)
	})
}

func (h *HabitHandler) ReorderAll(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Reorder(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toHabitResponses(h.svc.List(c.Request.Context())))
}

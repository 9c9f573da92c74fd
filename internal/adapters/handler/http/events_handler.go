package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/subscription"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/widgets"
)

type EventsHandler struct {
	svc       *services.HabitService
	lifecycle *subscription.Lifecycle
}

func NewEventsHandler(svc *services.HabitService, lifecycle *subscription.Lifecycle) *EventsHandler {
	return &EventsHandler{svc: svc, lifecycle: lifecycle}
}

type snapshotEvent struct {
	Habits  []habitResponse `json:"habits"`
	Widgets []widgets.Entry `json:"widgets"`
}

func (h *EventsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
	r.POST("/lifecycle/active", h.AppBecameActive)
}

// Stream pushes a full snapshot on connect and after every change, until the
// client goes away. A slow client only ever sees the newest snapshot.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	updates := make(chan *subscription.Snapshot, 1)

	sub := subscription.Subscribe(ctx, h.svc, func(s *subscription.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- s
	})
	defer sub.Close()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", snapshotEvent{
				Habits:  toHabitResponses(snap.Entities),
				Widgets: snap.Widgets.Entries(),
			})
			return true
		}
	})
}

func (h *EventsHandler) AppBecameActive(c *gin.Context) {
	if err := h.lifecycle.AppBecameActive(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

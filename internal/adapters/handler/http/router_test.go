package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habit-store/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-store/internal/adapters/storage"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/store"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/subscription"
	"github.com/comitanigiacomo/kanso-habit-store/internal/metrics"
)

type testEnv struct {
	router  *gin.Engine
	backend *storage.MemoryBackend
	svc     *services.HabitService
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := storage.NewMemoryBackend()
	m := metrics.New()
	st := store.NewHabitStore(backend, nil, m)
	clock := services.FixedClock{At: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	habits := services.NewHabitService(st, clock)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:  adapterHTTP.NewHabitHandler(habits),
		WidgetHandler: adapterHTTP.NewWidgetHandler(habits),
		StatsHandler:  adapterHTTP.NewStatsHandler(services.NewStatsService(st, clock), habits),
		EventsHandler: adapterHTTP.NewEventsHandler(habits, subscription.NewLifecycle(st)),
		Store:         st,
		Metrics:       m,
		StartTime:     time.Now(),
	})

	return &testEnv{router: router, backend: backend, svc: habits}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) createHabit(t *testing.T, body gin.H) string {
	t.Helper()
	w := e.do("POST", "/api/v1/habits", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestHabitRoutes(t *testing.T) {
	t.Run("Success: Create then list", func(t *testing.T) {
		env := setupRouter(t)

		w := env.do("POST", "/api/v1/habits", gin.H{"name": "Water", "type": "quantity", "goal": 8, "unit": "glasses", "bgColor": "teal"})
		require.Equal(t, http.StatusCreated, w.Code)

		created := decode[map[string]any](t, w)
		assert.Equal(t, "Water", created["name"])
		assert.Equal(t, "teal", created["bgColor"])
		assert.Equal(t, float64(1), created["listOrder"])

		w = env.do("GET", "/api/v1/habits", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]map[string]any](t, w), 1)
	})

	t.Run("Failure: Validation errors are 422", func(t *testing.T) {
		env := setupRouter(t)

		w := env.do("POST", "/api/v1/habits", gin.H{"name": "", "type": "checkbox"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = env.do("POST", "/api/v1/habits", gin.H{"name": "Run", "type": "checkbox", "bgColor": "neon"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Failure: Unknown habit is 404", func(t *testing.T) {
		env := setupRouter(t)

		assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/v1/habits/missing", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/habits/missing", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do("POST", "/api/v1/habits/missing/increment", gin.H{"delta": 1}).Code)
	})

	t.Run("Success: Increment accumulates and reports completion", func(t *testing.T) {
		env := setupRouter(t)
		id := env.createHabit(t, gin.H{"name": "Water", "type": "quantity", "goal": 10})

		env.do("POST", "/api/v1/habits/"+id+"/increment", gin.H{"delta": 3})
		w := env.do("POST", "/api/v1/habits/"+id+"/increment", gin.H{"delta": 4})

		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]any](t, w)
		assert.Equal(t, float64(7), body["quantity"])
		assert.Equal(t, "partial", body["completion"])
	})

	t.Run("Failure: Wrong operation for the type is 422", func(t *testing.T) {
		env := setupRouter(t)
		id := env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})

		w := env.do("POST", "/api/v1/habits/"+id+"/increment", gin.H{"delta": 1})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = env.do("PUT", "/api/v1/habits/"+id+"/checked", gin.H{"checked": true})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "complete", decode[map[string]any](t, w)["completion"])
	})

	t.Run("Failure: Missing body field is 400", func(t *testing.T) {
		env := setupRouter(t)
		id := env.createHabit(t, gin.H{"name": "Water", "type": "quantity", "goal": 2})

		assert.Equal(t, http.StatusBadRequest, env.do("PUT", "/api/v1/habits/"+id+"/value", gin.H{}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do("PUT", "/api/v1/habits/"+id+"/value", gin.H{"value": 1, "date": "soon"}).Code)
	})

	t.Run("Success: Bulk reorder", func(t *testing.T) {
		env := setupRouter(t)
		h1 := env.createHabit(t, gin.H{"name": "One", "type": "checkbox"})
		h2 := env.createHabit(t, gin.H{"name": "Two", "type": "checkbox"})

		w := env.do("PUT", "/api/v1/habits/order", gin.H{"ids": []string{h2, h1}})

		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]map[string]any](t, w)
		assert.Equal(t, h2, list[0]["id"])
		assert.Equal(t, h1, list[1]["id"])
	})

	t.Run("Failure: Storage down is 503", func(t *testing.T) {
		env := setupRouter(t)
		env.backend.SetFailures(nil, errors.New("disk full"))

		w := env.do("POST", "/api/v1/habits", gin.H{"name": "Walk", "type": "checkbox"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestWidgetRoutes(t *testing.T) {
	env := setupRouter(t)
	h1 := env.createHabit(t, gin.H{"name": "One", "type": "checkbox"})
	h2 := env.createHabit(t, gin.H{"name": "Two", "type": "checkbox"})

	w := env.do("PUT", "/api/v1/widgets/small/1", gin.H{"habit_id": h1})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("PUT", "/api/v1/widgets/small/1", gin.H{"habit_id": h2})
	require.Equal(t, http.StatusOK, w.Code)

	entries := decode[[]map[string]any](t, env.do("GET", "/api/v1/widgets", nil))
	require.Len(t, entries, 7)
	assert.Equal(t, h2, entries[0]["habit_id"])

	assert.Equal(t, http.StatusUnprocessableEntity, env.do("PUT", "/api/v1/widgets/large/2", gin.H{"habit_id": h1}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("PUT", "/api/v1/widgets/small/first", gin.H{"habit_id": h1}).Code)

	assert.Equal(t, http.StatusNoContent, env.do("DELETE", "/api/v1/widgets/small/1", nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do("DELETE", "/api/v1/widgets/small/1", nil).Code)

	entries = decode[[]map[string]any](t, env.do("GET", "/api/v1/widgets", nil))
	_, held := entries[0]["habit_id"]
	assert.False(t, held)
}

func TestWidgetRoutes_VacateConflictingClaims(t *testing.T) {
	env := setupRouter(t)
	env.backend.Put(domain.StorageKey, []byte(`{"habits":[`+
		`{"id":"a","name":"A","type":"checkbox","goal":1,"bgColor":"blue","quantity":0,"listOrder":1,"history":{},"widgets":{"assignments":[{"type":"small","order":1}]}},`+
		`{"id":"b","name":"B","type":"checkbox","goal":1,"bgColor":"blue","quantity":0,"listOrder":2,"history":{},"widgets":{"assignments":[{"type":"small","order":1}]}}]}`))

	assert.Equal(t, http.StatusNoContent, env.do("DELETE", "/api/v1/widgets/small/1", nil).Code)

	entries := decode[[]map[string]any](t, env.do("GET", "/api/v1/widgets", nil))
	_, held := entries[0]["habit_id"]
	assert.False(t, held, "the second claimant must not surface once the first is cleared")

	doc, err := domain.ParseDocument(env.backend.Raw(domain.StorageKey))
	require.NoError(t, err)
	for _, h := range doc.Habits {
		assert.Empty(t, h.Slots(), h.ID)
	}
}

func TestStatsRoutes(t *testing.T) {
	t.Run("Success: Returns 200 with valid params", func(t *testing.T) {
		env := setupRouter(t)
		env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})

		w := env.do("GET", "/api/v1/stats/weekly?start_date=2023-12-26&end_date=2024-01-01", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		stats := decode[domain.WeeklyStats](t, w)
		assert.Equal(t, 1, stats.TotalHabits)
		assert.Len(t, stats.HabitStats[0].DailyProgress, 7)
	})

	t.Run("Failure: Inverted range is 400", func(t *testing.T) {
		env := setupRouter(t)

		w := env.do("GET", "/api/v1/stats/weekly?start_date=2024-01-07&end_date=2024-01-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: Export flattens history", func(t *testing.T) {
		env := setupRouter(t)
		id := env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})
		env.do("PUT", "/api/v1/habits/"+id+"/checked", gin.H{"checked": true})

		rows := decode[[]services.DayValue](t, env.do("GET", "/api/v1/export", nil))
		assert.Equal(t, []services.DayValue{{Date: "2024-01-01", HabitName: "Walk", Value: 1}}, rows)
	})
}

func TestOperationalRoutes(t *testing.T) {
	t.Run("Health reports the backend", func(t *testing.T) {
		env := setupRouter(t)

		w := env.do("GET", "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "memory", decode[map[string]any](t, w)["backend"])

		env.backend.SetFailures(errors.New("locked"), nil)
		assert.Equal(t, http.StatusServiceUnavailable, env.do("GET", "/health", nil).Code)
	})

	t.Run("Metrics are exposed", func(t *testing.T) {
		env := setupRouter(t)
		env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})

		w := env.do("GET", "/metrics", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "habit_store_saves_total")
	})

	t.Run("Lifecycle signal picks up out of band writes", func(t *testing.T) {
		env := setupRouter(t)
		env.backend.Put(domain.StorageKey, []byte(`{"habits":[{"id":"w1","name":"Widget","type":"checkbox","goal":1,"bgColor":"blue","quantity":0,"listOrder":1,"history":{}}]}`))

		assert.Equal(t, http.StatusNoContent, env.do("POST", "/api/v1/lifecycle/active", nil).Code)
		assert.Equal(t, "w1", env.svc.Store().Current(context.Background()).Habits[0].ID)
	})

	t.Run("Lifecycle signal on an unreadable backend keeps habits", func(t *testing.T) {
		env := setupRouter(t)
		env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})

		env.backend.SetFailures(errors.New("locked"), nil)
		assert.Equal(t, http.StatusServiceUnavailable, env.do("POST", "/api/v1/lifecycle/active", nil).Code)
		assert.Len(t, env.svc.Store().Current(context.Background()).Habits, 1)
	})

	t.Run("Event stream opens with a snapshot", func(t *testing.T) {
		env := setupRouter(t)
		env.createHabit(t, gin.H{"name": "Walk", "type": "checkbox"})

		server := httptest.NewServer(env.router)
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"/api/v1/events", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "event:snapshot", strings.TrimSpace(line))

		data, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Contains(t, data, `"name":"Walk"`)
	})
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/application/command"
	"github.com/aikidslabs/ai-kids-hub/internal/application/query"
	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/messaging"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/projections"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/scheduler"
	"github.com/aikidslabs/ai-kids-hub/internal/interface/http/handlers"
)

// newTestServer wires a full server around in-memory stores. The tutor and
// trailer handlers stay nil; their endpoints answer 501.
func newTestServer(t *testing.T) (*Server, *notification.Queue) {
	t.Helper()

	cat := catalog.Generate()
	learners := memory.NewLearnerStore()
	progressStore := memory.NewProgressStore()
	toasts := notification.NewQueue(notification.WithTTL(time.Minute))
	t.Cleanup(toasts.Close)

	require.NoError(t, learners.Create(context.Background(), learner.NewLearner("kid-1")))

	flow := saga.NewAchievementFlow(learners, toasts, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // not under test

	srv := NewServer(cfg, Dependencies{
		BrowseCatalogHandler:       query.NewBrowseCatalogHandler(cat, progressStore, nil),
		GetItemHandler:             query.NewGetItemHandler(cat, progressStore),
		GetProfileHandler:          query.NewGetProfileHandler(learners, nil, progressStore),
		GetNotificationsHandler:    query.NewGetNotificationsHandler(toasts),
		ParentOverviewHandler:      query.NewParentOverviewHandler(learners, progressStore, nil),
		UpdateProgressHandler:      command.NewUpdateProgressHandler(learners, progressStore, nil, cat, flow, nil),
		DismissNotificationHandler: command.NewDismissNotificationHandler(toasts, nil),
		SetParentPINHandler:        command.NewSetParentPINHandler(learners),
		VerifyParentHandler:        command.NewVerifyParentHandler(learners, nil),
		Logger:                     logger,
		HealthChecker:              handlers.NewNoopHealthChecker(),
	})
	return srv, toasts
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestServerHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerBrowseCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/catalog?age=7%2B", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result query.BrowseCatalogResult
	decodeData(t, rec, &result)
	require.NotEmpty(t, result.Rows)
	for _, row := range result.Rows {
		for _, item := range row.Items {
			assert.Equal(t, "7+", item.AgeRating)
		}
	}
}

func TestServerGetItemCaching(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/catalog/items/1-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/catalog/items/99-99", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerListBadges(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/badges", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var badges []learner.Badge
	decodeData(t, rec, &badges)
	assert.Len(t, badges, len(learner.Badges()))
}

func TestServerProgressFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// Completing the first module earns first-step awards and toasts.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/progress",
		map[string]any{"item_id": "1-1", "value": 100}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result updateProgressResponse
	decodeData(t, rec, &result)
	assert.True(t, result.JustCompleted)
	require.NotNil(t, result.Awards)
	assert.NotZero(t, result.Awards.XPAwarded)

	// The awards surfaced as toasts.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-1/notifications", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	var notifications query.GetNotificationsResult
	decodeData(t, rec, &notifications)
	require.NotEmpty(t, notifications.Toasts)

	// Dismissing is idempotent at the API: repeating it stays 204.
	toastID := notifications.Toasts[0].ID
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/learners/kid-1/notifications/"+toastID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/learners/kid-1/notifications/"+toastID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A lower value is a monotonic no-op.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/progress",
		map[string]any{"item_id": "1-1", "value": 10}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	assert.False(t, result.Changed)
	assert.Equal(t, 100, result.NewValue)
}

func TestServerParentGateFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// The overview is locked before any verification.
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-1/parent/overview", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/learners/kid-1/parent/pin",
		map[string]any{"pin": "1234"}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Wrong PIN is rejected.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/parent/verify",
		map[string]any{"pin": "0000"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Right PIN mints a session token.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/parent/verify",
		map[string]any{"pin": "1234"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var verified verifyParentResponse
	decodeData(t, rec, &verified)
	require.True(t, verified.Verified)
	require.NotEmpty(t, verified.Token)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-1/parent/overview", nil,
		map[string]string{"X-Parent-Token": verified.Token})
	require.Equal(t, http.StatusOK, rec.Code)

	// The token is bound to the learner it was minted for.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-2/parent/overview", nil,
		map[string]string{"X-Parent-Token": verified.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServerUnconfiguredHandlers(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/tutor",
		map[string]any{"question": "o que é IA?"}, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/learners/kid-1/trailers",
		map[string]any{}, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestServerStatsReportsBackgroundMachinery(t *testing.T) {
	srv, _ := newTestServer(t)

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.NewScheduler(schedCfg)
	require.NoError(t, sched.Register(statsJob{}, scheduler.NewIntervalSchedule(time.Hour)))
	srv.deps.Scheduler = sched

	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })
	srv.deps.Dispatcher = messaging.NewDispatcher(messaging.DefaultDispatcherConfig(bus))

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Scheduler struct {
			Running bool                `json:"running"`
			Jobs    []scheduler.JobInfo `json:"jobs"`
		} `json:"scheduler"`
		Dispatcher struct {
			DeadLetters int                                 `json:"dead_letters"`
			Metrics     messaging.DispatcherMetricsSnapshot `json:"metrics"`
		} `json:"dispatcher"`
	}
	decodeData(t, rec, &stats)

	assert.False(t, stats.Scheduler.Running)
	require.Len(t, stats.Scheduler.Jobs, 1)
	assert.Equal(t, "prune-trailer-tasks", stats.Scheduler.Jobs[0].Name)
	assert.Equal(t, "@every 1h0m0s", stats.Scheduler.Jobs[0].Schedule)

	assert.Equal(t, 0, stats.Dispatcher.DeadLetters)
	assert.Equal(t, int64(0), stats.Dispatcher.Metrics.TotalDispatched)
}

func TestServerProfileCardRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	cards := projections.NewProfileCardView()
	card, err := cards.BuildCard(learner.NewLearner("kid-1"), 2)
	require.NoError(t, err)
	require.NoError(t, cards.UpsertCard(card))
	srv.deps.ProfileCards = cards

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-1/profile-card", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	var got projections.ProfileCard
	decodeData(t, rec, &got)
	assert.Equal(t, "kid-1", got.LearnerID)
	assert.Equal(t, 2, got.CompletedModules)
	assert.Equal(t, learner.DefaultXP, got.XP)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/learners/nobody/profile-card", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/profile-cards", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []projections.ProfileCard
	decodeData(t, rec, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "kid-1", all[0].LearnerID)
}

func TestServerProfileCardUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/learners/kid-1/profile-card", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// statsJob is a registration-only job for the stats endpoint test.
type statsJob struct{}

func (statsJob) Name() string                { return "prune-trailer-tasks" }
func (statsJob) Description() string         { return "prunes finished trailer tasks" }
func (statsJob) Run(_ context.Context) error { return nil }

package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/middleware"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/cache"
	"pillar_journey_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "controller-test-secret"

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	clock := util.NewFixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	checkins := repository.NewCheckinRepository(db)
	karma := repository.NewKarmaRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	assessRepo := repository.NewAssessmentRepository(db)
	moodRepo := repository.NewMoodRepository(db)

	journeys := service.NewJourneyService(db, repository.NewJourneyRepository(db), clock)
	streaks := service.NewStreakService(db, checkins, streakRepo, clock)
	badges := service.NewBadgeService(db, badgeRepo, checkins, karma, streakRepo, journeys, clock,
		service.EarlyBirdRule{PillarID: 1, Cutoff: 5*time.Hour + 30*time.Minute})
	insights := service.NewInsightService(insightRepo, checkins, moodRepo, assessRepo, journeys, clock)
	reports := service.NewReportService(checkins, karma, streakRepo, badgeRepo, assessRepo, moodRepo, journeys, clock)
	dashboard := service.NewDashboardService(checkins, karma, journeys, streaks, cache.NewMemoryClient(), time.Minute, clock)
	progress := service.NewProgressService(db, checkins, karma, journeys, streaks, badges, clock)
	progress.Dashboard = dashboard
	storage := service.NewStorageServiceWithProvider(&service.LocalStorageProvider{Root: t.TempDir()})

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	checkinCtl := NewCheckinController(progress)
	journeyCtl := NewJourneyController(journeys, dashboard)
	dashboardCtl := NewDashboardController(dashboard)
	insightCtl := NewInsightController(insights)
	reportCtl := NewReportController(reports, storage)
	badgeCtl := NewBadgeController(badges, dashboard)
	healthCtl := NewHealthController(db, nil)

	r := gin.New()
	r.GET("/api/health", healthCtl.HealthCheck)
	api := r.Group("/api", middleware.AuthMiddleware(cfg))
	api.POST("/journey/start", journeyCtl.StartJourney)
	api.GET("/journey/current", journeyCtl.CurrentJourney)
	api.GET("/dashboard", dashboardCtl.GetDashboard)
	api.POST("/checkins", checkinCtl.RecordCompletion)
	api.GET("/karma", checkinCtl.GetKarma)
	api.GET("/badges", badgeCtl.ListBadges)
	api.GET("/insights", insightCtl.ListInsights)
	api.POST("/insights/refresh", insightCtl.RefreshInsights)
	api.PATCH("/insights/:id/read", insightCtl.MarkRead)
	api.GET("/reports/csv", reportCtl.DownloadCSV)
	api.POST("/reports/archive", reportCtl.ArchiveReport)

	return &testServer{t: t, router: r}
}

func (s *testServer) token(userID uint) string {
	s.t.Helper()
	tok, err := util.GenerateJWT(userID, testSecret, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/dashboard", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"disabled"`)
}

func TestCheckinFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/journey/start", 1, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 1, "date": "2026-03-09"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result struct {
		KarmaAwarded int `json:"karmaAwarded"`
		NewBadges    []struct {
			Badge struct {
				Slug string `json:"slug"`
			} `json:"badge"`
		} `json:"newBadges"`
	}
	w = s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 1})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &result)
	assert.Equal(t, 15, result.KarmaAwarded)
	require.Len(t, result.NewBadges, 1)
	assert.Equal(t, "day-1", result.NewBadges[0].Badge.Slug)

	w = s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 1})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &result)
	assert.Equal(t, 0, result.KarmaAwarded)

	var karma struct {
		Total int `json:"total"`
	}
	w = s.do(http.MethodGet, "/api/karma", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &karma)
	assert.Equal(t, 65, karma.Total)

	var dash service.DashboardSnapshot
	w = s.do(http.MethodGet, "/api/dashboard", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &dash)
	assert.Equal(t, []uint{1}, dash.CompletedToday)
	assert.Equal(t, 65, dash.KarmaTotal)
	assert.Equal(t, 1, dash.Streak.Current)

	// 其他用户看不到
	w = s.do(http.MethodGet, "/api/dashboard", 2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsightEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/journey/start", 1, map[string]string{"startDate": "2026-02-28"}).Code)
	for _, date := range []string{"2026-02-28", "2026-03-01", "2026-03-02"} {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 4, "date": date}).Code)
	}

	var refreshed struct {
		Count int `json:"count"`
	}
	w := s.do(http.MethodPost, "/api/insights/refresh", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &refreshed)
	assert.Equal(t, 2, refreshed.Count)

	var list service.InsightList
	w = s.do(http.MethodGet, "/api/insights", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Insights, 2)
	assert.Equal(t, 2, list.UnreadCount)

	id := list.Insights[0].ID
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/insights/"+id+"/read", 2, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/insights/"+id+"/read", 1, nil).Code)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/reports/csv", 1, nil).Code)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/journey/start", 1, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/checkins", 1, map[string]interface{}{"pillarId": 2}).Code)

	// 浏览器下载时通过查询参数带令牌
	req := httptest.NewRequest(http.MethodGet, "/api/reports/csv?token="+s.token(1), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "journey-report-2026-03-02.csv")

	summary, err := service.ParseCSVSummary(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalCompletions)
	assert.Equal(t, 10+50, summary.TotalKarma)

	var archived struct {
		Filename string `json:"filename"`
		Location string `json:"location"`
	}
	w = s.do(http.MethodPost, "/api/reports/archive", 1, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &archived)
	assert.Equal(t, "journey-report-2026-03-02.csv", archived.Filename)
	assert.True(t, strings.HasPrefix(archived.Location, "file://"))
}

func TestBadgeList(t *testing.T) {
	s := newTestServer(t)

	var badges []service.BadgeStatus
	w := s.do(http.MethodGet, "/api/badges", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &badges)
	require.Len(t, badges, 6)
	for _, b := range badges {
		assert.False(t, b.Earned)
	}
}

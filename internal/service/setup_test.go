package service

import (
	"context"
	"testing"
	"time"

	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/cache"
	"pillar_journey_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2026-03-02 是周一
var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	clock *util.FixedClock

	checkins    *repository.CheckinRepository
	karma       *repository.KarmaRepository
	streakRepo  *repository.StreakRepository
	badgeRepo   *repository.BadgeRepository
	insightRepo *repository.InsightRepository
	assessRepo  *repository.AssessmentRepository
	moodRepo    *repository.MoodRepository

	journeys   *JourneyService
	streaks    *StreakService
	badges     *BadgeService
	progress   *ProgressService
	insights   *InsightService
	reports    *ReportService
	dashboard  *DashboardService
	assessment *AssessmentService
	moods      *MoodService
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// 单连接，内存库在连接之间不共享
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	clock := util.NewFixedClock(testStart)

	e := &testEnv{
		t:           t,
		ctx:         context.Background(),
		db:          db,
		clock:       clock,
		checkins:    repository.NewCheckinRepository(db),
		karma:       repository.NewKarmaRepository(db),
		streakRepo:  repository.NewStreakRepository(db),
		badgeRepo:   repository.NewBadgeRepository(db),
		insightRepo: repository.NewInsightRepository(db),
		assessRepo:  repository.NewAssessmentRepository(db),
		moodRepo:    repository.NewMoodRepository(db),
	}

	e.journeys = NewJourneyService(db, repository.NewJourneyRepository(db), clock)
	e.streaks = NewStreakService(db, e.checkins, e.streakRepo, clock)
	e.badges = NewBadgeService(db, e.badgeRepo, e.checkins, e.karma, e.streakRepo, e.journeys, clock,
		EarlyBirdRule{PillarID: 1, Cutoff: 5*time.Hour + 30*time.Minute})
	e.insights = NewInsightService(e.insightRepo, e.checkins, e.moodRepo, e.assessRepo, e.journeys, clock)
	e.reports = NewReportService(e.checkins, e.karma, e.streakRepo, e.badgeRepo, e.assessRepo, e.moodRepo, e.journeys, clock)
	e.dashboard = NewDashboardService(e.checkins, e.karma, e.journeys, e.streaks, cache.NewMemoryClient(), time.Minute, clock)
	e.assessment = NewAssessmentService(e.assessRepo, e.journeys, clock)
	e.moods = NewMoodService(e.moodRepo, clock)
	e.progress = NewProgressService(db, e.checkins, e.karma, e.journeys, e.streaks, e.badges, clock)
	e.progress.Insights = e.insights
	e.progress.Dashboard = e.dashboard
	return e
}

// startJourney 以当前时钟日期开始旅程
func (e *testEnv) startJourney(userID uint) *model.Journey {
	e.t.Helper()
	view, err := e.journeys.Start(e.ctx, userID, "")
	require.NoError(e.t, err)
	return view.Journey
}

// complete 完成今天的某个修习项
func (e *testEnv) complete(userID, pillarID uint) *CompletionResult {
	e.t.Helper()
	res, err := e.progress.RecordCompletion(e.ctx, userID, CompletionRequest{PillarID: pillarID})
	require.NoError(e.t, err)
	return res
}

// nextDay 时钟前进一天
func (e *testEnv) nextDay() {
	e.clock.Advance(24 * time.Hour)
}

func (e *testEnv) balance(userID uint) int {
	e.t.Helper()
	total, err := e.progress.Balance(e.ctx, userID)
	require.NoError(e.t, err)
	return total
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

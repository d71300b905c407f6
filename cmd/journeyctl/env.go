package main

import (
	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/database"

	"gorm.io/gorm"
)

// env 命令共用的数据库连接与服务，不启动任何后台任务
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	journeys *repository.JourneyRepository
	streaks  *service.StreakService
	insights *service.InsightService
	reports  *service.ReportService
}

func openEnv() (*env, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}

	clock := util.NewSystemClock(cfg.Engine.Location())
	journeyRepo := repository.NewJourneyRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	journeys := service.NewJourneyService(db, journeyRepo, clock)

	return &env{
		cfg:      cfg,
		db:       db,
		journeys: journeyRepo,
		streaks:  service.NewStreakService(db, checkinRepo, streakRepo, clock),
		insights: service.NewInsightService(repository.NewInsightRepository(db), checkinRepo, moodRepo, assessmentRepo, journeys, clock),
		reports: service.NewReportService(checkinRepo, repository.NewKarmaRepository(db), streakRepo,
			repository.NewBadgeRepository(db), assessmentRepo, moodRepo, journeys, clock),
	}, nil
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

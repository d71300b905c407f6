package service

import (
	"context"
	"errors"
	"fmt"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/cache"
	"pillar_journey_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// StreakSnapshot 仪表盘上的连续天数
type StreakSnapshot struct {
	Current int  `json:"current"`
	Longest int  `json:"longest"`
	AtRisk  bool `json:"atRisk"`
}

// DashboardSnapshot 仪表盘数据，可随时由数据库重算
type DashboardSnapshot struct {
	Date           string         `json:"date"`
	JourneyID      uint           `json:"journeyId"`
	CurrentDay     int            `json:"currentDay"`
	Streak         StreakSnapshot `json:"streak"`
	KarmaTotal     int            `json:"karmaTotal"`
	CompletedToday []uint         `json:"completedToday"`
	TotalPillars   int            `json:"totalPillars"`
}

type DashboardService struct {
	CheckinRepo *repository.CheckinRepository
	KarmaRepo   *repository.KarmaRepository
	Journeys    *JourneyService
	Streaks     *StreakService
	Cache       cache.Client
	TTL         time.Duration
	Clock       util.Clock
}

func NewDashboardService(
	checkinRepo *repository.CheckinRepository,
	karmaRepo *repository.KarmaRepository,
	journeys *JourneyService,
	streaks *StreakService,
	c cache.Client,
	ttl time.Duration,
	clock util.Clock,
) *DashboardService {
	return &DashboardService{
		CheckinRepo: checkinRepo,
		KarmaRepo:   karmaRepo,
		Journeys:    journeys,
		Streaks:     streaks,
		Cache:       c,
		TTL:         ttl,
		Clock:       clock,
	}
}

func dashboardPrefix(userID uint) string {
	return fmt.Sprintf("dashboard:%d:", userID)
}

// Snapshot 先读缓存，未命中时重算。atRisk 每次按当前时间计算
func (s *DashboardService) Snapshot(ctx context.Context, userID uint) (*DashboardSnapshot, error) {
	now := s.Clock.Now()
	today := util.FormatDate(now)
	key := dashboardPrefix(userID) + today

	var snap DashboardSnapshot
	if s.Cache != nil {
		err := cache.GetJSON(ctx, s.Cache, key, &snap)
		if err == nil {
			snap.Streak.AtRisk = AtRisk(len(snap.CompletedToday), now)
			return &snap, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Log.Warn("dashboard cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	fresh, err := s.build(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := cache.SetJSON(ctx, s.Cache, key, fresh, s.TTL); err != nil {
			logger.Log.Warn("dashboard cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return fresh, nil
}

func (s *DashboardService) build(ctx context.Context, userID uint, now time.Time) (*DashboardSnapshot, error) {
	journey, err := s.Journeys.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := util.FormatDate(now)

	completed, err := s.CheckinRepo.CompletedPillarsOn(ctx, userID, today)
	if err != nil {
		return nil, util.StoreError(err)
	}
	if completed == nil {
		completed = []uint{}
	}

	karma, err := s.KarmaRepo.Balance(ctx, userID)
	if err != nil {
		return nil, util.StoreError(err)
	}

	// 读取时重算，跨天后缓存的当前连续天数可能已过期
	streak, err := s.Streaks.Recompute(ctx, nil, journey)
	if err != nil {
		return nil, err
	}

	return &DashboardSnapshot{
		Date:       today,
		JourneyID:  journey.ID,
		CurrentDay: CurrentDay(journey, now),
		Streak: StreakSnapshot{
			Current: streak.CurrentStreak,
			Longest: streak.LongestStreak,
			AtRisk:  AtRisk(len(completed), now),
		},
		KarmaTotal:     karma,
		CompletedToday: completed,
		TotalPillars:   model.PillarCount,
	}, nil
}

// Invalidate 清除用户的仪表盘缓存，失败只记录日志
func (s *DashboardService) Invalidate(ctx context.Context, userID uint) {
	if s == nil || s.Cache == nil {
		return
	}
	if err := s.Cache.DeleteByPrefix(ctx, dashboardPrefix(userID)); err != nil {
		logger.Log.Warn("dashboard cache invalidate failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

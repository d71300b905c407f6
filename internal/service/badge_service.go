package service

import (
	"context"
	"errors"
	"fmt"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/logger"
	"pillar_journey_backend/pkg/monitoring"
	"pillar_journey_backend/pkg/tracing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BadgeStats 徽章条件判断所需的统计
type BadgeStats struct {
	DaysCompleted int `json:"daysCompleted"`
	LongestStreak int `json:"longestStreak"`
	PerfectDays   int `json:"perfectDays"`
	EarlyMornings int `json:"earlyMornings"`
}

// EarlyBirdRule 早起徽章的判定条件
type EarlyBirdRule struct {
	PillarID uint
	Cutoff   time.Duration
}

// CollectBadgeStats 由旅程内已完成的打卡计算统计值
func CollectBadgeStats(checkins []model.Checkin, early EarlyBirdRule, loc *time.Location) BadgeStats {
	perDay := make(map[string]map[uint]bool)
	var earlyCount int
	for _, c := range checkins {
		if !c.Completed {
			continue
		}
		if perDay[c.CheckinDate] == nil {
			perDay[c.CheckinDate] = make(map[uint]bool)
		}
		perDay[c.CheckinDate][c.PillarID] = true

		if c.PillarID == early.PillarID && c.CompletedAt != nil {
			at := c.CompletedAt.In(loc)
			if util.FormatDate(at) == c.CheckinDate && at.Sub(util.StartOfDay(at)) < early.Cutoff {
				earlyCount++
			}
		}
	}

	dates := make([]string, 0, len(perDay))
	perfect := 0
	for d, pillars := range perDay {
		dates = append(dates, d)
		if len(pillars) >= model.PillarCount {
			perfect++
		}
	}

	return BadgeStats{
		DaysCompleted: len(perDay),
		LongestStreak: longestRun(dates),
		PerfectDays:   perfect,
		EarlyMornings: earlyCount,
	}
}

// RequirementMet 按条件类型判断是否达成
func RequirementMet(req model.Requirement, st BadgeStats) bool {
	switch req.Kind {
	case model.RequireDaysCompleted:
		return st.DaysCompleted >= req.Value
	case model.RequireStreak:
		return st.LongestStreak >= req.Value
	case model.RequireAllPillarsInDay:
		return st.PerfectDays >= req.Value
	case model.RequireEarlyMorning:
		return st.EarlyMornings >= req.Value
	default:
		return false
	}
}

// BadgeUnlock 新解锁的徽章
type BadgeUnlock struct {
	model.UserBadge
	Badge      model.Badge `json:"badge"`
	KarmaBonus int         `json:"karmaBonus"`
}

// BadgeStatus 徽章目录项及用户的解锁状态
type BadgeStatus struct {
	model.Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
}

type BadgeService struct {
	DB          *gorm.DB
	BadgeRepo   *repository.BadgeRepository
	CheckinRepo *repository.CheckinRepository
	KarmaRepo   *repository.KarmaRepository
	StreakRepo  *repository.StreakRepository
	Journeys    *JourneyService
	Clock       util.Clock
	EarlyBird   EarlyBirdRule
}

func NewBadgeService(
	db *gorm.DB,
	badgeRepo *repository.BadgeRepository,
	checkinRepo *repository.CheckinRepository,
	karmaRepo *repository.KarmaRepository,
	streakRepo *repository.StreakRepository,
	journeys *JourneyService,
	clock util.Clock,
	earlyBird EarlyBirdRule,
) *BadgeService {
	return &BadgeService{
		DB:          db,
		BadgeRepo:   badgeRepo,
		CheckinRepo: checkinRepo,
		KarmaRepo:   karmaRepo,
		StreakRepo:  streakRepo,
		Journeys:    journeys,
		Clock:       clock,
		EarlyBird:   earlyBird,
	}
}

// Stats 当前旅程的徽章统计
func (s *BadgeService) Stats(ctx context.Context, userID uint) (BadgeStats, error) {
	journey, err := s.Journeys.Active(ctx, userID)
	if err != nil {
		return BadgeStats{}, err
	}
	checkins, err := s.CheckinRepo.ListCompletedInWindow(ctx, userID, journey.StartDate, journey.EndDate)
	if err != nil {
		return BadgeStats{}, util.StoreError(err)
	}
	st := CollectBadgeStats(checkins, s.EarlyBird, s.Clock.Now().Location())

	// 缓存的最长记录在撤销打卡后仍然保留
	streak, err := s.StreakRepo.Find(ctx, userID, journey.ID)
	switch {
	case err == nil:
		if streak.LongestStreak > st.LongestStreak {
			st.LongestStreak = streak.LongestStreak
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return BadgeStats{}, util.StoreError(err)
	}
	return st, nil
}

// Evaluate 检查所有未解锁的徽章，返回本次新解锁的。可重复调用，不会重复发放
func (s *BadgeService) Evaluate(ctx context.Context, userID uint) (unlocked []BadgeUnlock, err error) {
	ctx, span := tracing.StartSpan(ctx, "badge.evaluate", userID)
	defer func() { tracing.End(span, err) }()

	st, err := s.Stats(ctx, userID)
	if errors.Is(err, util.ErrJourneyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	owned, err := s.BadgeRepo.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, util.StoreError(err)
	}
	have := make(map[uint]bool, len(owned))
	for _, ub := range owned {
		have[ub.BadgeID] = true
	}

	unlocked = []BadgeUnlock{}
	for _, badge := range model.Badges {
		if have[badge.ID] || !RequirementMet(badge.Requirement, st) {
			continue
		}
		u, awarded, awardErr := s.award(ctx, userID, badge)
		if awardErr != nil {
			// 单个徽章失败不影响其余徽章
			monitoring.RuleFailures.WithLabelValues("badge", badge.Slug).Inc()
			logger.Log.Error("badge award failed",
				zap.Uint("user_id", userID),
				zap.String("badge", badge.Slug),
				zap.Error(awardErr))
			continue
		}
		if awarded {
			unlocked = append(unlocked, *u)
		}
	}
	return unlocked, nil
}

// award 在单独事务中写入解锁记录，只有真正插入时才发放奖励积分
func (s *BadgeService) award(ctx context.Context, userID uint, badge model.Badge) (*BadgeUnlock, bool, error) {
	ub := model.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: s.Clock.Now()}
	awarded := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.BadgeRepo.WithTx(tx).InsertIgnore(ctx, &ub)
		if err != nil || !inserted {
			return err
		}
		awarded = true
		if badge.KarmaBonus <= 0 {
			return nil
		}
		return s.KarmaRepo.WithTx(tx).Create(ctx, &model.KarmaTransaction{
			UserID:        userID,
			Points:        badge.KarmaBonus,
			Reason:        model.KarmaBonus,
			Description:   fmt.Sprintf("Badge unlocked: %s", badge.Name),
			ReferenceType: "badge",
			ReferenceID:   badge.Slug,
			CreatedAt:     ub.EarnedAt,
		})
	})
	if err != nil {
		return nil, false, util.StoreError(err)
	}
	if !awarded {
		return nil, false, nil
	}

	monitoring.BadgesUnlocked.WithLabelValues(badge.Slug).Inc()
	monitoring.KarmaAwarded.WithLabelValues(string(model.KarmaBonus)).Add(float64(badge.KarmaBonus))
	logger.Log.Info("badge unlocked", zap.Uint("user_id", userID), zap.String("badge", badge.Slug))
	return &BadgeUnlock{UserBadge: ub, Badge: badge, KarmaBonus: badge.KarmaBonus}, true, nil
}

// ListBadges 徽章目录及解锁状态
func (s *BadgeService) ListBadges(ctx context.Context, userID uint) ([]BadgeStatus, error) {
	owned, err := s.BadgeRepo.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, util.StoreError(err)
	}
	earned := make(map[uint]time.Time, len(owned))
	for _, ub := range owned {
		earned[ub.BadgeID] = ub.EarnedAt
	}

	list := make([]BadgeStatus, 0, len(model.Badges))
	for _, b := range model.Badges {
		st := BadgeStatus{Badge: b}
		if at, ok := earned[b.ID]; ok {
			at := at
			st.Earned = true
			st.EarnedAt = &at
		}
		list = append(list, st)
	}
	return list, nil
}

package service

import (
	"context"
	"fmt"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/logger"
	"pillar_journey_backend/pkg/monitoring"
	"pillar_journey_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionRequest 一次打卡提交
type CompletionRequest struct {
	PillarID        uint   `json:"pillarId" binding:"required"`
	Date            string `json:"date"`
	Completed       *bool  `json:"completed"`
	DurationMinutes *int   `json:"durationMinutes"`
	Notes           string `json:"notes"`
}

// IsCompleted 未指定时视为完成
func (r CompletionRequest) IsCompleted() bool {
	return r.Completed == nil || *r.Completed
}

// CompletionResult 打卡结果
type CompletionResult struct {
	Checkin      *model.Checkin `json:"checkin"`
	KarmaAwarded int            `json:"karmaAwarded"`
	NewBadges    []BadgeUnlock  `json:"newBadges"`
	Streak       *model.Streak  `json:"streak,omitempty"`
}

// ProgressService 打卡账本与积分账本
type ProgressService struct {
	DB          *gorm.DB
	CheckinRepo *repository.CheckinRepository
	KarmaRepo   *repository.KarmaRepository
	Journeys    *JourneyService
	Streaks     *StreakService
	Badges      *BadgeService
	Insights    *InsightService
	Dashboard   *DashboardService
	Jobs        *JobQueue
	Clock       util.Clock

	// AsyncInsights 为 true 时每次完成后排队刷新洞察；队列本身始终用于徽章重试
	AsyncInsights bool
}

func NewProgressService(
	db *gorm.DB,
	checkinRepo *repository.CheckinRepository,
	karmaRepo *repository.KarmaRepository,
	journeys *JourneyService,
	streaks *StreakService,
	badges *BadgeService,
	clock util.Clock,
) *ProgressService {
	return &ProgressService{
		DB:          db,
		CheckinRepo: checkinRepo,
		KarmaRepo:   karmaRepo,
		Journeys:    journeys,
		Streaks:     streaks,
		Badges:      badges,
		Clock:       clock,
	}
}

// RecordCompletion 幂等写入 (user, pillar, date) 的打卡记录。
// 只有 false→true 的转换会发放积分、重算连续天数并检查徽章。
func (s *ProgressService) RecordCompletion(ctx context.Context, userID uint, req CompletionRequest) (result *CompletionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "checkin.record", userID)
	defer func() { tracing.End(span, err) }()

	pillar, ok := model.FindPillar(req.PillarID)
	if !ok {
		return nil, util.ErrPillarNotFound
	}
	if req.DurationMinutes != nil && (*req.DurationMinutes < 0 || *req.DurationMinutes > 24*60) {
		return nil, util.InvalidInputf("durationMinutes must be between 0 and 1440")
	}

	journey, err := s.Journeys.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	date := req.Date
	if date == "" {
		date = util.FormatDate(now)
	} else {
		t, err := util.ParseDate(date, now.Location())
		if err != nil {
			return nil, err
		}
		date = util.FormatDate(t)
	}
	if !InWindow(journey, date, now) {
		return nil, util.ErrDateOutOfRange
	}

	key := repository.CheckinKey{UserID: userID, PillarID: pillar.ID, Date: date}
	result = &CompletionResult{NewBadges: []BadgeUnlock{}}
	var completed, uncompleted bool

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkins := s.CheckinRepo.WithTx(tx)

		if _, err := checkins.InsertIgnore(ctx, &model.Checkin{
			UserID:      userID,
			PillarID:    pillar.ID,
			CheckinDate: date,
			JourneyID:   journey.ID,
		}); err != nil {
			return err
		}

		var err error
		if req.IsCompleted() {
			completed, err = checkins.MarkCompleted(ctx, key, now)
		} else {
			uncompleted, err = checkins.MarkIncomplete(ctx, key)
		}
		if err != nil {
			return err
		}
		if err := checkins.UpdateDetails(ctx, key, journey.ID, req.DurationMinutes, req.Notes, now); err != nil {
			return err
		}

		if completed {
			// 每个键一生只发放一次积分，撤销后再次完成不会重复发放
			claimed, err := checkins.ClaimKarma(ctx, key, pillar.BaseKarma)
			if err != nil {
				return err
			}
			if claimed {
				pid := pillar.ID
				if err := s.KarmaRepo.WithTx(tx).Create(ctx, &model.KarmaTransaction{
					UserID:        userID,
					Points:        pillar.BaseKarma,
					Reason:        model.KarmaEarned,
					PillarID:      &pid,
					Description:   fmt.Sprintf("Completed %s", pillar.Name),
					ReferenceType: "checkin",
					ReferenceID:   fmt.Sprintf("%d:%s", pillar.ID, date),
					CreatedAt:     now,
				}); err != nil {
					return err
				}
				result.KarmaAwarded = pillar.BaseKarma
			}
		}

		if completed || uncompleted {
			streak, err := s.Streaks.Recompute(ctx, tx, journey)
			if err != nil {
				return err
			}
			result.Streak = streak
		}

		result.Checkin, err = checkins.FindByKey(ctx, key)
		return err
	})
	if err != nil {
		return nil, util.StoreError(err)
	}

	switch {
	case completed:
		monitoring.CheckinTransitions.WithLabelValues("completed").Inc()
	case uncompleted:
		monitoring.CheckinTransitions.WithLabelValues("uncompleted").Inc()
	default:
		monitoring.CheckinTransitions.WithLabelValues("unchanged").Inc()
	}
	if result.KarmaAwarded > 0 {
		monitoring.KarmaAwarded.WithLabelValues(string(model.KarmaEarned)).Add(float64(result.KarmaAwarded))
	}
	logger.Log.Debug("checkin recorded",
		zap.Uint("user_id", userID),
		zap.Uint("pillar_id", pillar.ID),
		zap.String("date", date),
		zap.Bool("completed", completed),
		zap.Bool("uncompleted", uncompleted),
		zap.Int("karma", result.KarmaAwarded))

	if s.Dashboard != nil {
		s.Dashboard.Invalidate(ctx, userID)
	}

	if completed {
		s.afterCompletion(ctx, userID, result)
	}
	return result, nil
}

// afterCompletion 账本已提交，徽章与洞察失败时只记录日志并交给队列重试
func (s *ProgressService) afterCompletion(ctx context.Context, userID uint, result *CompletionResult) {
	if s.Badges != nil {
		unlocked, err := s.Badges.Evaluate(ctx, userID)
		if err != nil {
			logger.Log.Warn("badge evaluation failed, scheduling retry", zap.Uint("user_id", userID), zap.Error(err))
			if s.Jobs != nil {
				s.Jobs.Enqueue(s.badgeJob(userID))
			}
		} else {
			result.NewBadges = unlocked
			if len(unlocked) > 0 && s.Dashboard != nil {
				s.Dashboard.Invalidate(ctx, userID)
			}
		}
	}

	if s.AsyncInsights && s.Insights != nil && s.Jobs != nil {
		s.Jobs.Enqueue(s.Insights.RefreshJob(userID))
	}
}

func (s *ProgressService) badgeJob(userID uint) Job {
	return Job{
		Name:   "badge_evaluate",
		UserID: userID,
		Run: func(ctx context.Context) error {
			unlocked, err := s.Badges.Evaluate(ctx, userID)
			if err == nil && len(unlocked) > 0 && s.Dashboard != nil {
				s.Dashboard.Invalidate(ctx, userID)
			}
			return err
		},
	}
}

// ListCheckins 日期闭区间内的打卡记录，默认当前旅程全程
func (s *ProgressService) ListCheckins(ctx context.Context, userID uint, from, to string) ([]model.Checkin, error) {
	loc := s.Clock.Now().Location()
	if from == "" || to == "" {
		journey, err := s.Journeys.Active(ctx, userID)
		if err != nil {
			return nil, err
		}
		if from == "" {
			from = journey.StartDate
		}
		if to == "" {
			to = journey.EndDate
		}
	}
	if _, err := util.ParseDate(from, loc); err != nil {
		return nil, err
	}
	if _, err := util.ParseDate(to, loc); err != nil {
		return nil, err
	}
	if from > to {
		return nil, util.InvalidInputf("from %s is after to %s", from, to)
	}

	checkins, err := s.CheckinRepo.ListByUserRange(ctx, userID, from, to)
	if err != nil {
		return nil, util.StoreError(err)
	}
	return checkins, nil
}

// Balance 积分余额
func (s *ProgressService) Balance(ctx context.Context, userID uint) (int, error) {
	total, err := s.KarmaRepo.Balance(ctx, userID)
	if err != nil {
		return 0, util.StoreError(err)
	}
	return total, nil
}

// Transactions 最近的积分流水
func (s *ProgressService) Transactions(ctx context.Context, userID uint, limit int) ([]model.KarmaTransaction, error) {
	txns, err := s.KarmaRepo.List(ctx, userID, limit)
	if err != nil {
		return nil, util.StoreError(err)
	}
	return txns, nil
}

// Award 直接追加一笔积分，调用方负责保证每个事件只调用一次
func (s *ProgressService) Award(ctx context.Context, userID uint, points int, reason model.KarmaReason, pillarID *uint, description string) (*model.KarmaTransaction, error) {
	if points == 0 {
		return nil, util.InvalidInputf("points must be non-zero")
	}
	txn := &model.KarmaTransaction{
		UserID:      userID,
		Points:      points,
		Reason:      reason,
		PillarID:    pillarID,
		Description: description,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.KarmaRepo.Create(ctx, txn); err != nil {
		return nil, util.StoreError(err)
	}
	monitoring.KarmaAwarded.WithLabelValues(string(reason)).Add(float64(points))
	return txn, nil
}

package service

import (
	"context"
	"errors"
	"math"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JourneyView 旅程及其进度
type JourneyView struct {
	Journey              *model.Journey `json:"journey"`
	CurrentDay           int            `json:"currentDay"`
	CurrentWeek          int            `json:"currentWeek"`
	DaysRemaining        int            `json:"daysRemaining"`
	CompletionPercentage int            `json:"completionPercentage"`
}

// CurrentDay 旅程第几天，范围 [1, 48]
func CurrentDay(journey *model.Journey, now time.Time) int {
	start, err := util.ParseDate(journey.StartDate, now.Location())
	if err != nil {
		return 1
	}
	day := util.DaysBetween(start, now) + 1
	if day < 1 {
		return 1
	}
	if day > util.JourneyDays {
		return util.JourneyDays
	}
	return day
}

// JourneyDate 旅程第 day 天对应的日期
func JourneyDate(journey *model.Journey, day int) string {
	return nextDate(journey.StartDate, day-1)
}

type JourneyService struct {
	DB          *gorm.DB
	JourneyRepo *repository.JourneyRepository
	Clock       util.Clock
}

func NewJourneyService(db *gorm.DB, journeyRepo *repository.JourneyRepository, clock util.Clock) *JourneyService {
	return &JourneyService{DB: db, JourneyRepo: journeyRepo, Clock: clock}
}

// Active 返回进行中的旅程，没有时返回 ErrJourneyNotFound
func (s *JourneyService) Active(ctx context.Context, userID uint) (*model.Journey, error) {
	journey, err := s.JourneyRepo.FindActive(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrJourneyNotFound
	}
	if err != nil {
		return nil, util.StoreError(err)
	}
	return journey, nil
}

func (s *JourneyService) view(journey *model.Journey) *JourneyView {
	day := CurrentDay(journey, s.Clock.Now())
	return &JourneyView{
		Journey:              journey,
		CurrentDay:           day,
		CurrentWeek:          int(math.Ceil(float64(day) / 7)),
		DaysRemaining:        util.JourneyDays - day,
		CompletionPercentage: int(math.Round(float64(day) / float64(util.JourneyDays) * 100)),
	}
}

func (s *JourneyService) Current(ctx context.Context, userID uint) (*JourneyView, error) {
	journey, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(journey), nil
}

// Start 开启新旅程，已有的进行中旅程被替换。startDate 为空表示今天
func (s *JourneyService) Start(ctx context.Context, userID uint, startDate string) (*JourneyView, error) {
	now := s.Clock.Now()
	today := util.FormatDate(now)
	if startDate == "" {
		startDate = today
	}
	if _, err := util.ParseDate(startDate, now.Location()); err != nil {
		return nil, err
	}
	if startDate > today {
		return nil, util.InvalidInputf("start date %s is in the future", startDate)
	}
	if nextDate(startDate, util.JourneyDays-1) < today {
		return nil, util.InvalidInputf("start date %s is more than %d days ago", startDate, util.JourneyDays)
	}

	uid := userID
	journey := &model.Journey{
		UserID:       userID,
		StartDate:    startDate,
		EndDate:      nextDate(startDate, util.JourneyDays-1),
		IsActive:     true,
		ActiveUserID: &uid,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.JourneyRepo.WithTx(tx)
		replaced, err := repo.DeactivateActive(ctx, userID, nil)
		if err != nil {
			return err
		}
		if replaced > 0 {
			logger.Log.Info("active journey replaced", zap.Uint("user_id", userID))
		}
		return repo.Create(ctx, journey)
	})
	if err != nil {
		return nil, util.StoreError(err)
	}
	return s.view(journey), nil
}

// Complete 到达最后一天后结束旅程
func (s *JourneyService) Complete(ctx context.Context, userID uint) (*JourneyView, error) {
	journey, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	if util.DaysBetween(mustDate(journey.StartDate, now.Location()), now)+1 < util.JourneyDays {
		return nil, util.ErrJourneyNotFinished
	}

	if _, err := s.JourneyRepo.DeactivateActive(ctx, userID, &now); err != nil {
		return nil, util.StoreError(err)
	}
	journey.IsActive = false
	journey.ActiveUserID = nil
	journey.CompletedAt = &now
	return s.view(journey), nil
}

// InWindow 判断 date 是否落在旅程已开始且未结束的日期内
func InWindow(journey *model.Journey, date string, now time.Time) bool {
	upper := journey.EndDate
	if today := util.FormatDate(now); today < upper {
		upper = today
	}
	return date >= journey.StartDate && date <= upper
}

func mustDate(s string, loc *time.Location) time.Time {
	t, err := util.ParseDate(s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

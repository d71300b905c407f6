package service

import (
	"context"
	"errors"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"sort"
	"time"

	"gorm.io/gorm"
)

// StreakResult 由打卡历史推导出的连续天数
type StreakResult struct {
	Current         int
	Longest         int
	LastCheckinDate string
}

func nextDate(d string, n int) string {
	t, err := time.Parse(util.DateFormat, d)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(util.DateFormat)
}

// ComputeStreak 从 today 向前数连续有完成记录的天数，今天尚未打卡不算中断。
// priorLongest 保证最长记录单调不减。
func ComputeStreak(activeDates []string, today string, priorLongest int) StreakResult {
	set := make(map[string]bool, len(activeDates))
	last := ""
	for _, d := range activeDates {
		set[d] = true
		if d > last && d <= today {
			last = d
		}
	}

	current := 0
	day := today
	if !set[day] {
		day = nextDate(today, -1)
	}
	for set[day] {
		current++
		day = nextDate(day, -1)
	}

	longest := priorLongest
	if run := longestRun(activeDates); run > longest {
		longest = run
	}
	if current > longest {
		longest = current
	}

	return StreakResult{Current: current, Longest: longest, LastCheckinDate: last}
}

// longestRun 历史上最长的连续天数
func longestRun(dates []string) int {
	if len(dates) == 0 {
		return 0
	}
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i] == sorted[i-1]:
			continue
		case nextDate(sorted[i-1], 1) == sorted[i]:
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// AtRisk 今天还没有任何完成且已过中午
func AtRisk(completedToday int, now time.Time) bool {
	return completedToday == 0 && now.Hour() >= 12
}

type StreakService struct {
	DB          *gorm.DB
	CheckinRepo *repository.CheckinRepository
	StreakRepo  *repository.StreakRepository
	Clock       util.Clock
}

func NewStreakService(db *gorm.DB, checkinRepo *repository.CheckinRepository, streakRepo *repository.StreakRepository, clock util.Clock) *StreakService {
	return &StreakService{
		DB:          db,
		CheckinRepo: checkinRepo,
		StreakRepo:  streakRepo,
		Clock:       clock,
	}
}

// Recompute 重新推导并写回缓存，tx 为空时使用默认连接
func (s *StreakService) Recompute(ctx context.Context, tx *gorm.DB, journey *model.Journey) (*model.Streak, error) {
	if tx == nil {
		tx = s.DB
	}
	checkins := s.CheckinRepo.WithTx(tx)
	streaks := s.StreakRepo.WithTx(tx)

	userID, journeyID := journey.UserID, journey.ID
	dates, err := checkins.ActiveDates(ctx, userID, journey.StartDate, journey.EndDate)
	if err != nil {
		return nil, util.StoreError(err)
	}

	prior := 0
	stored, err := streaks.Find(ctx, userID, journeyID)
	switch {
	case err == nil:
		prior = stored.LongestStreak
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, util.StoreError(err)
	}

	now := s.Clock.Now()
	res := ComputeStreak(dates, util.FormatDate(now), prior)
	streak := &model.Streak{
		UserID:          userID,
		JourneyID:       journeyID,
		CurrentStreak:   res.Current,
		LongestStreak:   res.Longest,
		LastCheckinDate: res.LastCheckinDate,
		UpdatedAt:       now,
	}
	if err := streaks.Upsert(ctx, streak); err != nil {
		return nil, util.StoreError(err)
	}
	return streak, nil
}

// StreakCheck 缓存值与重新推导值的对比结果
type StreakCheck struct {
	UserID     uint         `json:"userId"`
	JourneyID  uint         `json:"journeyId"`
	Stored     StreakResult `json:"stored"`
	Recomputed StreakResult `json:"recomputed"`
}

// Consistent 当前值一致，且缓存的最长记录不低于历史推导值
func (c StreakCheck) Consistent() bool {
	return c.Stored.Current == c.Recomputed.Current && c.Stored.Longest >= c.Recomputed.Longest
}

// Verify 不写库，只对比
func (s *StreakService) Verify(ctx context.Context, journey *model.Journey) (*StreakCheck, error) {
	userID, journeyID := journey.UserID, journey.ID
	dates, err := s.CheckinRepo.ActiveDates(ctx, userID, journey.StartDate, journey.EndDate)
	if err != nil {
		return nil, util.StoreError(err)
	}

	check := &StreakCheck{
		UserID:     userID,
		JourneyID:  journeyID,
		Recomputed: ComputeStreak(dates, util.FormatDate(s.Clock.Now()), 0),
	}

	stored, err := s.StreakRepo.Find(ctx, userID, journeyID)
	switch {
	case err == nil:
		check.Stored = StreakResult{Current: stored.CurrentStreak, Longest: stored.LongestStreak, LastCheckinDate: stored.LastCheckinDate}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, util.StoreError(err)
	}
	return check, nil
}

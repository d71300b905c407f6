package service

import (
	"context"
	"errors"
	"math"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/tracing"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// JourneyReport 旅程报表，只读投影
type JourneyReport struct {
	UserID         uint               `json:"userId"`
	GeneratedAt    time.Time          `json:"generatedAt"`
	Journey        ReportJourney      `json:"journey"`
	Summary        ReportSummary      `json:"summary"`
	PillarProgress []PillarBreakdown  `json:"pillarBreakdown"`
	WeeklyProgress []WeeklyBreakdown  `json:"weeklyProgress"`
	Assessment     AssessmentProgress `json:"assessmentProgress"`
	TopStrengths   []string           `json:"topStrengths"`
	GrowthAreas    []string           `json:"areasForGrowth"`
}

type ReportJourney struct {
	ID                   uint   `json:"id"`
	StartDate            string `json:"startDate"`
	EndDate              string `json:"endDate"`
	CurrentDay           int    `json:"currentDay"`
	CompletionPercentage int    `json:"completionPercentage"`
}

// ReportSummary 汇总计数，CSV 导出后可原样解析回来
type ReportSummary struct {
	TotalCompletions int `json:"totalCompletions"`
	UniqueDaysActive int `json:"uniqueDaysActive"`
	TotalKarma       int `json:"totalKarma"`
	CurrentStreak    int `json:"currentStreak"`
	LongestStreak    int `json:"longestStreak"`
	BadgesEarned     int `json:"badgesEarned"`
}

type PillarBreakdown struct {
	PillarID       uint                 `json:"pillarId"`
	Name           string               `json:"name"`
	Category       model.PillarCategory `json:"category"`
	CompletedDays  int                  `json:"completedDays"`
	CompletionRate int                  `json:"completionRate"`
	TotalMinutes   int                  `json:"totalMinutes"`
}

type WeeklyBreakdown struct {
	Week          int      `json:"week"`
	Completions   int      `json:"pillarsCompleted"`
	AvgCompletion int      `json:"avgCompletion"`
	MoodAverage   *float64 `json:"moodAvg,omitempty"`
}

// ScorePoint 某次自评的综合分
type ScorePoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"overallScore"`
}

type AssessmentProgress struct {
	Baseline    *ScorePoint `json:"baseline"`
	Latest      *ScorePoint `json:"latest"`
	Improvement float64     `json:"improvement"`
}

type ReportService struct {
	CheckinRepo    *repository.CheckinRepository
	KarmaRepo      *repository.KarmaRepository
	StreakRepo     *repository.StreakRepository
	BadgeRepo      *repository.BadgeRepository
	AssessmentRepo *repository.AssessmentRepository
	MoodRepo       *repository.MoodRepository
	Journeys       *JourneyService
	Clock          util.Clock
}

func NewReportService(
	checkinRepo *repository.CheckinRepository,
	karmaRepo *repository.KarmaRepository,
	streakRepo *repository.StreakRepository,
	badgeRepo *repository.BadgeRepository,
	assessmentRepo *repository.AssessmentRepository,
	moodRepo *repository.MoodRepository,
	journeys *JourneyService,
	clock util.Clock,
) *ReportService {
	return &ReportService{
		CheckinRepo:    checkinRepo,
		KarmaRepo:      karmaRepo,
		StreakRepo:     streakRepo,
		BadgeRepo:      badgeRepo,
		AssessmentRepo: assessmentRepo,
		MoodRepo:       moodRepo,
		Journeys:       journeys,
		Clock:          clock,
	}
}

type reportSources struct {
	checkins     []model.Checkin
	karma        int
	storedStreak *model.Streak
	badges       int64
	baseline     *model.SelfAssessment
	latest       *model.SelfAssessment
	moods        []model.MoodLog
}

func (s *ReportService) load(ctx context.Context, userID uint, journey *model.Journey) (*reportSources, error) {
	src := &reportSources{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		src.checkins, err = s.CheckinRepo.ListCompletedInWindow(gctx, userID, journey.StartDate, journey.EndDate)
		return err
	})
	g.Go(func() error {
		var err error
		src.karma, err = s.KarmaRepo.Balance(gctx, userID)
		return err
	})
	g.Go(func() error {
		streak, err := s.StreakRepo.Find(gctx, userID, journey.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		src.storedStreak = streak
		return err
	})
	g.Go(func() error {
		var err error
		src.badges, err = s.BadgeRepo.CountByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		baseline, err := s.AssessmentRepo.FirstBaseline(gctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		src.baseline = baseline
		return err
	})
	g.Go(func() error {
		latest, err := s.AssessmentRepo.Latest(gctx, userID, 1)
		if len(latest) > 0 {
			src.latest = &latest[0]
		}
		return err
	})
	g.Go(func() error {
		var err error
		src.moods, err = s.MoodRepo.ListRange(gctx, userID, journey.StartDate, journey.EndDate)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, util.StoreError(err)
	}
	return src, nil
}

// Build 生成报表，没有进行中的旅程时返回 ErrJourneyNotFound
func (s *ReportService) Build(ctx context.Context, userID uint) (report *JourneyReport, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.build", userID)
	defer func() { tracing.End(span, err) }()

	journey, err := s.Journeys.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	src, err := s.load(ctx, userID, journey)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	currentDay := CurrentDay(journey, now)
	dates := uniqueDates(src.checkins)

	prior := 0
	if src.storedStreak != nil {
		prior = src.storedStreak.LongestStreak
	}
	streak := ComputeStreak(dates, util.FormatDate(now), prior)

	report = &JourneyReport{
		UserID:      userID,
		GeneratedAt: now,
		Journey: ReportJourney{
			ID:                   journey.ID,
			StartDate:            journey.StartDate,
			EndDate:              journey.EndDate,
			CurrentDay:           currentDay,
			CompletionPercentage: int(math.Round(float64(currentDay) / float64(util.JourneyDays) * 100)),
		},
		Summary: ReportSummary{
			TotalCompletions: len(src.checkins),
			UniqueDaysActive: len(dates),
			TotalKarma:       src.karma,
			CurrentStreak:    streak.Current,
			LongestStreak:    streak.Longest,
			BadgesEarned:     int(src.badges),
		},
		TopStrengths: []string{},
		GrowthAreas:  []string{},
	}

	rates := PillarRates(src.checkins, currentDay)
	for _, r := range rates {
		report.PillarProgress = append(report.PillarProgress, PillarBreakdown{
			PillarID:       r.Pillar.ID,
			Name:           r.Pillar.Name,
			Category:       r.Pillar.Category,
			CompletedDays:  r.CompletedDays,
			CompletionRate: r.Rate,
			TotalMinutes:   r.TotalMinutes,
		})
	}
	for _, r := range Strengths(rates, 3) {
		report.TopStrengths = append(report.TopStrengths, r.Pillar.Name)
	}
	for _, r := range GrowthAreas(rates, 3) {
		report.GrowthAreas = append(report.GrowthAreas, r.Pillar.Name)
	}

	report.WeeklyProgress = weeklyBreakdown(journey, currentDay, src.checkins, src.moods)
	report.Assessment = assessmentProgress(src.baseline, src.latest)
	return report, nil
}

// weeklyBreakdown 以旅程第 1 天为起点每 7 天一组，最后一周只统计已进行的天数
func weeklyBreakdown(journey *model.Journey, currentDay int, checkins []model.Checkin, moods []model.MoodLog) []WeeklyBreakdown {
	weeks := int(math.Ceil(float64(currentDay) / 7))
	out := make([]WeeklyBreakdown, 0, weeks)
	for w := 1; w <= weeks; w++ {
		firstDay := (w-1)*7 + 1
		lastDay := w * 7
		if lastDay > currentDay {
			lastDay = currentDay
		}
		from := JourneyDate(journey, firstDay)
		to := JourneyDate(journey, lastDay)
		daysInWeek := lastDay - firstDay + 1

		completions := 0
		for _, c := range checkins {
			if c.Completed && c.CheckinDate >= from && c.CheckinDate <= to {
				completions++
			}
		}

		wb := WeeklyBreakdown{
			Week:          w,
			Completions:   completions,
			AvgCompletion: int(math.Round(float64(completions) / float64(daysInWeek*model.PillarCount) * 100)),
		}

		var moodSum, moodCount int
		for _, m := range moods {
			if m.LogDate >= from && m.LogDate <= to {
				moodSum += m.MoodScore
				moodCount++
			}
		}
		if moodCount > 0 {
			avg := model.RoundTo(float64(moodSum)/float64(moodCount), 1)
			wb.MoodAverage = &avg
		}
		out = append(out, wb)
	}
	return out
}

func assessmentProgress(baseline, latest *model.SelfAssessment) AssessmentProgress {
	var p AssessmentProgress
	if baseline != nil {
		p.Baseline = &ScorePoint{Date: baseline.AssessmentDate, Score: model.RoundTo(baseline.CompositeScore(), 1)}
	}
	if latest != nil {
		p.Latest = &ScorePoint{Date: latest.AssessmentDate, Score: model.RoundTo(latest.CompositeScore(), 1)}
	}
	if p.Baseline != nil && p.Latest != nil {
		p.Improvement = model.RoundTo(p.Latest.Score-p.Baseline.Score, 1)
	}
	return p
}

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
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// MaxInsights 每次生成保留的候选数量
const MaxInsights = 5

const (
	insightMoodWindow       = 14
	insightAssessmentWindow = 4
)

// InsightList 有效洞察及未读数量
type InsightList struct {
	Insights    []model.Insight `json:"insights"`
	UnreadCount int             `json:"unreadCount"`
}

type InsightService struct {
	InsightRepo    *repository.InsightRepository
	CheckinRepo    *repository.CheckinRepository
	MoodRepo       *repository.MoodRepository
	AssessmentRepo *repository.AssessmentRepository
	Journeys       *JourneyService
	Clock          util.Clock
	Rules          []InsightRule

	group singleflight.Group
}

func NewInsightService(
	insightRepo *repository.InsightRepository,
	checkinRepo *repository.CheckinRepository,
	moodRepo *repository.MoodRepository,
	assessmentRepo *repository.AssessmentRepository,
	journeys *JourneyService,
	clock util.Clock,
) *InsightService {
	return &InsightService{
		InsightRepo:    insightRepo,
		CheckinRepo:    checkinRepo,
		MoodRepo:       moodRepo,
		AssessmentRepo: assessmentRepo,
		Journeys:       journeys,
		Clock:          clock,
		Rules:          InsightRules,
	}
}

// LoadHistory 并发加载规则所需的数据
func (s *InsightService) LoadHistory(ctx context.Context, userID uint) (*InsightHistory, error) {
	journey, err := s.Journeys.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	h := &InsightHistory{
		Now:        now,
		Journey:    journey,
		CurrentDay: CurrentDay(journey, now),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checkins, err := s.CheckinRepo.ListCompletedInWindow(gctx, userID, journey.StartDate, journey.EndDate)
		h.Checkins = checkins
		return err
	})
	g.Go(func() error {
		moods, err := s.MoodRepo.Recent(gctx, userID, insightMoodWindow)
		h.Moods = moods
		return err
	})
	g.Go(func() error {
		assessments, err := s.AssessmentRepo.Latest(gctx, userID, insightAssessmentWindow)
		h.Assessments = assessments
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, util.StoreError(err)
	}

	h.Streak = ComputeStreak(uniqueDates(h.Checkins), util.FormatDate(now), 0).Current
	return h, nil
}

// RunRules 逐条求值，单条规则 panic 只跳过该规则；按优先级稳定排序后取前 MaxInsights 条
func RunRules(h *InsightHistory, rules []InsightRule) []model.InsightDraft {
	drafts := make([]model.InsightDraft, 0, len(rules))
	for _, rule := range rules {
		if d := evalRule(h, rule); d != nil {
			drafts = append(drafts, *d)
		}
	}
	sort.SliceStable(drafts, func(i, j int) bool { return drafts[i].Priority > drafts[j].Priority })
	if len(drafts) > MaxInsights {
		drafts = drafts[:MaxInsights]
	}
	return drafts
}

func evalRule(h *InsightHistory, rule InsightRule) (draft *model.InsightDraft) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RuleFailures.WithLabelValues("insight", rule.Name).Inc()
			logger.Log.Error("insight rule failed", zap.String("rule", rule.Name), zap.Any("panic", r))
			draft = nil
		}
	}()
	return rule.Eval(h)
}

// Generate 生成候选洞察，没有进行中的旅程时返回空列表
func (s *InsightService) Generate(ctx context.Context, userID uint) (drafts []model.InsightDraft, err error) {
	ctx, span := tracing.StartSpan(ctx, "insight.generate", userID)
	defer func() { tracing.End(span, err) }()

	h, err := s.LoadHistory(ctx, userID)
	if errors.Is(err, util.ErrJourneyNotFound) {
		return []model.InsightDraft{}, nil
	}
	if err != nil {
		return nil, err
	}

	drafts = RunRules(h, s.Rules)
	monitoring.InsightsGenerated.WithLabelValues("generated").Add(float64(len(drafts)))
	return drafts, nil
}

// SaveInsights 跳过标题与有效洞察重复的候选，其余写入
func (s *InsightService) SaveInsights(ctx context.Context, userID uint, drafts []model.InsightDraft) ([]model.Insight, error) {
	now := s.Clock.Now()
	titles, err := s.InsightRepo.ActiveTitles(ctx, userID, now)
	if err != nil {
		return nil, util.StoreError(err)
	}
	existing := make(map[string]bool, len(titles))
	for _, t := range titles {
		existing[t] = true
	}

	saved := make([]model.Insight, 0, len(drafts))
	for _, d := range drafts {
		if existing[d.Title] {
			continue
		}
		insight := model.Insight{
			UserID:      userID,
			Type:        d.Type,
			Category:    d.Category,
			Title:       d.Title,
			Description: d.Description,
			Data:        d.Data,
			Priority:    d.Priority,
			ExpiresAt:   now.Add(d.TTL()),
		}
		if err := s.InsightRepo.Create(ctx, &insight); err != nil {
			logger.Log.Error("save insight failed",
				zap.Uint("user_id", userID),
				zap.String("title", d.Title),
				zap.Error(err))
			continue
		}
		existing[d.Title] = true
		saved = append(saved, insight)
	}
	monitoring.InsightsGenerated.WithLabelValues("saved").Add(float64(len(saved)))
	return saved, nil
}

// Refresh 生成并保存，同一用户的并发刷新合并为一次
func (s *InsightService) Refresh(ctx context.Context, userID uint) (int, error) {
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		drafts, err := s.Generate(ctx, userID)
		if err != nil {
			return 0, err
		}
		saved, err := s.SaveInsights(ctx, userID, drafts)
		if err != nil {
			return 0, err
		}
		return len(saved), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// RefreshJob 供异步队列使用
func (s *InsightService) RefreshJob(userID uint) Job {
	return Job{
		Name:   "insight_refresh",
		UserID: userID,
		Run: func(ctx context.Context) error {
			_, err := s.Refresh(ctx, userID)
			return err
		},
	}
}

// ListActive 有效洞察，未读在前
func (s *InsightService) ListActive(ctx context.Context, userID uint) (*InsightList, error) {
	insights, err := s.InsightRepo.ListActive(ctx, userID, s.Clock.Now())
	if err != nil {
		return nil, util.StoreError(err)
	}
	unread := 0
	for _, i := range insights {
		if !i.IsRead {
			unread++
		}
	}
	return &InsightList{Insights: insights, UnreadCount: unread}, nil
}

func (s *InsightService) owned(ctx context.Context, userID uint, id string) error {
	_, err := s.InsightRepo.FindByIDAndUser(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrInsightNotFound
	}
	return util.StoreError(err)
}

func (s *InsightService) MarkRead(ctx context.Context, userID uint, id string) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return util.StoreError(s.InsightRepo.MarkRead(ctx, id, userID))
}

func (s *InsightService) Dismiss(ctx context.Context, userID uint, id string) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return util.StoreError(s.InsightRepo.Dismiss(ctx, id, userID))
}

func (s *InsightService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.InsightRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, util.StoreError(err)
	}
	return n, nil
}

// PurgeExpired 删除所有已过期的洞察
func (s *InsightService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.InsightRepo.PurgeExpired(ctx, s.Clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired insights: %w", util.StoreError(err))
	}
	return n, nil
}

package service

import (
	"encoding/json"
	"testing"
	"time"

	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleJourney = &model.Journey{StartDate: "2026-03-02", EndDate: "2026-04-18", IsActive: true}

// doneOn 旅程第 days 天各完成 pillars
func doneOn(days []int, pillars ...uint) []model.Checkin {
	var out []model.Checkin
	for _, d := range days {
		for _, p := range pillars {
			out = append(out, model.Checkin{PillarID: p, CheckinDate: JourneyDate(ruleJourney, d), Completed: true})
		}
	}
	return out
}

func dayRange(from, to int) []int {
	var days []int
	for d := from; d <= to; d++ {
		days = append(days, d)
	}
	return days
}

func historyOn(day int) *InsightHistory {
	now := testStart.AddDate(0, 0, day-1)
	return &InsightHistory{Now: now, Journey: ruleJourney, CurrentDay: day}
}

func TestStreakRule(t *testing.T) {
	h := historyOn(10)

	h.Streak = 2
	assert.Nil(t, streakRule(h))

	h.Streak = 3
	d := streakRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "3 Day Streak Building", d.Title)
	assert.Contains(t, d.Description, "4 more days")
	assert.Equal(t, model.InsightPattern, d.Type)

	h.Streak = 9
	d = streakRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "9 Day Streak!", d.Title)
	assert.Equal(t, model.InsightMilestone, d.Type)
	assert.Equal(t, 10, d.Priority)
}

func TestPillarRules(t *testing.T) {
	h := historyOn(10)
	h.Checkins = append(doneOn(dayRange(1, 8), 4), doneOn([]int{2, 5, 9}, 7)...)

	strong := strongestPillarRule(h)
	require.NotNil(t, strong)
	assert.Equal(t, "Breathing + Meditation is Your Strength", strong.Title)
	require.NotNil(t, strong.Data.CompletionRate)
	assert.Equal(t, 80, *strong.Data.CompletionRate)

	weak := weakestPillarRule(h)
	require.NotNil(t, weak)
	assert.Equal(t, "Gratitude Practice Needs Attention", weak.Title)
	require.NotNil(t, weak.Data.CompletionRate)
	assert.Equal(t, 30, *weak.Data.CompletionRate)
	assert.NotEmpty(t, weak.Data.SuggestedAction)

	// 都在阈值之间时两条规则都不触发
	h.Checkins = doneOn(dayRange(1, 5), 4)
	assert.Nil(t, strongestPillarRule(h))
	assert.Nil(t, weakestPillarRule(h))
}

func TestWeekdayRule(t *testing.T) {
	// 第 15 天是周一，之前的周一是第 1 天和第 8 天
	h := historyOn(15)
	require.Equal(t, time.Monday, h.Now.Weekday())

	h.Checkins = doneOn([]int{1, 8}, 1, 2)
	d := weekdayRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "Mondays Are Challenging", d.Title)
	require.NotNil(t, d.Data.CompletionRate)
	assert.Equal(t, 18, *d.Data.CompletionRate)

	h.Checkins = doneOn([]int{1, 8}, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	assert.Nil(t, weekdayRule(h))

	// 之前的周一全部缺席，0% 需要出现在数据里
	h.Checkins = nil
	d = weekdayRule(h)
	require.NotNil(t, d)
	require.NotNil(t, d.Data.CompletionRate)
	assert.Equal(t, 0, *d.Data.CompletionRate)
	raw, err := json.Marshal(d.Data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"completionRate":0`)

	// 只有一个样本
	h = historyOn(8)
	h.Checkins = doneOn([]int{1}, 1)
	assert.Nil(t, weekdayRule(h))
}

func moods(scores ...int) []model.MoodLog {
	out := make([]model.MoodLog, 0, len(scores))
	for _, s := range scores {
		out = append(out, model.MoodLog{MoodScore: s, EnergyLevel: 5, StressLevel: 5})
	}
	return out
}

func TestMoodRule(t *testing.T) {
	h := historyOn(10)

	h.Moods = moods(5, 5, 5, 5)
	assert.Nil(t, moodRule(h))

	h.Moods = moods(5, 4, 4, 5, 4)
	d := moodRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "Positive Mood Trend", d.Title)
	assert.Equal(t, 4.4, d.Data.MoodAverage)

	h.Moods = moods(2, 2, 3, 2, 2)
	d = moodRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "Focus on Stress Relief", d.Title)
	assert.Equal(t, model.InsightRecommendation, d.Type)

	h.Moods = moods(3, 3, 3, 3, 3)
	assert.Nil(t, moodRule(h))
}

func TestMilestoneRule(t *testing.T) {
	d := milestoneRule(historyOn(21))
	require.NotNil(t, d)
	assert.Equal(t, "Day 21 Milestone!", d.Title)
	assert.Equal(t, 7*24*time.Hour, d.TTL())

	assert.Nil(t, milestoneRule(historyOn(20)))
	assert.Nil(t, milestoneRule(historyOn(35)))
}

func assessmentAt(at time.Time, typ model.AssessmentType, score int) model.SelfAssessment {
	return model.SelfAssessment{
		AssessmentDate:      at,
		AssessmentType:      typ,
		StressLevel:         11 - score,
		SleepQuality:        score,
		EnergyLevel:         score,
		MentalClarity:       score,
		PhysicalFitness:     score,
		EmotionalStability:  score,
		SpiritualConnection: score,
		LifeSatisfaction:    score,
	}
}

func TestWeeklyAssessmentRule(t *testing.T) {
	h := historyOn(14)
	d := weeklyAssessmentRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "Weekly Check-in Due", d.Title)

	// 基线不算每周自评
	h.Assessments = []model.SelfAssessment{assessmentAt(h.Now.AddDate(0, 0, -1), model.AssessmentBaseline, 5)}
	assert.NotNil(t, weeklyAssessmentRule(h))

	h.Assessments = []model.SelfAssessment{assessmentAt(h.Now.AddDate(0, 0, -3), model.AssessmentWeekly, 5)}
	assert.Nil(t, weeklyAssessmentRule(h))

	assert.Nil(t, weeklyAssessmentRule(historyOn(13)))
}

func TestWellbeingTrendRule(t *testing.T) {
	h := historyOn(14)
	h.Assessments = []model.SelfAssessment{assessmentAt(h.Now, model.AssessmentWeekly, 7)}
	assert.Nil(t, wellbeingTrendRule(h))

	h.Assessments = append(h.Assessments, assessmentAt(h.Now.AddDate(0, 0, -7), model.AssessmentBaseline, 5))
	d := wellbeingTrendRule(h)
	require.NotNil(t, d)
	assert.Equal(t, "Measurable Improvement!", d.Title)
	require.NotNil(t, d.Data.Trend)
	assert.Equal(t, 50.0, d.Data.Trend.Previous)
	assert.Equal(t, 70.0, d.Data.Trend.Latest)

	h.Assessments[0] = assessmentAt(h.Now, model.AssessmentWeekly, 5)
	assert.Nil(t, wellbeingTrendRule(h))
}

func TestRunRules(t *testing.T) {
	h := historyOn(10)
	fixed := func(title string, priority int) InsightRule {
		return InsightRule{Name: title, Eval: func(*InsightHistory) *model.InsightDraft {
			return &model.InsightDraft{Title: title, Priority: priority}
		}}
	}
	rules := []InsightRule{
		fixed("a", 3),
		{Name: "broken", Eval: func(h *InsightHistory) *model.InsightDraft {
			_ = h.Assessments[5]
			return nil
		}},
		fixed("b", 9),
		fixed("c", 3),
		fixed("d", 1),
		fixed("e", 7),
		fixed("f", 0),
	}

	drafts := RunRules(h, rules)
	require.Len(t, drafts, MaxInsights)
	titles := make([]string, 0, len(drafts))
	for _, d := range drafts {
		titles = append(titles, d.Title)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, titles)
}

func TestInsightService_GenerateWithoutJourney(t *testing.T) {
	e := newTestEnv(t)

	drafts, err := e.insights.Generate(e.ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, drafts)
	assert.Empty(t, drafts)
}

func TestInsightService_RefreshDedupesTitles(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)
	for day := 1; day <= 3; day++ {
		e.complete(1, 1)
		if day < 3 {
			e.nextDay()
		}
	}

	n, err := e.insights.Refresh(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = e.insights.Refresh(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	list, err := e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, list.Insights, 2)
	assert.Equal(t, 2, list.UnreadCount)
	assert.Equal(t, "5 AM Initiation is Your Strength", list.Insights[0].Title)
	assert.Equal(t, "3 Day Streak Building", list.Insights[1].Title)
}

func TestInsightService_ReadAndDismiss(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)
	for day := 1; day <= 3; day++ {
		e.complete(1, 1)
		if day < 3 {
			e.nextDay()
		}
	}
	_, err := e.insights.Refresh(e.ctx, 1)
	require.NoError(t, err)

	list, err := e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, list.Insights, 2)
	top := list.Insights[0]

	// 其他用户看不到
	assert.ErrorIs(t, e.insights.MarkRead(e.ctx, 2, top.ID), util.ErrNotFound)
	assert.ErrorIs(t, e.insights.Dismiss(e.ctx, 2, top.ID), util.ErrNotFound)
	assert.ErrorIs(t, e.insights.MarkRead(e.ctx, 1, "missing"), util.ErrNotFound)

	require.NoError(t, e.insights.MarkRead(e.ctx, 1, top.ID))
	list, err = e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, list.UnreadCount)
	// 已读排在后面
	assert.Equal(t, top.ID, list.Insights[1].ID)

	require.NoError(t, e.insights.Dismiss(e.ctx, 1, top.ID))
	list, err = e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, list.Insights, 1)

	updated, err := e.insights.MarkAllRead(e.ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)
	list, err = e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, list.UnreadCount)
}

func TestInsightService_Expiry(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	saved, err := e.insights.SaveInsights(e.ctx, 1, []model.InsightDraft{
		{Type: model.InsightPattern, Title: "short lived", Priority: 1},
		{Type: model.InsightMilestone, Title: "Day 7 Milestone!", Priority: 10},
		{Type: model.InsightPattern, Title: "short lived", Priority: 1},
	})
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	e.clock.Advance(25 * time.Hour)
	list, err := e.insights.ListActive(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, list.Insights, 1)
	assert.Equal(t, "Day 7 Milestone!", list.Insights[0].Title)

	// 过期后同标题可以重新生成
	saved, err = e.insights.SaveInsights(e.ctx, 1, []model.InsightDraft{{Type: model.InsightPattern, Title: "short lived"}})
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	purged, err := e.insights.PurgeExpired(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}

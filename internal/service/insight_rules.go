package service

import (
	"fmt"
	"math"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/util"
	"time"
)

// InsightHistory 规则的输入，加载一次后只读
type InsightHistory struct {
	Now        time.Time
	Journey    *model.Journey
	CurrentDay int
	Streak     int
	// Checkins 旅程内已完成的打卡
	Checkins []model.Checkin
	// Moods 最近的心情记录，最新的在前
	Moods []model.MoodLog
	// Assessments 最近的自评，最新的在前
	Assessments []model.SelfAssessment
}

// InsightRule 纯函数规则，不满足条件时返回 nil
type InsightRule struct {
	Name string
	Eval func(h *InsightHistory) *model.InsightDraft
}

// InsightRules 规则按此顺序求值，优先级相同时先出现的排在前面
var InsightRules = []InsightRule{
	{Name: "streak", Eval: streakRule},
	{Name: "strongest_pillar", Eval: strongestPillarRule},
	{Name: "weakest_pillar", Eval: weakestPillarRule},
	{Name: "weekday_pattern", Eval: weekdayRule},
	{Name: "mood_trend", Eval: moodRule},
	{Name: "journey_milestone", Eval: milestoneRule},
	{Name: "weekly_assessment", Eval: weeklyAssessmentRule},
	{Name: "wellbeing_trend", Eval: wellbeingTrendRule},
}

func streakRule(h *InsightHistory) *model.InsightDraft {
	switch {
	case h.Streak >= 7:
		return &model.InsightDraft{
			Type:        model.InsightMilestone,
			Category:    "streak",
			Title:       fmt.Sprintf("%d Day Streak!", h.Streak),
			Description: fmt.Sprintf("You've practiced for %d days straight. Consistency like this is what turns practices into habits.", h.Streak),
			Data:        &model.InsightData{Streak: h.Streak},
			Priority:    10,
		}
	case h.Streak >= 3:
		return &model.InsightDraft{
			Type:        model.InsightPattern,
			Category:    "streak",
			Title:       fmt.Sprintf("%d Day Streak Building", h.Streak),
			Description: fmt.Sprintf("You're building momentum. %d more days to reach a full week!", 7-h.Streak),
			Data:        &model.InsightData{Streak: h.Streak},
			Priority:    5,
		}
	}
	return nil
}

func strongestPillarRule(h *InsightHistory) *model.InsightDraft {
	var best *PillarRate
	rates := PillarRates(h.Checkins, h.CurrentDay)
	for i := range rates {
		if best == nil || rates[i].Rate > best.Rate {
			best = &rates[i]
		}
	}
	if best == nil || best.Rate < StrengthThreshold {
		return nil
	}
	return &model.InsightDraft{
		Type:        model.InsightStrength,
		Category:    "pillar",
		Title:       fmt.Sprintf("%s is Your Strength", best.Pillar.Name),
		Description: fmt.Sprintf("With %d%% consistency, this pillar is becoming a core habit.", best.Rate),
		Data:        &model.InsightData{PillarID: best.Pillar.ID, PillarName: best.Pillar.Name, CompletionRate: ratePtr(best.Rate)},
		Priority:    8,
	}
}

// ratePtr 0% 也是有效的完成率，序列化时需要保留
func ratePtr(rate int) *int { return &rate }

func weakestPillarRule(h *InsightHistory) *model.InsightDraft {
	var worst *PillarRate
	rates := PillarRates(h.Checkins, h.CurrentDay)
	for i := range rates {
		if rates[i].Rate == 0 {
			continue
		}
		if worst == nil || rates[i].Rate < worst.Rate {
			worst = &rates[i]
		}
	}
	if worst == nil || worst.Rate >= GrowthThreshold {
		return nil
	}
	return &model.InsightDraft{
		Type:        model.InsightWeakness,
		Category:    "pillar",
		Title:       fmt.Sprintf("%s Needs Attention", worst.Pillar.Name),
		Description: fmt.Sprintf("Only %d%% completion so far.", worst.Rate),
		Data: &model.InsightData{
			PillarID:        worst.Pillar.ID,
			PillarName:      worst.Pillar.Name,
			CompletionRate:  ratePtr(worst.Rate),
			SuggestedAction: fmt.Sprintf("Link %s to an existing habit or set a fixed time for it.", worst.Pillar.Name),
		},
		Priority: 7,
	}
}

// weekdayRule 统计今天之前、与今天同一星期几的旅程日的平均完成比例
func weekdayRule(h *InsightHistory) *model.InsightDraft {
	perDay := make(map[string]int)
	for _, c := range h.Checkins {
		perDay[c.CheckinDate]++
	}

	weekday := h.Now.Weekday()
	today := util.FormatDate(h.Now)
	samples := 0
	var sum float64
	for day := 1; day <= h.CurrentDay; day++ {
		date := JourneyDate(h.Journey, day)
		if date >= today {
			break
		}
		t, err := time.Parse(util.DateFormat, date)
		if err != nil || t.Weekday() != weekday {
			continue
		}
		samples++
		sum += float64(perDay[date]) / float64(model.PillarCount)
	}
	if samples < 2 {
		return nil
	}

	rate := int(math.Round(sum / float64(samples) * 100))
	if rate >= 50 {
		return nil
	}
	name := weekday.String()
	return &model.InsightDraft{
		Type:        model.InsightPattern,
		Category:    "timing",
		Title:       fmt.Sprintf("%ss Are Challenging", name),
		Description: fmt.Sprintf("Your completion rate on %ss is %d%%. Try adjusting your routine or setting an extra reminder.", name, rate),
		Data:        &model.InsightData{Weekday: name, CompletionRate: ratePtr(rate)},
		Priority:    6,
	}
}

func moodRule(h *InsightHistory) *model.InsightDraft {
	if len(h.Moods) < 5 {
		return nil
	}
	var sum int
	for _, m := range h.Moods {
		sum += m.MoodScore
	}
	avg := float64(sum) / float64(len(h.Moods))

	switch {
	case avg >= 4:
		return &model.InsightDraft{
			Type:        model.InsightPattern,
			Category:    "mood",
			Title:       "Positive Mood Trend",
			Description: fmt.Sprintf("Your average mood score is %.1f/5. Your practices are having a positive impact!", avg),
			Data:        &model.InsightData{MoodAverage: model.RoundTo(avg, 1)},
			Priority:    4,
		}
	case avg <= 2.5:
		return &model.InsightDraft{
			Type:        model.InsightRecommendation,
			Category:    "mood",
			Title:       "Focus on Stress Relief",
			Description: "Your recent mood scores are low. Consider prioritizing breathing and meditation today.",
			Data: &model.InsightData{
				MoodAverage:     model.RoundTo(avg, 1),
				SuggestedAction: "Complete Breathing + Meditation before noon.",
			},
			Priority: 9,
		}
	}
	return nil
}

var milestoneDays = map[int]bool{7: true, 14: true, 21: true, 28: true, 42: true}

func milestoneRule(h *InsightHistory) *model.InsightDraft {
	if !milestoneDays[h.CurrentDay] {
		return nil
	}
	desc := fmt.Sprintf("You've completed %d days of your journey.", h.CurrentDay)
	switch h.CurrentDay {
	case 21:
		desc = "21 days in. Habits are forming and getting easier to keep."
	case 42:
		desc = "42 days in. You're in the final stretch!"
	}
	return &model.InsightDraft{
		Type:        model.InsightMilestone,
		Category:    "journey",
		Title:       fmt.Sprintf("Day %d Milestone!", h.CurrentDay),
		Description: desc,
		Data:        &model.InsightData{JourneyDay: h.CurrentDay},
		Priority:    10,
	}
}

func weeklyAssessmentRule(h *InsightHistory) *model.InsightDraft {
	if h.CurrentDay%7 != 0 {
		return nil
	}
	for _, a := range h.Assessments {
		if a.AssessmentType != model.AssessmentBaseline && util.DaysBetween(a.AssessmentDate.In(h.Now.Location()), h.Now) <= 7 {
			return nil
		}
	}
	return &model.InsightDraft{
		Type:        model.InsightRecommendation,
		Category:    "assessment",
		Title:       "Weekly Check-in Due",
		Description: "Take 2 minutes to complete your weekly assessment and track your progress.",
		Data:        &model.InsightData{JourneyDay: h.CurrentDay, SuggestedAction: "Submit a weekly self assessment."},
		Priority:    8,
	}
}

func wellbeingTrendRule(h *InsightHistory) *model.InsightDraft {
	if len(h.Assessments) < 2 {
		return nil
	}
	latest := h.Assessments[0].CompositeScore()
	previous := h.Assessments[1].CompositeScore()
	delta := latest - previous
	if delta < 1 {
		return nil
	}
	return &model.InsightDraft{
		Type:        model.InsightPattern,
		Category:    "progress",
		Title:       "Measurable Improvement!",
		Description: fmt.Sprintf("Your wellbeing score improved by %.0f points since your last assessment. Keep going!", delta*10),
		Data: &model.InsightData{
			Trend: &model.TrendPoint{Previous: model.RoundTo(previous*10, 1), Latest: model.RoundTo(latest*10, 1)},
		},
		Priority: 9,
	}
}

package service

import (
	"math"
	"pillar_journey_backend/internal/model"
	"sort"
)

// PillarRate 单个修习项在旅程内的完成情况
type PillarRate struct {
	Pillar        model.Pillar
	CompletedDays int
	Rate          int
	TotalMinutes  int
}

// StrengthThreshold 完成率达到该值视为优势项
const StrengthThreshold = 70

// GrowthThreshold 完成率低于该值（且大于 0）视为待加强项
const GrowthThreshold = 40

// completionRate 完成天数占已进行天数的百分比
func completionRate(completedDays, currentDay int) int {
	if currentDay <= 0 {
		return 0
	}
	rate := int(math.Round(float64(completedDays) / float64(currentDay) * 100))
	if rate > 100 {
		return 100
	}
	return rate
}

// PillarRates 按目录顺序返回全部修习项的完成率
func PillarRates(checkins []model.Checkin, currentDay int) []PillarRate {
	days := make(map[uint]map[string]bool, model.PillarCount)
	minutes := make(map[uint]int, model.PillarCount)
	for _, c := range checkins {
		if !c.Completed {
			continue
		}
		if days[c.PillarID] == nil {
			days[c.PillarID] = make(map[string]bool)
		}
		days[c.PillarID][c.CheckinDate] = true
		if c.DurationMinutes != nil {
			minutes[c.PillarID] += *c.DurationMinutes
		}
	}

	rates := make([]PillarRate, 0, model.PillarCount)
	for _, p := range model.Pillars {
		n := len(days[p.ID])
		rates = append(rates, PillarRate{
			Pillar:        p,
			CompletedDays: n,
			Rate:          completionRate(n, currentDay),
			TotalMinutes:  minutes[p.ID],
		})
	}
	return rates
}

// Strengths 完成率不低于阈值的修习项，按完成率降序，最多 n 个
func Strengths(rates []PillarRate, n int) []PillarRate {
	var out []PillarRate
	for _, r := range rates {
		if r.Rate >= StrengthThreshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// GrowthAreas 完成率大于 0 且低于阈值的修习项，按完成率升序，最多 n 个
func GrowthAreas(rates []PillarRate, n int) []PillarRate {
	var out []PillarRate
	for _, r := range rates {
		if r.Rate > 0 && r.Rate < GrowthThreshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate < out[j].Rate })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// uniqueDates 已完成打卡涉及的不同日期
func uniqueDates(checkins []model.Checkin) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, c := range checkins {
		if c.Completed && !seen[c.CheckinDate] {
			seen[c.CheckinDate] = true
			dates = append(dates, c.CheckinDate)
		}
	}
	sort.Strings(dates)
	return dates
}

package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"pillar_journey_backend/internal/util"
	"strconv"
	"strings"
)

const (
	csvTitle          = "Pillar Journey Report"
	csvSectionSummary = "JOURNEY SUMMARY"
	csvSectionPillars = "PILLAR BREAKDOWN"
	csvSectionWeekly  = "WEEKLY PROGRESS"
)

// 汇总段的行名，解析时按名称回填
const (
	csvTotalCompletions = "Total Completions"
	csvUniqueDays       = "Unique Days Active"
	csvTotalKarma       = "Total Karma"
	csvCurrentStreak    = "Current Streak"
	csvLongestStreak    = "Longest Streak"
	csvBadgesEarned     = "Badges Earned"
)

// ExportCSV 依次写出标题、旅程汇总、修习项明细、每周进度
func ExportCSV(report *JourneyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{csvTitle},
		{"Generated", report.GeneratedAt.Format(util.TimeFormat)},
		nil,
		{csvSectionSummary},
		{"Start Date", report.Journey.StartDate},
		{"End Date", report.Journey.EndDate},
		{"Current Day", strconv.Itoa(report.Journey.CurrentDay)},
		{"Completion", fmt.Sprintf("%d%%", report.Journey.CompletionPercentage)},
		{csvTotalCompletions, strconv.Itoa(report.Summary.TotalCompletions)},
		{csvUniqueDays, strconv.Itoa(report.Summary.UniqueDaysActive)},
		{csvTotalKarma, strconv.Itoa(report.Summary.TotalKarma)},
		{csvCurrentStreak, strconv.Itoa(report.Summary.CurrentStreak)},
		{csvLongestStreak, strconv.Itoa(report.Summary.LongestStreak)},
		{csvBadgesEarned, strconv.Itoa(report.Summary.BadgesEarned)},
		nil,
		{csvSectionPillars},
		{"Pillar", "Category", "Days Completed", "Completion Rate", "Total Minutes"},
	}
	for _, p := range report.PillarProgress {
		rows = append(rows, []string{
			p.Name,
			string(p.Category),
			strconv.Itoa(p.CompletedDays),
			fmt.Sprintf("%d%%", p.CompletionRate),
			strconv.Itoa(p.TotalMinutes),
		})
	}

	rows = append(rows, nil, []string{csvSectionWeekly}, []string{"Week", "Pillars Completed", "Avg Completion", "Mood Average"})
	for _, wk := range report.WeeklyProgress {
		mood := "N/A"
		if wk.MoodAverage != nil {
			mood = strconv.FormatFloat(*wk.MoodAverage, 'f', 1, 64)
		}
		rows = append(rows, []string{
			fmt.Sprintf("Week %d", wk.Week),
			strconv.Itoa(wk.Completions),
			fmt.Sprintf("%d%%", wk.AvgCompletion),
			mood,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSVSummary 从导出的 CSV 中读回汇总计数
func ParseCSVSummary(r io.Reader) (ReportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var summary ReportSummary
	fields := map[string]*int{
		csvTotalCompletions: &summary.TotalCompletions,
		csvUniqueDays:       &summary.UniqueDaysActive,
		csvTotalKarma:       &summary.TotalKarma,
		csvCurrentStreak:    &summary.CurrentStreak,
		csvLongestStreak:    &summary.LongestStreak,
		csvBadgesEarned:     &summary.BadgesEarned,
	}

	inSummary := false
	found := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReportSummary{}, util.InvalidInputf("malformed report csv: %v", err)
		}
		if len(record) == 1 {
			inSummary = record[0] == csvSectionSummary
			continue
		}
		if !inSummary || len(record) < 2 {
			continue
		}
		dst, ok := fields[record[0]]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return ReportSummary{}, util.InvalidInputf("summary field %q: %v", record[0], err)
		}
		*dst = n
		found++
	}

	if found != len(fields) {
		return ReportSummary{}, util.InvalidInputf("report csv summary incomplete: %d of %d fields", found, len(fields))
	}
	return summary, nil
}

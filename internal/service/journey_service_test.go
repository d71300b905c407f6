package service

import (
	"testing"
	"time"

	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentDay(t *testing.T) {
	j := &model.Journey{StartDate: "2026-03-02", EndDate: "2026-04-18"}

	assert.Equal(t, 1, CurrentDay(j, testStart))
	assert.Equal(t, 1, CurrentDay(j, testStart.Add(-48*time.Hour)))
	assert.Equal(t, 8, CurrentDay(j, testStart.AddDate(0, 0, 7)))
	assert.Equal(t, 48, CurrentDay(j, testStart.AddDate(0, 0, 47)))
	assert.Equal(t, 48, CurrentDay(j, testStart.AddDate(0, 0, 90)))
	assert.Equal(t, "2026-04-18", JourneyDate(j, 48))
}

func TestInWindow(t *testing.T) {
	j := &model.Journey{StartDate: "2026-03-02", EndDate: "2026-04-18"}
	now := testStart.AddDate(0, 0, 3)

	assert.True(t, InWindow(j, "2026-03-02", now))
	assert.True(t, InWindow(j, "2026-03-05", now))
	assert.False(t, InWindow(j, "2026-03-06", now))
	assert.False(t, InWindow(j, "2026-03-01", now))
	assert.False(t, InWindow(j, "2026-04-19", testStart.AddDate(0, 0, 60)))
}

func TestJourneyService_Start(t *testing.T) {
	e := newTestEnv(t)

	view, err := e.journeys.Start(e.ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", view.Journey.StartDate)
	assert.Equal(t, "2026-04-18", view.Journey.EndDate)
	assert.Equal(t, 1, view.CurrentDay)
	assert.Equal(t, 1, view.CurrentWeek)
	assert.Equal(t, 47, view.DaysRemaining)

	// 替换进行中的旅程
	second, err := e.journeys.Start(e.ctx, 1, "2026-02-23")
	require.NoError(t, err)
	assert.Equal(t, 8, second.CurrentDay)
	assert.Equal(t, 2, second.CurrentWeek)

	current, err := e.journeys.Current(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.Journey.ID, current.Journey.ID)

	all, err := e.journeys.JourneyRepo.ListByUser(e.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJourneyService_StartValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name  string
		start string
	}{
		{"future", "2026-03-03"},
		{"too old", "2026-01-01"},
		{"malformed", "2026/03/01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.journeys.Start(e.ctx, 1, tt.start)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}
}

func TestJourneyService_Complete(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	_, err := e.journeys.Complete(e.ctx, 1)
	assert.ErrorIs(t, err, util.ErrJourneyNotFinished)

	e.clock.Advance(47 * 24 * time.Hour)
	view, err := e.journeys.Complete(e.ctx, 1)
	require.NoError(t, err)
	assert.False(t, view.Journey.IsActive)
	assert.NotNil(t, view.Journey.CompletedAt)
	assert.Equal(t, 48, view.CurrentDay)

	_, err = e.journeys.Current(e.ctx, 1)
	assert.ErrorIs(t, err, util.ErrJourneyNotFound)

	// 结束后可以开始新的旅程
	_, err = e.journeys.Start(e.ctx, 1, "")
	require.NoError(t, err)
}

func validAssessment(typ model.AssessmentType, score int) AssessmentInput {
	return AssessmentInput{
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

func TestAssessmentInput_Validate(t *testing.T) {
	assert.NoError(t, validAssessment(model.AssessmentBaseline, 5).Validate())

	bad := validAssessment("monthly", 5)
	assert.ErrorIs(t, bad.Validate(), util.ErrInvalidInput)

	bad = validAssessment(model.AssessmentWeekly, 5)
	bad.SleepQuality = 11
	assert.ErrorIs(t, bad.Validate(), util.ErrInvalidInput)

	bad = validAssessment(model.AssessmentWeekly, 5)
	bad.FocusLevel = intPtr(0)
	assert.ErrorIs(t, bad.Validate(), util.ErrInvalidInput)
}

func TestAssessmentService_SubmitAndCompare(t *testing.T) {
	e := newTestEnv(t)

	cmp, err := e.assessment.Compare(e.ctx, 1)
	require.NoError(t, err)
	assert.False(t, cmp.HasBaseline)
	assert.Nil(t, cmp.Latest)

	// 没有旅程时记为第 1 天
	baseline, err := e.assessment.Submit(e.ctx, 1, validAssessment(model.AssessmentBaseline, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, baseline.DayNumber)

	e.startJourney(1)
	e.clock.Advance(6 * 24 * time.Hour)
	weekly, err := e.assessment.Submit(e.ctx, 1, validAssessment(model.AssessmentWeekly, 6))
	require.NoError(t, err)
	assert.Equal(t, 7, weekly.DayNumber)

	cmp, err = e.assessment.Compare(e.ctx, 1)
	require.NoError(t, err)
	assert.True(t, cmp.HasBaseline)
	require.NotNil(t, cmp.Latest)
	assert.Equal(t, weekly.ID, cmp.Latest.ID)
	assert.Equal(t, 2.0, cmp.Delta)

	list, err := e.assessment.List(e.ctx, 1, model.AssessmentWeekly)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = e.assessment.List(e.ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMoodService_Log(t *testing.T) {
	e := newTestEnv(t)

	m, err := e.moods.Log(e.ctx, 1, MoodInput{TimeOfDay: model.Morning, MoodScore: 4, EnergyLevel: 7, StressLevel: 3})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", m.LogDate)

	_, err = e.moods.Log(e.ctx, 1, MoodInput{Date: "2026-03-01", TimeOfDay: model.Evening, MoodScore: 2, EnergyLevel: 4, StressLevel: 8})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   MoodInput
	}{
		{"time of day", MoodInput{TimeOfDay: "night", MoodScore: 3, EnergyLevel: 5, StressLevel: 5}},
		{"mood range", MoodInput{TimeOfDay: model.Morning, MoodScore: 6, EnergyLevel: 5, StressLevel: 5}},
		{"stress range", MoodInput{TimeOfDay: model.Morning, MoodScore: 3, EnergyLevel: 5, StressLevel: 0}},
		{"future", MoodInput{Date: "2026-03-03", TimeOfDay: model.Morning, MoodScore: 3, EnergyLevel: 5, StressLevel: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.moods.Log(e.ctx, 1, tt.in)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}

	recent, err := e.moods.Recent(e.ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2026-03-02", recent[0].LogDate)
}

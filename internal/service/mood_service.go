package service

import (
	"context"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
)

// MoodInput 心情记录
type MoodInput struct {
	Date        string          `json:"date"`
	TimeOfDay   model.TimeOfDay `json:"timeOfDay" binding:"required"`
	MoodScore   int             `json:"moodScore" binding:"required"`
	EnergyLevel int             `json:"energyLevel" binding:"required"`
	StressLevel int             `json:"stressLevel" binding:"required"`
	Notes       string          `json:"notes"`
}

type MoodService struct {
	MoodRepo *repository.MoodRepository
	Clock    util.Clock
}

func NewMoodService(moodRepo *repository.MoodRepository, clock util.Clock) *MoodService {
	return &MoodService{MoodRepo: moodRepo, Clock: clock}
}

func (s *MoodService) Log(ctx context.Context, userID uint, in MoodInput) (*model.MoodLog, error) {
	switch in.TimeOfDay {
	case model.Morning, model.Afternoon, model.Evening:
	default:
		return nil, util.InvalidInputf("timeOfDay must be morning, afternoon or evening")
	}
	if in.MoodScore < 1 || in.MoodScore > 5 {
		return nil, util.InvalidInputf("moodScore must be between 1 and 5")
	}
	if in.EnergyLevel < 1 || in.EnergyLevel > 10 || in.StressLevel < 1 || in.StressLevel > 10 {
		return nil, util.InvalidInputf("energyLevel and stressLevel must be between 1 and 10")
	}

	now := s.Clock.Now()
	date := util.FormatDate(now)
	if in.Date != "" {
		t, err := util.ParseDate(in.Date, now.Location())
		if err != nil {
			return nil, err
		}
		d := util.FormatDate(t)
		if d > date {
			return nil, util.InvalidInputf("date %s is in the future", d)
		}
		date = d
	}

	m := &model.MoodLog{
		UserID:      userID,
		LogDate:     date,
		TimeOfDay:   in.TimeOfDay,
		MoodScore:   in.MoodScore,
		EnergyLevel: in.EnergyLevel,
		StressLevel: in.StressLevel,
		Notes:       in.Notes,
	}
	if err := s.MoodRepo.Create(ctx, m); err != nil {
		return nil, util.StoreError(err)
	}
	return m, nil
}

// Recent 最近 n 条
func (s *MoodService) Recent(ctx context.Context, userID uint, n int) ([]model.MoodLog, error) {
	logs, err := s.MoodRepo.Recent(ctx, userID, n)
	if err != nil {
		return nil, util.StoreError(err)
	}
	return logs, nil
}

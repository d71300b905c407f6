package service

import (
	"context"
	"errors"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"
)

// AssessmentInput 自评提交内容，各项 1-10
type AssessmentInput struct {
	AssessmentType      model.AssessmentType `json:"assessmentType" binding:"required"`
	StressLevel         int                  `json:"stressLevel" binding:"required"`
	SleepQuality        int                  `json:"sleepQuality" binding:"required"`
	EnergyLevel         int                  `json:"energyLevel" binding:"required"`
	MentalClarity       int                  `json:"mentalClarity" binding:"required"`
	PhysicalFitness     int                  `json:"physicalFitness" binding:"required"`
	EmotionalStability  int                  `json:"emotionalStability" binding:"required"`
	SpiritualConnection int                  `json:"spiritualConnection" binding:"required"`
	LifeSatisfaction    int                  `json:"lifeSatisfaction" binding:"required"`
	FocusLevel          *int                 `json:"focusLevel"`
	OverallWellbeing    *int                 `json:"overallWellbeing"`
	BiggestChallenge    string               `json:"biggestChallenge"`
	BiggestWin          string               `json:"biggestWin"`
	OneWordFeeling      string               `json:"oneWordFeeling"`
	Notes               string               `json:"notes"`
}

// Validate 检查类型与分值范围
func (in AssessmentInput) Validate() error {
	switch in.AssessmentType {
	case model.AssessmentBaseline, model.AssessmentWeekly, model.AssessmentFinal:
	default:
		return util.InvalidInputf("assessmentType must be baseline, weekly or final")
	}
	scores := map[string]int{
		"stressLevel":         in.StressLevel,
		"sleepQuality":        in.SleepQuality,
		"energyLevel":         in.EnergyLevel,
		"mentalClarity":       in.MentalClarity,
		"physicalFitness":     in.PhysicalFitness,
		"emotionalStability":  in.EmotionalStability,
		"spiritualConnection": in.SpiritualConnection,
		"lifeSatisfaction":    in.LifeSatisfaction,
	}
	for name, v := range scores {
		if v < 1 || v > 10 {
			return util.InvalidInputf("%s must be between 1 and 10", name)
		}
	}
	for name, v := range map[string]*int{"focusLevel": in.FocusLevel, "overallWellbeing": in.OverallWellbeing} {
		if v != nil && (*v < 1 || *v > 10) {
			return util.InvalidInputf("%s must be between 1 and 10", name)
		}
	}
	return nil
}

// AssessmentComparison 基线与最近一次自评的对比
type AssessmentComparison struct {
	Baseline    *model.SelfAssessment `json:"baseline"`
	Latest      *model.SelfAssessment `json:"latest"`
	HasBaseline bool                  `json:"hasBaseline"`
	Delta       float64               `json:"delta"`
}

type AssessmentService struct {
	AssessmentRepo *repository.AssessmentRepository
	Journeys       *JourneyService
	Clock          util.Clock
}

func NewAssessmentService(assessmentRepo *repository.AssessmentRepository, journeys *JourneyService, clock util.Clock) *AssessmentService {
	return &AssessmentService{AssessmentRepo: assessmentRepo, Journeys: journeys, Clock: clock}
}

// Submit 记录自评，dayNumber 取当前旅程的天数，没有旅程时为 1
func (s *AssessmentService) Submit(ctx context.Context, userID uint, in AssessmentInput) (*model.SelfAssessment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.Clock.Now()

	day := 1
	journey, err := s.Journeys.Active(ctx, userID)
	switch {
	case err == nil:
		day = CurrentDay(journey, now)
	case !errors.Is(err, util.ErrJourneyNotFound):
		return nil, err
	}

	a := &model.SelfAssessment{
		UserID:              userID,
		AssessmentDate:      now,
		AssessmentType:      in.AssessmentType,
		DayNumber:           day,
		StressLevel:         in.StressLevel,
		SleepQuality:        in.SleepQuality,
		EnergyLevel:         in.EnergyLevel,
		MentalClarity:       in.MentalClarity,
		PhysicalFitness:     in.PhysicalFitness,
		EmotionalStability:  in.EmotionalStability,
		SpiritualConnection: in.SpiritualConnection,
		LifeSatisfaction:    in.LifeSatisfaction,
		FocusLevel:          in.FocusLevel,
		OverallWellbeing:    in.OverallWellbeing,
		BiggestChallenge:    in.BiggestChallenge,
		BiggestWin:          in.BiggestWin,
		OneWordFeeling:      in.OneWordFeeling,
		Notes:               in.Notes,
	}
	if err := s.AssessmentRepo.Create(ctx, a); err != nil {
		return nil, util.StoreError(err)
	}
	return a, nil
}

func (s *AssessmentService) List(ctx context.Context, userID uint, assessmentType model.AssessmentType) ([]model.SelfAssessment, error) {
	list, err := s.AssessmentRepo.ListByUser(ctx, userID, assessmentType)
	if err != nil {
		return nil, util.StoreError(err)
	}
	return list, nil
}

// Compare 基线与最近一次的综合分差
func (s *AssessmentService) Compare(ctx context.Context, userID uint) (*AssessmentComparison, error) {
	cmp := &AssessmentComparison{}

	baseline, err := s.AssessmentRepo.FirstBaseline(ctx, userID)
	switch {
	case err == nil:
		cmp.Baseline = baseline
		cmp.HasBaseline = true
	case errors.Is(util.StoreError(err), util.ErrNotFound):
	default:
		return nil, util.StoreError(err)
	}

	latest, err := s.AssessmentRepo.Latest(ctx, userID, 1)
	if err != nil {
		return nil, util.StoreError(err)
	}
	if len(latest) > 0 {
		cmp.Latest = &latest[0]
	}

	if cmp.Baseline != nil && cmp.Latest != nil {
		cmp.Delta = model.RoundTo(cmp.Latest.CompositeScore()-cmp.Baseline.CompositeScore(), 1)
	}
	return cmp, nil
}

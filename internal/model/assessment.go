package model

import (
	"math"
	"time"
)

type AssessmentType string

const (
	AssessmentBaseline AssessmentType = "baseline"
	AssessmentWeekly   AssessmentType = "weekly"
	AssessmentFinal    AssessmentType = "final"
)

// SelfAssessment 用户自评，各项分数 1-10
// swagger:model SelfAssessment
type SelfAssessment struct {
	BaseModel
	UserID              uint           `gorm:"index:idx_assessment_user_date,priority:1;not null" json:"userId"`
	AssessmentDate      time.Time      `gorm:"index:idx_assessment_user_date,priority:2;not null" json:"assessmentDate"`
	AssessmentType      AssessmentType `gorm:"type:varchar(16);not null" json:"assessmentType"`
	DayNumber           int            `gorm:"default:1" json:"dayNumber"`
	StressLevel         int            `gorm:"not null" json:"stressLevel"`
	SleepQuality        int            `gorm:"not null" json:"sleepQuality"`
	EnergyLevel         int            `gorm:"not null" json:"energyLevel"`
	MentalClarity       int            `gorm:"not null" json:"mentalClarity"`
	PhysicalFitness     int            `gorm:"not null" json:"physicalFitness"`
	EmotionalStability  int            `gorm:"not null" json:"emotionalStability"`
	SpiritualConnection int            `gorm:"not null" json:"spiritualConnection"`
	LifeSatisfaction    int            `gorm:"not null" json:"lifeSatisfaction"`
	FocusLevel          *int           `json:"focusLevel,omitempty"`
	OverallWellbeing    *int           `json:"overallWellbeing,omitempty"`
	BiggestChallenge    string         `gorm:"type:text" json:"biggestChallenge,omitempty"`
	BiggestWin          string         `gorm:"type:text" json:"biggestWin,omitempty"`
	OneWordFeeling      string         `gorm:"size:64" json:"oneWordFeeling,omitempty"`
	Notes               string         `gorm:"type:text" json:"notes,omitempty"`
}

func (SelfAssessment) TableName() string {
	return "self_assessments"
}

// CompositeScore 八项分数的均值（压力取反），结果仍在 1-10 区间
func (a SelfAssessment) CompositeScore() float64 {
	sum := a.EnergyLevel +
		a.SleepQuality +
		a.MentalClarity +
		(11 - a.StressLevel) +
		a.EmotionalStability +
		a.SpiritualConnection +
		a.LifeSatisfaction +
		a.PhysicalFitness
	return float64(sum) / 8
}

// RoundTo 保留 places 位小数
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package model

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// MoodLog 心情记录，心情 1-5，精力与压力 1-10
// swagger:model MoodLog
type MoodLog struct {
	BaseModel
	UserID      uint      `gorm:"index:idx_mood_user_date,priority:1;not null" json:"userId"`
	LogDate     string    `gorm:"size:10;index:idx_mood_user_date,priority:2;not null" json:"logDate"`
	TimeOfDay   TimeOfDay `gorm:"type:varchar(16);not null" json:"timeOfDay"`
	MoodScore   int       `gorm:"not null" json:"moodScore"`
	EnergyLevel int       `gorm:"not null" json:"energyLevel"`
	StressLevel int       `gorm:"not null" json:"stressLevel"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
}

func (MoodLog) TableName() string {
	return "mood_logs"
}

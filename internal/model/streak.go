package model

import "time"

// Streak 连续打卡缓存，始终可由打卡历史重新推导
// swagger:model Streak
type Streak struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID          uint      `gorm:"uniqueIndex:idx_streak_user_journey,priority:1;not null" json:"userId"`
	JourneyID       uint      `gorm:"uniqueIndex:idx_streak_user_journey,priority:2;not null" json:"journeyId"`
	CurrentStreak   int       `gorm:"default:0" json:"currentStreak"`
	LongestStreak   int       `gorm:"default:0" json:"longestStreak"`
	LastCheckinDate string    `gorm:"size:10" json:"lastCheckinDate,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Streak) TableName() string {
	return "streaks"
}

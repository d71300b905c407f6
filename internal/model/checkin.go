package model

import (
	"time"
)

// Checkin 记录用户某天某项修习的完成情况，(user_id, pillar_id, checkin_date) 唯一
// swagger:model Checkin
type Checkin struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint       `gorm:"uniqueIndex:idx_checkin_key,priority:1;index:idx_checkin_user_date,priority:1;not null" json:"userId"`
	PillarID        uint       `gorm:"uniqueIndex:idx_checkin_key,priority:2;not null" json:"pillarId"`
	CheckinDate     string     `gorm:"size:10;uniqueIndex:idx_checkin_key,priority:3;index:idx_checkin_user_date,priority:2;not null" json:"checkinDate"`
	JourneyID       uint       `gorm:"index;not null" json:"journeyId"`
	Completed       bool       `gorm:"default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	KarmaEarned     int        `gorm:"default:0" json:"karmaEarned"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (Checkin) TableName() string {
	return "checkins"
}

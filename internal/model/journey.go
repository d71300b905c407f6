package model

import (
	"time"
)

// Journey 用户的一次 48 天旅程
// swagger:model Journey
type Journey struct {
	BaseModel
	UserID      uint       `gorm:"index;not null" json:"userId"`
	StartDate   string     `gorm:"size:10;not null" json:"startDate"`
	EndDate     string     `gorm:"size:10;not null" json:"endDate"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// ActiveUserID 仅在进行中时等于 UserID，唯一索引保证每个用户最多一个进行中的旅程
	ActiveUserID *uint `gorm:"uniqueIndex:idx_journey_active_user" json:"-"`
}

func (Journey) TableName() string {
	return "journeys"
}

package model

import "time"

type KarmaReason string

const (
	KarmaEarned    KarmaReason = "earned"
	KarmaBonus     KarmaReason = "bonus"
	KarmaMilestone KarmaReason = "milestone"
	KarmaStreak    KarmaReason = "streak"
)

// KarmaTransaction 积分流水，只追加不修改
// swagger:model KarmaTransaction
type KarmaTransaction struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint        `gorm:"index;not null" json:"userId"`
	Points        int         `gorm:"not null" json:"points"`
	Reason        KarmaReason `gorm:"type:varchar(16);not null" json:"reason"`
	PillarID      *uint       `json:"pillarId,omitempty"`
	Description   string      `gorm:"size:255" json:"description"`
	ReferenceType string      `gorm:"size:32" json:"referenceType,omitempty"`
	ReferenceID   string      `gorm:"size:64" json:"referenceId,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"createdAt"`
}

func (KarmaTransaction) TableName() string {
	return "karma_transactions"
}

package repository

import (
	"context"
	"pillar_journey_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) WithTx(tx *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: tx}
}

func (r *StreakRepository) Find(ctx context.Context, userID, journeyID uint) (*model.Streak, error) {
	var streak model.Streak
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND journey_id = ?", userID, journeyID).
		First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

// Upsert 写入重新计算后的连续天数
func (r *StreakRepository) Upsert(ctx context.Context, streak *model.Streak) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "journey_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "last_checkin_date", "updated_at"}),
	}).Create(streak).Error
}
